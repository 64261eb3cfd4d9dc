package channel

import (
	"sync"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/lib/log"
	"github.com/dep2p/go-outbound/pkg/types"
)

var logger = log.Logger("core/transport/channel")

// 默认水位
const (
	DefaultLowWatermark  = 32 * 1024
	DefaultHighWatermark = 64 * 1024
)

// Sink 帧写入端
//
// 只会被写 goroutine 串行调用。
type Sink interface {
	// WriteFrame 写入一帧
	WriteFrame(payload []byte) error

	// Flush 把已写入的帧刷到底层连接
	Flush() error

	// Close 关闭底层连接
	Close() error
}

// 确保实现接口
var _ pkgif.Channel = (*Channel)(nil)

// frame 待写出的帧
type frame struct {
	payload []byte
	done    func(error)
}

// Channel 带写缓冲的出站通道
type Channel struct {
	id     string
	remote string
	sink   Sink

	mu       sync.Mutex
	cond     *sync.Cond
	high     []frame
	normal   []frame
	buffered int
	lowMark  int
	highMark int
	writable bool
	closed   bool
	closeErr error
	onClose  []func()

	exited chan struct{}
}

// New 创建通道并启动写 goroutine
func New(remote string, sink Sink) *Channel {
	c := &Channel{
		id:       uuid.New().String(),
		remote:   remote,
		sink:     sink,
		lowMark:  DefaultLowWatermark,
		highMark: DefaultHighWatermark,
		writable: true,
		exited:   make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.writeLoop()
	return c
}

// ID 返回通道 ID
func (c *Channel) ID() string {
	return c.id
}

// RemoteAddr 返回对端地址
func (c *Channel) RemoteAddr() string {
	return c.remote
}

// Write 非阻塞写入一帧
func (c *Channel) Write(payload []byte, prio types.Priority, done func(error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	f := frame{payload: payload, done: done}
	if prio == types.PriorityHigh {
		c.high = append(c.high, f)
	} else {
		c.normal = append(c.normal, f)
	}
	c.buffered += len(payload)
	if c.writable && c.buffered > c.highMark {
		c.writable = false
		logger.Debug("通道超过高水位，暂停可写", "channel", log.TruncateID(c.id, 8), "buffered", c.buffered)
	}
	c.mu.Unlock()

	c.cond.Signal()
	return nil
}

// SetWatermarks 设置背压水位
func (c *Channel) SetWatermarks(low, high int) {
	if low < 0 || high <= 0 || low > high {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lowMark = low
	c.highMark = high
	c.updateWritableLocked()
}

// IsWritable 返回是否可写
func (c *Channel) IsWritable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writable && !c.closed
}

// BufferedBytes 返回缓冲字节数
func (c *Channel) BufferedBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffered
}

// OnClose 注册关闭回调；已关闭时立即调用
func (c *Channel) OnClose(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fn()
		return
	}
	c.onClose = append(c.onClose, fn)
	c.mu.Unlock()
}

// Close 关闭通道
func (c *Channel) Close() error {
	return c.CloseWithError(nil)
}

// CloseWithError 以指定原因关闭通道
//
// 缓冲中尚未写出的帧以 ErrClosed 完成。
func (c *Channel) CloseWithError(cause error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.closeErr = cause
	pending := make([]frame, 0, len(c.high)+len(c.normal))
	pending = append(pending, c.high...)
	pending = append(pending, c.normal...)
	c.high, c.normal = nil, nil
	c.buffered = 0
	callbacks := c.onClose
	c.onClose = nil
	c.mu.Unlock()

	c.cond.Broadcast()
	err := c.sink.Close()

	// 回调在锁外执行，允许回调中再次调用 Close
	for _, f := range pending {
		if f.done != nil {
			f.done(ErrClosed)
		}
	}
	for _, fn := range callbacks {
		fn()
	}

	if cause != nil {
		logger.Debug("通道异常关闭", "channel", log.TruncateID(c.id, 8), "remote", c.remote, "error", cause)
	}
	return err
}

// IsClosed 检查是否已关闭
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Err 返回关闭原因（主动关闭为 nil）
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// Done 返回写 goroutine 退出信号
func (c *Channel) Done() <-chan struct{} {
	return c.exited
}

// ============================================================================
//                              写 goroutine
// ============================================================================

func (c *Channel) writeLoop() {
	defer close(c.exited)

	for {
		batch, ok := c.next()
		if !ok {
			return
		}

		var err error
		for _, f := range batch {
			if err = c.sink.WriteFrame(f.payload); err != nil {
				break
			}
		}
		if err == nil {
			err = c.sink.Flush()
		}
		c.release(batchSize(batch))

		// 刷出失败时整批按失败处理
		for _, f := range batch {
			if f.done != nil {
				f.done(err)
			}
		}

		if err != nil {
			_ = c.CloseWithError(err)
			return
		}
	}
}

// next 取出当前缓冲中的全部帧（高优先级在前）
func (c *Channel) next() ([]frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.high) == 0 && len(c.normal) == 0 && !c.closed {
		c.cond.Wait()
	}
	if c.closed {
		return nil, false
	}

	batch := make([]frame, 0, len(c.high)+len(c.normal))
	batch = append(batch, c.high...)
	batch = append(batch, c.normal...)
	c.high, c.normal = nil, nil
	return batch, true
}

// release 帧写出后扣减缓冲字节
func (c *Channel) release(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.buffered -= n
	if c.buffered < 0 {
		c.buffered = 0
	}
	c.updateWritableLocked()
}

func (c *Channel) updateWritableLocked() {
	switch {
	case c.writable && c.buffered > c.highMark:
		c.writable = false
	case !c.writable && c.buffered <= c.lowMark:
		c.writable = true
		logger.Debug("通道回落到低水位，恢复可写", "channel", log.TruncateID(c.id, 8), "buffered", c.buffered)
	}
}

func batchSize(batch []frame) int {
	n := 0
	for _, f := range batch {
		n += len(f.payload)
	}
	return n
}
