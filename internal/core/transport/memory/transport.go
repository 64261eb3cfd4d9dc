package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-outbound/internal/core/transport/channel"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/lib/log"
)

var logger = log.Logger("core/transport/memory")

// ConnectHook 连接钩子
//
// 在每次连接尝试交付结果前调用（attempt 从 1 开始，按地址计数）。
// 返回错误则该次尝试失败；钩子可以阻塞（例如等待测试放行），ctx 在拨号超时后取消。
type ConnectHook func(ctx context.Context, addr string, attempt int) error

// Config 内存传输配置
type Config struct {
	// DialTimeout 单次连接尝试超时（约束钩子的阻塞时间）
	DialTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DialTimeout: 10 * time.Second,
	}
}

// 确保实现接口
var _ pkgif.Transport = (*Transport)(nil)

// Transport 进程内传输
type Transport struct {
	network *Network
	config  Config
	local   string

	mu        sync.Mutex
	attempts  map[string]int
	failures  map[string][]error
	hook      ConnectHook
	channels  map[string][]*channel.Channel
	listeners []*Listener

	closed atomic.Bool
}

// NewTransport 创建进程内传输
func NewTransport(network *Network, cfg Config) *Transport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	return &Transport{
		network:  network,
		config:   cfg,
		local:    "mem-" + uuid.New().String()[:8],
		attempts: make(map[string]int),
		failures: make(map[string][]error),
		channels: make(map[string][]*channel.Channel),
	}
}

// LocalAddr 返回本端标识（作为入站消息的 from）
func (t *Transport) LocalAddr() string {
	return t.local
}

// Connect 异步连接
func (t *Transport) Connect(ctx context.Context, addr string, done pkgif.ConnectCallback) {
	t.mu.Lock()
	t.attempts[addr]++
	attempt := t.attempts[addr]
	var injected error
	if q := t.failures[addr]; len(q) > 0 {
		injected, t.failures[addr] = q[0], q[1:]
	}
	hook := t.hook
	t.mu.Unlock()

	go func() {
		ch, err := t.connect(ctx, addr, attempt, injected, hook)
		if err != nil {
			logger.Debug("连接失败", "addr", addr, "attempt", attempt, "error", err)
			done(nil, err)
			return
		}
		done(ch, nil)
	}()
}

func (t *Transport) connect(ctx context.Context, addr string, attempt int, injected error, hook ConnectHook) (pkgif.Channel, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	dctx, cancel := context.WithTimeout(ctx, t.config.DialTimeout)
	defer cancel()

	if hook != nil {
		if err := hook(dctx, addr, attempt); err != nil {
			return nil, err
		}
	}
	if injected != nil {
		return nil, injected
	}
	if err := dctx.Err(); err != nil {
		return nil, err
	}

	l := t.network.lookup(addr)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionRefused, addr)
	}
	ch, err := l.accept(t.local)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.channels[addr] = append(t.channels[addr], ch)
	t.mu.Unlock()

	// 传输层关闭后才完成的连接立即关闭
	if t.closed.Load() {
		_ = ch.Close()
		return nil, ErrTransportClosed
	}
	return ch, nil
}

// Listen 在进程内网络上监听
func (t *Transport) Listen(addr string, handler pkgif.InboundHandler) (pkgif.Listener, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	l, err := t.network.bind(addr, handler)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()

	logger.Debug("进程内监听已建立", "addr", l.Addr())
	return l, nil
}

// Close 关闭传输层，断开本传输创建的所有通道和监听者
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	listeners := t.listeners
	t.listeners = nil
	var chans []*channel.Channel
	for _, cs := range t.channels {
		chans = append(chans, cs...)
	}
	t.channels = make(map[string][]*channel.Channel)
	t.mu.Unlock()

	for _, c := range chans {
		_ = c.Close()
	}
	for _, l := range listeners {
		_ = l.Close()
	}
	return nil
}

// ============================================================================
//                              脚本与观测
// ============================================================================

// SetConnectHook 设置连接钩子（nil 清除）
func (t *Transport) SetConnectHook(hook ConnectHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hook = hook
}

// FailNext 让接下来 n 次到 addr 的连接尝试失败
func (t *Transport) FailNext(addr string, n int, err error) {
	if err == nil {
		err = ErrInjected
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < n; i++ {
		t.failures[addr] = append(t.failures[addr], err)
	}
}

// Attempts 返回到 addr 的连接尝试次数
func (t *Transport) Attempts(addr string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[addr]
}

// Channels 返回到 addr 建立过的所有通道
func (t *Transport) Channels(addr string) []*channel.Channel {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*channel.Channel, len(t.channels[addr]))
	copy(out, t.channels[addr])
	return out
}

// CloseChannels 模拟对端断开：关闭到 addr 的所有通道
func (t *Transport) CloseChannels(addr string) {
	for _, c := range t.Channels(addr) {
		_ = c.CloseWithError(ErrConnectionReset)
	}
}
