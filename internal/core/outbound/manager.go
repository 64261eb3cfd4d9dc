package outbound

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/lib/log"
	"github.com/dep2p/go-outbound/pkg/types"
)

var logger = log.Logger("core/outbound")

// 确保实现接口
var _ pkgif.OutboundManager = (*Manager)(nil)

// Manager 出站连接管理器
type Manager struct {
	config    *Config
	transport pkgif.Transport
	registry  *Registry
	metrics   pkgif.OutboundMetrics
	clock     clock.Clock
	limiter   *rate.Limiter

	// ctx 在 Shutdown 时取消，用于回收 goroutine 与限速等待
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener pkgif.Listener
	wg       sync.WaitGroup

	started atomic.Bool
	closed  atomic.Bool
}

// NewManager 创建出站连接管理器
func NewManager(transport pkgif.Transport, opts ...Option) (*Manager, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidConfig)
	}

	m := &Manager{
		config:    DefaultConfig(),
		transport: transport,
		registry:  NewRegistry(),
		metrics:   pkgif.NoopOutboundMetrics{},
		clock:     clock.New(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.limiter = newLimiter(m.config)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

// Config 返回配置
func (m *Manager) Config() *Config {
	return m.config
}

// Start 启动入站监听与空闲回收
//
// 出站侧在创建后即可使用，Start 不是 Enqueue 的前提。
func (m *Manager) Start(ctx context.Context, handler pkgif.InboundHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed.Load() {
		return ErrShutdown
	}
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if addr := m.config.ListenAddr; addr != "" {
		l, err := m.transport.Listen(addr, handler)
		if err != nil {
			m.started.Store(false)
			return fmt.Errorf("outbound: listen %s: %w", addr, err)
		}
		m.mu.Lock()
		m.listener = l
		m.mu.Unlock()
	}

	if m.config.IdleTimeout > 0 {
		// ticker 在返回前创建，模拟时钟前进时不会错过
		ticker := m.clock.Ticker(m.config.ReapInterval)
		m.wg.Add(1)
		go m.reapLoop(ticker)
	}

	logger.Info("出站管理器已启动",
		"listen", m.ListenAddr(),
		"retryBudget", m.config.RetryBudget,
		"idleTimeout", m.config.IdleTimeout)
	return nil
}

// ListenAddr 返回实际监听地址，未监听时为空
func (m *Manager) ListenAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr()
}

// Enqueue 把消息发送到目的端
//
// 没有连接时建立连接（并发调用只会发起一次连接），连接建立期间阻塞等待。
// 就绪通道在写入前失效时重建一次；重建后仍失效返回 *ChannelDeadError。
func (m *Manager) Enqueue(ctx context.Context, env *types.Envelope, dest types.Destination) error {
	if err := env.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if dest.Addr == "" {
		return fmt.Errorf("%w: empty destination address", ErrInvalidEnvelope)
	}
	env.To = dest

	for attempt := 0; ; attempt++ {
		if m.closed.Load() {
			return ErrShutdown
		}

		q, err := m.acquire(ctx, dest)
		if err != nil {
			return err
		}
		if q.Enqueue(env) {
			return nil
		}

		// 查找与写入之间通道已失效
		m.registry.RemoveIf(dest, q.entry)
		m.metrics.ChannelDead()
		if attempt >= MaxSendRetries {
			logger.Warn("通道重建后仍失效", "dest", dest.ShortString(), "attempts", attempt+1)
			return &ChannelDeadError{Dest: dest, Attempts: attempt + 1}
		}
		logger.Debug("通道已失效，重建连接", "dest", dest.ShortString())
	}
}

// acquire 返回目的端的就绪队列，必要时发起或等待建连
func (m *Manager) acquire(ctx context.Context, dest types.Destination) (*Queue, error) {
	e, created := m.registry.LookupOrCreate(dest, func() *entry {
		return newBuildEntry(m, dest)
	})
	if created {
		if err := e.builder.initiate(); err != nil {
			return nil, err
		}
	}
	if e.ready() {
		return e.queue, nil
	}
	return e.builder.AwaitResult(ctx, m.config.WaitSlice)
}

// Close 关闭到目的端的连接
//
// 就绪连接被关闭；进行中的建连被取消，等待者收到 ErrBuildupCancelled。不阻塞。
func (m *Manager) Close(dest types.Destination) {
	e := m.registry.Remove(dest)
	if e == nil {
		return
	}
	if e.ready() {
		if err := e.queue.Close(); err != nil {
			logger.Debug("关闭连接失败", "dest", dest.ShortString(), "error", err)
		}
		return
	}
	e.builder.cancel(ErrBuildupCancelled)
	logger.Debug("建连已取消", "dest", dest.ShortString())
}

// Shutdown 关闭管理器
//
// 关闭所有就绪连接、监听与传输层。进行中的建连不被中止：
// 等待者在下一个时间片返回 ErrShutdown，之后完成的连接被立即关闭。
func (m *Manager) Shutdown() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.cancel()

	var err error
	ready := 0
	m.registry.Range(func(dest types.Destination, e *entry) bool {
		if e.ready() {
			ready++
			err = multierr.Append(err, e.queue.Close())
		}
		return true
	})

	m.wg.Wait()

	m.mu.Lock()
	l := m.listener
	m.listener = nil
	m.mu.Unlock()
	if l != nil {
		err = multierr.Append(err, l.Close())
	}
	err = multierr.Append(err, m.transport.Close())

	logger.Info("出站管理器已关闭", "closedConnections", ready)
	return err
}

// IsClosed 是否已关闭
func (m *Manager) IsClosed() bool {
	return m.closed.Load()
}
