package outbound

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-outbound/config"
	core "github.com/dep2p/go-outbound/internal/core/outbound"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/lib/log"
)

var logger = log.Logger("outbound")

const (
	// initializeTimeout 初始化超时（Fx App Start）
	initializeTimeout = 30 * time.Second

	// stopTimeout 停止超时（Fx App Stop）
	stopTimeout = 10 * time.Second
)

// Node 出站节点
//
// 封装传输层、出站连接管理器与指标，由 Fx 统一装配和停止。
type Node struct {
	config *config.Config
	app    *fx.App

	// 由 Fx 注入
	manager *core.Manager
	metrics pkgif.OutboundMetrics

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建节点（不启动）
//
// 使用示例：
//
//	node, err := outbound.New(
//	    outbound.WithListenAddr("127.0.0.1:7000"),
//	    outbound.WithRetryBudget(5),
//	)
//	if err != nil { ... }
//	if err := node.Start(ctx, handler); err != nil { ... }
//	defer node.Shutdown()
func New(opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	node := &Node{config: cfg.config}
	app, err := buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}
	node.app = app
	return node, nil
}

// Start 启动节点
//
// 先启动 Fx 应用，再启动出站管理器（入站监听与空闲回收）。
// handler 接收入站消息，未配置监听地址时可以为 nil。
func (n *Node) Start(ctx context.Context, handler InboundHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	if err := n.app.Start(initCtx); err != nil {
		logger.Error("节点初始化失败", "error", err)
		return fmt.Errorf("initialize failed: %w", err)
	}

	if err := n.manager.Start(ctx, handler); err != nil {
		logger.Error("出站管理器启动失败", "error", err)
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		_ = n.app.Stop(stopCtx)
		n.closed = true
		return fmt.Errorf("start manager: %w", err)
	}

	n.started = true
	logger.Info("节点启动成功", "listen", n.manager.ListenAddr(), "version", Version)
	return nil
}

// Enqueue 把消息发送到目的端
func (n *Node) Enqueue(ctx context.Context, env *Envelope, dest Destination) error {
	m, err := n.running()
	if err != nil {
		return err
	}
	return m.Enqueue(ctx, env, dest)
}

// Send 构造消息并发送到 id@addr
func (n *Node) Send(ctx context.Context, addr, id string, payload []byte, opts ...EnvelopeOption) error {
	dest, err := NewDestination(addr, id)
	if err != nil {
		return err
	}
	return n.Enqueue(ctx, NewEnvelope(payload, opts...), dest)
}

// Close 关闭到目的端的连接（或取消进行中的建连）
func (n *Node) Close(dest Destination) {
	if m, err := n.running(); err == nil {
		m.Close(dest)
	}
}

// Shutdown 停止节点
//
// 停止顺序与装配顺序相反：出站管理器 → 传输层。重复调用返回 nil。
func (n *Node) Shutdown() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if !n.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		logger.Warn("节点停止出错", "error", err)
		return err
	}
	logger.Info("节点已停止")
	return nil
}

// Stats 返回出站管理器快照
func (n *Node) Stats() Stats {
	if n.manager == nil {
		return Stats{}
	}
	return n.manager.Stats()
}

// ListenAddr 返回实际监听地址
func (n *Node) ListenAddr() string {
	if n.manager == nil {
		return ""
	}
	return n.manager.ListenAddr()
}

// Config 返回节点配置
func (n *Node) Config() *config.Config {
	return n.config
}

// Metrics 返回指标记录器（指标禁用时为空实现）
func (n *Node) Metrics() pkgif.OutboundMetrics {
	return n.metrics
}

// IsStarted 节点是否在运行
func (n *Node) IsStarted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.started && !n.closed
}

func (n *Node) running() (*core.Manager, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrNodeClosed
	}
	if !n.started {
		return nil, ErrNotStarted
	}
	return n.manager, nil
}
