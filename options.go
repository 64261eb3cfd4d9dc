package outbound

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-outbound/config"
	"github.com/dep2p/go-outbound/internal/core/transport/memory"
)

// Option 节点选项
type Option func(*nodeConfig) error

// nodeConfig 内部选项结构
type nodeConfig struct {
	// 统一配置
	config *config.Config

	// 进程内网络（memory 传输时多个节点共享）
	network *memory.Network

	// 指标注册器，nil 时使用私有 registry
	registerer prometheus.Registerer

	// 时钟（空闲回收）
	clock clock.Clock

	// 用户扩展的 Fx 选项
	userFxOptions []fx.Option
}

func newNodeConfig() *nodeConfig {
	return &nodeConfig{
		config: config.NewConfig(),
	}
}

// WithConfig 使用完整配置（覆盖之前的选项）
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		c.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *nodeConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.config = cfg
		return nil
	}
}

// WithListenAddr 设置入站监听地址
func WithListenAddr(addr string) Option {
	return func(c *nodeConfig) error {
		c.config.Outbound = c.config.Outbound.WithListenAddr(addr)
		return nil
	}
}

// WithTransport 设置传输类型（tcp / memory）
func WithTransport(typ string) Option {
	return func(c *nodeConfig) error {
		c.config.Transport = c.config.Transport.WithType(typ)
		return nil
	}
}

// WithMemoryNetwork 使用进程内传输并加入指定网络
//
// 同一网络上的节点可以互相发送，适合单进程流水线与测试。
func WithMemoryNetwork(network *MemoryNetwork) Option {
	return func(c *nodeConfig) error {
		if network == nil {
			return fmt.Errorf("memory network cannot be nil")
		}
		c.network = network
		c.config.Transport = c.config.Transport.WithType(config.TransportMemory)
		return nil
	}
}

// WithDialTimeout 设置单次连接超时
func WithDialTimeout(d time.Duration) Option {
	return func(c *nodeConfig) error {
		c.config.Transport = c.config.Transport.WithDialTimeout(d)
		return nil
	}
}

// WithRetryBudget 设置建连重试预算
func WithRetryBudget(n int) Option {
	return func(c *nodeConfig) error {
		c.config.Outbound = c.config.Outbound.WithRetryBudget(n)
		return nil
	}
}

// WithIdleTimeout 设置空闲超时（0 表示不回收）
func WithIdleTimeout(d time.Duration) Option {
	return func(c *nodeConfig) error {
		c.config.Outbound = c.config.Outbound.WithIdleTimeout(d)
		return nil
	}
}

// WithMetricsRegisterer 把指标注册到指定的 Prometheus 注册器
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *nodeConfig) error {
		c.registerer = reg
		c.config.Metrics.Enable = true
		return nil
	}
}

// WithClock 设置时钟（测试中用于驱动空闲回收）
func WithClock(clk clock.Clock) Option {
	return func(c *nodeConfig) error {
		c.clock = clk
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
