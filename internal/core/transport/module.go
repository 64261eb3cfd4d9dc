package transport

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-outbound/config"
	"github.com/dep2p/go-outbound/internal/core/transport/memory"
	"github.com/dep2p/go-outbound/internal/core/transport/tcp"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// Config 传输层配置
type Config struct {
	// Type 传输类型：tcp 或 memory
	Type string

	// DialTimeout 单次连接超时
	DialTimeout time.Duration

	// TCP 配置
	TCP tcp.Config
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	tc := config.DefaultTransportConfig()
	if cfg != nil {
		tc = cfg.Transport
	}
	return Config{
		Type:        tc.Type,
		DialTimeout: tc.DialTimeout.Duration(),
		TCP:         tcp.ConfigFromUnified(cfg),
	}
}

// New 按配置创建传输
//
// network 仅用于 memory 传输，nil 时创建独立的进程内网络。
func New(cfg Config, network *memory.Network) (pkgif.Transport, error) {
	switch cfg.Type {
	case config.TransportTCP, "":
		logger.Debug("创建 TCP 传输", "muxer", cfg.TCP.EnableMuxer, "dialTimeout", cfg.TCP.DialTimeout)
		return tcp.NewTransport(cfg.TCP), nil
	case config.TransportMemory:
		if network == nil {
			network = memory.NewNetwork()
		}
		logger.Debug("创建进程内传输", "dialTimeout", cfg.DialTimeout)
		return memory.NewTransport(network, memory.Config{DialTimeout: cfg.DialTimeout}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Type)
	}
}

// Params 传输层依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config  `optional:"true"`
	Network    *memory.Network `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(
			ProvideConfig,
			ProvideTransport,
		),
	)
}

// ProvideConfig 从统一配置提供传输配置
func ProvideConfig(p Params) Config {
	return ConfigFromUnified(p.UnifiedCfg)
}

// ProvideTransport 提供传输并注册关闭钩子
func ProvideTransport(lc fx.Lifecycle, cfg Config, p Params) (pkgif.Transport, error) {
	t, err := New(cfg, p.Network)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return t.Close()
		},
	})
	return t, nil
}
