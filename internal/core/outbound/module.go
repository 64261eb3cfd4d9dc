package outbound

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-outbound/config"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
)

// Params 出站管理器依赖参数
type Params struct {
	fx.In

	Transport  pkgif.Transport
	UnifiedCfg *config.Config        `optional:"true"`
	Metrics    pkgif.OutboundMetrics `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// Output 出站管理器模块输出
type Output struct {
	fx.Out

	Manager         *Manager
	OutboundManager pkgif.OutboundManager
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("outbound",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 从参数创建出站管理器
func ProvideManager(p Params) (Output, error) {
	m, err := NewManager(p.Transport,
		WithConfig(ConfigFromUnified(p.UnifiedCfg)),
		WithMetrics(p.Metrics),
		WithClock(p.Clock),
	)
	if err != nil {
		return Output{}, err
	}
	return Output{Manager: m, OutboundManager: m}, nil
}

// registerLifecycle 应用停止时关闭管理器
//
// Start 需要入站处理函数，由上层在应用启动后调用。
func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return m.Shutdown()
		},
	})
}
