package outbound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-outbound/config"
	"github.com/dep2p/go-outbound/internal/core/transport/memory"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

// TestModule_Lifecycle 测试 Fx 模块提供管理器并在停止时关闭
func TestModule_Lifecycle(t *testing.T) {
	network := memory.NewNetwork()
	receiver := memory.NewTransport(network, memory.DefaultConfig())
	defer receiver.Close()
	l, err := receiver.Listen("127.0.0.1:0", nil)
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.Outbound.RetryBudget = 5

	var (
		m   *Manager
		mgr pkgif.OutboundManager
	)
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() pkgif.Transport {
			return memory.NewTransport(network, memory.DefaultConfig())
		}),
		Module(),
		fx.Populate(&m, &mgr),
	)
	app.RequireStart()

	require.NotNil(t, m)
	assert.Same(t, m, mgr)
	assert.Equal(t, 5, m.Config().RetryBudget)

	dest := types.MustDestination(l.Addr(), "task-1")
	require.NoError(t, mgr.Enqueue(context.Background(), types.NewEnvelope([]byte("x")), dest))

	app.RequireStop()
	assert.True(t, m.IsClosed())
	assert.ErrorIs(t, mgr.Enqueue(context.Background(), types.NewEnvelope([]byte("y")), dest), ErrShutdown)
}

// TestConfigFromUnified 测试从统一配置转换
func TestConfigFromUnified(t *testing.T) {
	cfg := ConfigFromUnified(nil)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.RetryBudget)
	assert.Equal(t, 32*1024, cfg.LowWatermark)
	assert.Equal(t, 64*1024, cfg.HighWatermark)

	bad := *cfg
	bad.LowWatermark = bad.HighWatermark + 1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = *cfg
	bad.ConnectRate = 10
	bad.ConnectBurst = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}
