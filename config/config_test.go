package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	// 默认配置有效
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, TransportTCP, cfg.Transport.Type)
	assert.Equal(t, 3, cfg.Outbound.RetryBudget)
	assert.Equal(t, 100*time.Millisecond, cfg.Outbound.WaitSlice.Duration())
	assert.True(t, cfg.Transport.TCP.EnableMuxer)
}

// TestTransportConfig 测试传输配置
func TestTransportConfig(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		cfg := DefaultTransportConfig().WithType("quic")
		assert.Error(t, cfg.Validate())
	})

	t.Run("Memory", func(t *testing.T) {
		cfg := DefaultTransportConfig().WithType(TransportMemory)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("InvalidDialTimeout", func(t *testing.T) {
		cfg := DefaultTransportConfig().WithDialTimeout(0)
		assert.Error(t, cfg.Validate())
	})

	t.Run("InvalidFrameSize", func(t *testing.T) {
		cfg := DefaultTransportConfig()
		cfg.TCP.MaxFrameSize = 0
		assert.Error(t, cfg.Validate())
	})
}

// TestOutboundConfig 测试出站配置
func TestOutboundConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OutboundConfig)
		wantErr bool
	}{
		{"default", func(*OutboundConfig) {}, false},
		{"zero budget", func(c *OutboundConfig) { c.RetryBudget = 0 }, false},
		{"negative budget", func(c *OutboundConfig) { c.RetryBudget = -1 }, true},
		{"zero wait slice", func(c *OutboundConfig) { c.WaitSlice = 0 }, true},
		{"inverted watermarks", func(c *OutboundConfig) { c.LowWatermark = c.HighWatermark + 1 }, true},
		{"idle disabled", func(c *OutboundConfig) { c.IdleTimeout = 0; c.ReapInterval = 0 }, false},
		{"idle without reap", func(c *OutboundConfig) { c.ReapInterval = 0 }, true},
		{"rate without burst", func(c *OutboundConfig) { c.ConnectRate = 10 }, true},
		{"rate with burst", func(c *OutboundConfig) { c.ConnectRate = 10; c.ConnectBurst = 2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultOutboundConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestFromJSON 测试从 JSON 加载
func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"transport": {"type": "memory", "dial_timeout": "2s"},
		"outbound": {"retry_budget": 5, "idle_timeout": "1m", "listen_addr": "127.0.0.1:7000"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, TransportMemory, cfg.Transport.Type)
	assert.Equal(t, 2*time.Second, cfg.Transport.DialTimeout.Duration())
	assert.Equal(t, 5, cfg.Outbound.RetryBudget)
	assert.Equal(t, time.Minute, cfg.Outbound.IdleTimeout.Duration())
	assert.Equal(t, "127.0.0.1:7000", cfg.Outbound.ListenAddr)

	// 未出现的字段保持默认值
	assert.Equal(t, DefaultOutboundConfig().HighWatermark, cfg.Outbound.HighWatermark)
	assert.NoError(t, cfg.Validate())
}

// TestFromJSON_Invalid 测试非法 JSON
func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{"outbound": {"wait_slice": "soon"}}`))
	assert.Error(t, err)
}

// TestApplyEnv 测试环境变量覆盖
func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPrefix + EnvTransport:   TransportMemory,
		EnvPrefix + EnvListenAddr:  "127.0.0.1:9000",
		EnvPrefix + EnvRetryBudget: "7",
		EnvPrefix + EnvIdleTimeout: "10s",
	}

	cfg := NewConfig()
	require.NoError(t, ApplyEnv(cfg, func(k string) string { return env[k] }))

	assert.Equal(t, TransportMemory, cfg.Transport.Type)
	assert.Equal(t, "127.0.0.1:9000", cfg.Outbound.ListenAddr)
	assert.Equal(t, 7, cfg.Outbound.RetryBudget)
	assert.Equal(t, 10*time.Second, cfg.Outbound.IdleTimeout.Duration())

	t.Run("BadNumber", func(t *testing.T) {
		bad := func(k string) string {
			if k == EnvPrefix+EnvRetryBudget {
				return "many"
			}
			return ""
		}
		assert.Error(t, ApplyEnv(NewConfig(), bad))
	})
}

// TestValidateAndFix 测试自动修复
func TestValidateAndFix(t *testing.T) {
	cfg := NewConfig()
	cfg.Outbound.LowWatermark = 100
	cfg.Outbound.HighWatermark = 10
	cfg.Outbound.ConnectRate = 5

	fixed, err := ValidateAndFix(cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, fixed.Outbound.LowWatermark)
	assert.Equal(t, 100, fixed.Outbound.HighWatermark)
	assert.Equal(t, 1, fixed.Outbound.ConnectBurst)

	assert.Error(t, ValidateAll(nil))
	assert.Panics(t, func() {
		bad := NewConfig()
		bad.Outbound.WaitSlice = 0
		MustValidate(bad)
	})
}

// TestDuration_JSON 测试 Duration 编解码
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1500ms"`)))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())

	out, err := Duration(2 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))

	_, err = ParseDuration("later")
	assert.Error(t, err)
}
