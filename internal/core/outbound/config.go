package outbound

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-outbound/config"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
)

// MaxSendRetries 通道失效后最多重建次数
const MaxSendRetries = 1

// Config 出站管理器配置
type Config struct {
	// ListenAddr 入站监听地址，为空时 Start 不监听
	ListenAddr string

	// RetryBudget 首次失败后的重试次数
	RetryBudget int

	// WaitSlice 等待建连结果的时间片
	WaitSlice time.Duration

	// LowWatermark / HighWatermark 通道背压水位（字节）
	LowWatermark  int
	HighWatermark int

	// IdleTimeout 空闲超时，0 表示不回收
	IdleTimeout time.Duration

	// ReapInterval 空闲检查间隔
	ReapInterval time.Duration

	// ConnectRate 每秒连接尝试上限，0 表示不限制
	ConnectRate float64

	// ConnectBurst 连接尝试突发上限
	ConnectBurst int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建出站配置
func ConfigFromUnified(cfg *config.Config) *Config {
	oc := config.DefaultOutboundConfig()
	if cfg != nil {
		oc = cfg.Outbound
	}
	return &Config{
		ListenAddr:    oc.ListenAddr,
		RetryBudget:   oc.RetryBudget,
		WaitSlice:     oc.WaitSlice.Duration(),
		LowWatermark:  oc.LowWatermark,
		HighWatermark: oc.HighWatermark,
		IdleTimeout:   oc.IdleTimeout.Duration(),
		ReapInterval:  oc.ReapInterval.Duration(),
		ConnectRate:   oc.ConnectRate,
		ConnectBurst:  oc.ConnectBurst,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch {
	case c.RetryBudget < 0:
		return fmt.Errorf("%w: negative retry budget", ErrInvalidConfig)
	case c.WaitSlice <= 0:
		return fmt.Errorf("%w: wait slice must be positive", ErrInvalidConfig)
	case c.LowWatermark < 0 || c.HighWatermark <= 0 || c.LowWatermark > c.HighWatermark:
		return fmt.Errorf("%w: watermarks low=%d high=%d", ErrInvalidConfig, c.LowWatermark, c.HighWatermark)
	case c.IdleTimeout < 0:
		return fmt.Errorf("%w: negative idle timeout", ErrInvalidConfig)
	case c.IdleTimeout > 0 && c.ReapInterval <= 0:
		return fmt.Errorf("%w: reap interval must be positive", ErrInvalidConfig)
	case c.ConnectRate < 0:
		return fmt.Errorf("%w: negative connect rate", ErrInvalidConfig)
	case c.ConnectRate > 0 && c.ConnectBurst <= 0:
		return fmt.Errorf("%w: connect burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// Option 管理器选项
type Option func(*Manager) error

// WithConfig 设置配置
func WithConfig(cfg *Config) Option {
	return func(m *Manager) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidConfig)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		m.config = cfg
		return nil
	}
}

// WithMetrics 设置指标记录器
func WithMetrics(metrics pkgif.OutboundMetrics) Option {
	return func(m *Manager) error {
		if metrics != nil {
			m.metrics = metrics
		}
		return nil
	}
}

// WithClock 设置时钟（空闲回收使用）
func WithClock(clk clock.Clock) Option {
	return func(m *Manager) error {
		if clk != nil {
			m.clock = clk
		}
		return nil
	}
}

func newLimiter(cfg *Config) *rate.Limiter {
	if cfg.ConnectRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.ConnectRate), cfg.ConnectBurst)
}
