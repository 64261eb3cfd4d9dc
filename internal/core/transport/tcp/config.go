package tcp

import (
	"time"

	"github.com/dep2p/go-outbound/config"
)

// Config TCP 传输配置
type Config struct {
	// DialTimeout 单次拨号超时
	DialTimeout time.Duration

	// KeepAlive TCP KeepAlive 周期，0 表示禁用
	KeepAlive time.Duration

	// NoDelay 禁用 Nagle 算法
	NoDelay bool

	// EnableMuxer 启用 yamux 多路复用
	EnableMuxer bool

	// MuxerKeepAliveInterval yamux 心跳间隔，0 表示禁用心跳
	MuxerKeepAliveInterval time.Duration

	// MaxFrameSize 入站单帧上限
	MaxFrameSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建 TCP 配置
func ConfigFromUnified(cfg *config.Config) Config {
	tc := config.DefaultTransportConfig()
	if cfg != nil {
		tc = cfg.Transport
	}

	c := Config{
		DialTimeout:  tc.DialTimeout.Duration(),
		NoDelay:      tc.TCP.NoDelay,
		EnableMuxer:  tc.TCP.EnableMuxer,
		MaxFrameSize: tc.TCP.MaxFrameSize,
	}
	if tc.TCP.KeepAlive {
		c.KeepAlive = tc.TCP.KeepAlivePeriod.Duration()
	}
	if tc.TCP.EnableMuxer {
		c.MuxerKeepAliveInterval = tc.TCP.MuxerKeepAliveInterval.Duration()
	}
	return c
}
