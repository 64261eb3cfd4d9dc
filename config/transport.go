package config

import (
	"errors"
	"fmt"
	"time"
)

// 传输类型
const (
	// TransportTCP TCP 传输（可选 yamux 多路复用）
	TransportTCP = "tcp"
	// TransportMemory 进程内传输（单进程流水线与测试）
	TransportMemory = "memory"
)

// TransportConfig 传输层配置
type TransportConfig struct {
	// Type 传输类型：tcp 或 memory
	Type string `json:"type"`

	// DialTimeout 单次连接尝试的超时
	DialTimeout Duration `json:"dial_timeout"`

	// TCP 配置
	TCP TCPConfig `json:"tcp,omitempty"`
}

// TCPConfig TCP 传输配置
type TCPConfig struct {
	// KeepAlive 是否启用 TCP KeepAlive
	KeepAlive bool `json:"keep_alive"`

	// KeepAlivePeriod KeepAlive 周期
	KeepAlivePeriod Duration `json:"keep_alive_period"`

	// NoDelay 是否禁用 Nagle 算法
	NoDelay bool `json:"no_delay"`

	// EnableMuxer 是否在 TCP 连接上启用 yamux 多路复用
	EnableMuxer bool `json:"enable_muxer"`

	// MuxerKeepAliveInterval yamux 心跳间隔
	MuxerKeepAliveInterval Duration `json:"muxer_keep_alive_interval"`

	// MaxFrameSize 单帧最大字节数（入站解码时校验）
	MaxFrameSize int `json:"max_frame_size"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Type:        TransportTCP,               // 默认 TCP
		DialTimeout: Duration(10 * time.Second), // 单次连接超时：10 秒
		TCP: TCPConfig{
			KeepAlive:              true,                       // 启用 TCP KeepAlive：检测死连接
			KeepAlivePeriod:        Duration(15 * time.Second), // KeepAlive 间隔：15 秒
			NoDelay:                true,                       // 禁用 Nagle 算法：减少延迟
			EnableMuxer:            true,                       // 一条 TCP 连接承载多路流
			MuxerKeepAliveInterval: Duration(30 * time.Second), // yamux 心跳：30 秒
			MaxFrameSize:           16 * 1024 * 1024,           // 单帧上限：16 MB
		},
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	switch c.Type {
	case TransportTCP, TransportMemory:
	default:
		return fmt.Errorf("unknown transport type %q", c.Type)
	}

	if c.DialTimeout <= 0 {
		return errors.New("dial timeout must be positive")
	}

	if c.Type == TransportTCP {
		if c.TCP.KeepAlive && c.TCP.KeepAlivePeriod <= 0 {
			return errors.New("TCP keep alive period must be positive when enabled")
		}
		if c.TCP.EnableMuxer && c.TCP.MuxerKeepAliveInterval <= 0 {
			return errors.New("muxer keep alive interval must be positive when enabled")
		}
		if c.TCP.MaxFrameSize <= 0 {
			return errors.New("max frame size must be positive")
		}
	}

	return nil
}

// WithType 设置传输类型
func (c TransportConfig) WithType(typ string) TransportConfig {
	c.Type = typ
	return c
}

// WithDialTimeout 设置拨号超时
func (c TransportConfig) WithDialTimeout(timeout time.Duration) TransportConfig {
	c.DialTimeout = Duration(timeout)
	return c
}

// WithMuxer 设置是否启用多路复用
func (c TransportConfig) WithMuxer(enabled bool) TransportConfig {
	c.TCP.EnableMuxer = enabled
	return c
}
