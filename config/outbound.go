package config

import (
	"errors"
	"time"
)

// OutboundConfig 出站连接管理配置
//
// 配置建连与出站队列的策略：
//   - 建连重试预算（不做退避，单次尝试由传输层超时约束）
//   - 等待建连结果的时间片（时间片之间检查关闭与取消）
//   - 背压水位（字节，交给传输层执行）
//   - 空闲回收
type OutboundConfig struct {
	// ListenAddr 入站监听地址，为空时不监听
	ListenAddr string `json:"listen_addr,omitempty"`

	// RetryBudget 首次失败后允许的重试次数
	// 总尝试次数最多为 RetryBudget + 1
	RetryBudget int `json:"retry_budget"`

	// WaitSlice 等待建连结果的单个时间片
	WaitSlice Duration `json:"wait_slice"`

	// LowWatermark 低水位（字节），缓冲回落到此值以下恢复可写
	LowWatermark int `json:"low_watermark"`

	// HighWatermark 高水位（字节），缓冲超过此值暂停可写
	HighWatermark int `json:"high_watermark"`

	// IdleTimeout 空闲超时，超时无出站流量的连接会被关闭
	// 0 表示不回收
	IdleTimeout Duration `json:"idle_timeout"`

	// ReapInterval 空闲检查间隔
	ReapInterval Duration `json:"reap_interval"`

	// ConnectRate 每秒最多发起的连接尝试数，0 表示不限制
	ConnectRate float64 `json:"connect_rate,omitempty"`

	// ConnectBurst 连接尝试突发上限（ConnectRate > 0 时生效）
	ConnectBurst int `json:"connect_burst,omitempty"`
}

// DefaultOutboundConfig 返回默认出站配置
func DefaultOutboundConfig() OutboundConfig {
	return OutboundConfig{
		// ════════════════════════════════════════════════════════════════════
		// 建连策略
		// ════════════════════════════════════════════════════════════════════
		RetryBudget: 3,                                // 重试预算：3 次（最多 4 次尝试）
		WaitSlice:   Duration(100 * time.Millisecond), // 等待时间片：100ms
		ConnectRate: 0,                                // 不限速

		// ════════════════════════════════════════════════════════════════════
		// 背压水位
		// ════════════════════════════════════════════════════════════════════
		LowWatermark:  32 * 1024, // 低水位：32 KB
		HighWatermark: 64 * 1024, // 高水位：64 KB

		// ════════════════════════════════════════════════════════════════════
		// 空闲回收
		// ════════════════════════════════════════════════════════════════════
		IdleTimeout:  Duration(5 * time.Minute),  // 空闲 5 分钟关闭连接
		ReapInterval: Duration(30 * time.Second), // 每 30 秒检查一次
	}
}

// Validate 验证出站配置
func (c OutboundConfig) Validate() error {
	if c.RetryBudget < 0 {
		return errors.New("retry budget must be non-negative")
	}
	if c.WaitSlice <= 0 {
		return errors.New("wait slice must be positive")
	}
	if c.LowWatermark < 0 || c.HighWatermark <= 0 {
		return errors.New("watermarks must be positive")
	}
	if c.LowWatermark > c.HighWatermark {
		return errors.New("low watermark must not exceed high watermark")
	}
	if c.IdleTimeout < 0 {
		return errors.New("idle timeout must be non-negative")
	}
	if c.IdleTimeout > 0 && c.ReapInterval <= 0 {
		return errors.New("reap interval must be positive when idle timeout is set")
	}
	if c.ConnectRate < 0 {
		return errors.New("connect rate must be non-negative")
	}
	if c.ConnectRate > 0 && c.ConnectBurst <= 0 {
		return errors.New("connect burst must be positive when connect rate is set")
	}
	return nil
}

// WithListenAddr 设置监听地址
func (c OutboundConfig) WithListenAddr(addr string) OutboundConfig {
	c.ListenAddr = addr
	return c
}

// WithRetryBudget 设置重试预算
func (c OutboundConfig) WithRetryBudget(n int) OutboundConfig {
	c.RetryBudget = n
	return c
}

// WithIdleTimeout 设置空闲超时
func (c OutboundConfig) WithIdleTimeout(d time.Duration) OutboundConfig {
	c.IdleTimeout = Duration(d)
	return c
}
