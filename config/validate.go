package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，额外处理 nil。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 低水位大于高水位 -> 交换值
//   - 启用了空闲超时但回收间隔非正 -> 使用默认间隔
//   - 启用了限速但突发上限非正 -> 突发上限取 1
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if c.Outbound.LowWatermark > c.Outbound.HighWatermark {
		c.Outbound.LowWatermark, c.Outbound.HighWatermark = c.Outbound.HighWatermark, c.Outbound.LowWatermark
	}

	if c.Outbound.IdleTimeout > 0 && c.Outbound.ReapInterval <= 0 {
		c.Outbound.ReapInterval = DefaultOutboundConfig().ReapInterval
	}

	if c.Outbound.ConnectRate > 0 && c.Outbound.ConnectBurst <= 0 {
		c.Outbound.ConnectBurst = 1
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}

	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}
