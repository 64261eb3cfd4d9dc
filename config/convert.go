package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// 环境变量（均使用 OUTBOUND_ 前缀）
const (
	EnvPrefix      = "OUTBOUND_"
	EnvTransport   = "TRANSPORT"
	EnvListenAddr  = "LISTEN_ADDR"
	EnvRetryBudget = "RETRY_BUDGET"
	EnvDialTimeout = "DIAL_TIMEOUT"
	EnvIdleTimeout = "IDLE_TIMEOUT"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现在 JSON 中的字段保持默认值。
//
// 示例 JSON:
//
//	{
//	  "transport": {"type": "tcp", "dial_timeout": "5s"},
//	  "outbound": {"retry_budget": 3, "idle_timeout": "2m"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ApplyEnv 应用环境变量覆盖
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 无法解析的值返回错误。
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvPrefix + EnvTransport); v != "" {
		cfg.Transport.Type = v
	}
	if v := getenv(EnvPrefix + EnvListenAddr); v != "" {
		cfg.Outbound.ListenAddr = v
	}
	if v := getenv(EnvPrefix + EnvRetryBudget); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvRetryBudget, err)
		}
		cfg.Outbound.RetryBudget = n
	}
	if v := getenv(EnvPrefix + EnvDialTimeout); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvDialTimeout, err)
		}
		cfg.Transport.DialTimeout = d
	}
	if v := getenv(EnvPrefix + EnvIdleTimeout); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvIdleTimeout, err)
		}
		cfg.Outbound.IdleTimeout = d
	}
	return nil
}
