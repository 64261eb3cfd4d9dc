// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载，支持 OUTBOUND_* 环境变量覆盖。
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Outbound.RetryBudget = 5
//
//	// 从 JSON 文件加载
//	cfg, err := config.LoadFile("outbound.json")
package config

// Config 是 go-outbound 的完整配置结构
//
//   - Transport: 传输层（TCP / 进程内内存传输）
//   - Outbound: 出站连接管理（重试预算、等待片、空闲回收、水位）
//   - Metrics: Prometheus 指标
type Config struct {
	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Outbound 出站连接管理配置
	Outbound OutboundConfig `json:"outbound"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Transport: DefaultTransportConfig(),
		Outbound:  DefaultOutboundConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Outbound.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}

// Clone 返回配置的深拷贝
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
