// Package interfaces 定义 go-outbound 的公共接口
//
// 一个接口文件对应一个实现目录：
//   - transport.go - 传输层（internal/core/transport/tcp、internal/core/transport/memory）
//   - outbound.go  - 出站连接管理器（internal/core/outbound）
//   - metrics.go   - 出站指标（internal/core/metrics）
//
// 管理器只依赖这里的接口，不直接依赖任何传输实现。
package interfaces
