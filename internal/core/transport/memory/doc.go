// Package memory 提供进程内传输
//
// 同一个 Network 上的多个 Transport 通过地址互相连接，不经过任何套接字。
// 用于单进程内的数据流水线（多个逻辑节点共享一个进程）以及测试：
//
//   - Attempts 统计每个地址的连接尝试次数
//   - FailNext / SetConnectHook 按脚本让连接失败或阻塞
//   - CloseChannels 模拟对端异步断开
//
// 通道写入在各自的写 goroutine 中按顺序同步交付给监听方的 InboundHandler。
package memory
