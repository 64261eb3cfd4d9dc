// Package interfaces 定义 go-outbound 公共接口
//
// 本文件定义 OutboundManager 接口，对应 internal/core/outbound/ 实现。
package interfaces

import (
	"context"

	"github.com/dep2p/go-outbound/pkg/types"
)

// OutboundManager 定义出站连接管理器接口
//
// 保证每个目的端最多一条物理连接：并发的 Enqueue 共享同一次建连，
// 建连失败按预算重试，已就绪连接的写路径不阻塞。
type OutboundManager interface {
	// Start 启动入站监听（委托给传输层）和出站侧后台任务
	Start(ctx context.Context, handler InboundHandler) error

	// Enqueue 把消息发送到目的端
	//
	// 仅在目的端正在建连时阻塞；建连最终失败返回终止错误，
	// Shutdown 之后立即返回 ErrShutdown。
	Enqueue(ctx context.Context, env *types.Envelope, dest types.Destination) error

	// Close 移除目的端的注册项，关闭其连接或取消进行中的建连
	Close(dest types.Destination)

	// Shutdown 关闭所有连接并释放传输层资源
	Shutdown() error
}
