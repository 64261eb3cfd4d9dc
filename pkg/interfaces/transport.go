// Package interfaces 定义 go-outbound 公共接口
//
// 本文件定义 Transport 接口，抽象底层传输（套接字、事件线程、写缓冲）。
package interfaces

import (
	"context"

	"github.com/dep2p/go-outbound/pkg/types"
)

// ConnectCallback 异步连接结果回调
//
// 成功时 ch != nil 且 err == nil；失败时 ch == nil 且 err != nil。
// 回调在传输层自己的 goroutine 中执行，每次 Connect 恰好回调一次。
type ConnectCallback func(ch Channel, err error)

// InboundHandler 入站消息分发回调
//
// from 为对端地址，payload 为一帧完整的消息字节。
type InboundHandler func(from string, payload []byte)

// Transport 定义传输层接口
type Transport interface {
	// Connect 异步连接到指定地址
	//
	// 立即返回，结果通过 done 回调交付。单次连接尝试的超时由传输层自己控制。
	Connect(ctx context.Context, addr string, done ConnectCallback)

	// Listen 在指定地址监听入站连接，收到的消息交给 handler
	Listen(addr string, handler InboundHandler) (Listener, error)

	// Close 关闭传输层，释放共享资源
	Close() error
}

// Listener 定义监听器接口
type Listener interface {
	// Addr 返回实际监听地址
	Addr() string

	// Close 关闭监听器
	Close() error
}

// Channel 定义已建立的出站通道
//
// Channel 自带写缓冲：Write 永不阻塞调用方，数据由传输层的写 goroutine 发出。
type Channel interface {
	// ID 返回通道 ID
	ID() string

	// RemoteAddr 返回对端地址
	RemoteAddr() string

	// Write 非阻塞写入一帧数据
	//
	// 通道已关闭时返回错误且不会调用 done；否则数据进入写缓冲并返回 nil，
	// 之后 done 恰好被调用一次（写出成功为 nil，丢弃为错误）。
	Write(payload []byte, prio types.Priority, done func(error)) error

	// SetWatermarks 设置背压水位（字节）
	//
	// 缓冲字节数超过 high 时通道变为不可写，回落到 low 以下时恢复可写。
	SetWatermarks(low, high int)

	// IsWritable 返回当前是否可写（缓冲未超过高水位）
	IsWritable() bool

	// BufferedBytes 返回写缓冲中尚未写出的字节数
	BufferedBytes() int

	// OnClose 注册关闭回调；通道已关闭时立即调用
	OnClose(fn func())

	// Close 关闭通道
	Close() error

	// IsClosed 检查是否已关闭
	IsClosed() bool
}
