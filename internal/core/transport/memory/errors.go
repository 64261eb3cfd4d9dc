package memory

import "errors"

var (
	// ErrConnectionRefused 地址上没有监听者
	ErrConnectionRefused = errors.New("memory: connection refused")

	// ErrConnectionReset 对端已关闭
	ErrConnectionReset = errors.New("memory: connection reset by peer")

	// ErrTransportClosed 传输层已关闭
	ErrTransportClosed = errors.New("memory: transport closed")

	// ErrAddressInUse 地址已被占用
	ErrAddressInUse = errors.New("memory: address already in use")

	// ErrInjected 脚本注入的连接失败
	ErrInjected = errors.New("memory: injected connect failure")
)
