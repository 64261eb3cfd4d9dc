package outbound

import (
	"errors"

	core "github.com/dep2p/go-outbound/internal/core/outbound"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 节点生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ────────────────────────────────────────────────────────────────────────
	// 出站错误（与内部实现共享，可直接用 errors.Is 判断）
	// ────────────────────────────────────────────────────────────────────────

	// ErrShutdown 管理器已关闭，发送立即失败
	ErrShutdown = core.ErrShutdown

	// ErrTerminalConnect 建连重试耗尽
	ErrTerminalConnect = core.ErrTerminalConnect

	// ErrChannelDead 通道重建后仍失效
	ErrChannelDead = core.ErrChannelDead

	// ErrBuildupCancelled 建连被 Close 取消
	ErrBuildupCancelled = core.ErrBuildupCancelled

	// ErrInvalidEnvelope 无效消息或目的端
	ErrInvalidEnvelope = core.ErrInvalidEnvelope
)

// ConnectError 建连终态失败，包含目的端、尝试次数与最后一次错误
type ConnectError = core.ConnectError

// ChannelDeadError 通道重建后仍失效
type ChannelDeadError = core.ChannelDeadError
