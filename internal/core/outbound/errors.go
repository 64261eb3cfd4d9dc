package outbound

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-outbound/pkg/types"
)

var (
	// ErrShutdown 管理器已关闭
	ErrShutdown = errors.New("outbound: manager shut down")

	// ErrBuildupCancelled 建连被 Close(dest) 取消
	ErrBuildupCancelled = errors.New("outbound: connection buildup cancelled")

	// ErrRaceCondition 同一建连被发起两次（内部不变量被破坏）
	ErrRaceCondition = errors.New("outbound: race condition: connect initiated twice")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("outbound: already started")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("outbound: invalid config")

	// ErrInvalidEnvelope 无效消息或目的端
	ErrInvalidEnvelope = errors.New("outbound: invalid envelope")

	// ErrTerminalConnect 重试预算耗尽
	ErrTerminalConnect = errors.New("outbound: connect retries exhausted")

	// ErrChannelDead 通道在写入时已失效且重建后仍失效
	ErrChannelDead = errors.New("outbound: channel dead")
)

// ConnectError 建连终态失败
//
// 广播给等待同一次建连的所有调用方。errors.Is(err, ErrTerminalConnect) 为 true，
// Unwrap 返回最后一次尝试的错误。
type ConnectError struct {
	Dest     types.Destination
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("outbound: connect to %s failed after %d attempts: %v", e.Dest, e.Attempts, e.Err)
}

// Unwrap 返回最后一次尝试的错误
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Is 匹配 ErrTerminalConnect
func (e *ConnectError) Is(target error) bool {
	return target == ErrTerminalConnect
}

// ChannelDeadError 重建后的通道仍然失效
type ChannelDeadError struct {
	Dest     types.Destination
	Attempts int
}

func (e *ChannelDeadError) Error() string {
	return fmt.Sprintf("outbound: channel to %s dead after %d attempts", e.Dest, e.Attempts)
}

// Is 匹配 ErrChannelDead
func (e *ChannelDeadError) Is(target error) bool {
	return target == ErrChannelDead
}
