package channel

import "errors"

var (
	// ErrClosed 通道已关闭
	ErrClosed = errors.New("channel: closed")
)
