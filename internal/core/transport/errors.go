package transport

import "errors"

var (
	// ErrUnknownTransport 未知的传输类型
	ErrUnknownTransport = errors.New("transport: unknown transport type")
)
