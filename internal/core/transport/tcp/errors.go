package tcp

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("tcp: transport closed")

	// ErrFrameTooLarge 入站帧超过上限
	ErrFrameTooLarge = errors.New("tcp: frame too large")
)
