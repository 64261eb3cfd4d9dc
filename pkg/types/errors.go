package types

import "errors"

// ============================================================================
//                              目的端相关错误
// ============================================================================

var (
	// ErrEmptyEndpointID 空端点 ID
	ErrEmptyEndpointID = errors.New("empty endpoint ID")

	// ErrInvalidAddress 无效的网络地址
	ErrInvalidAddress = errors.New("invalid address")
)

// ============================================================================
//                              消息相关错误
// ============================================================================

var (
	// ErrNilEnvelope 空消息
	ErrNilEnvelope = errors.New("nil envelope")

	// ErrEmptyPayload 空负载
	ErrEmptyPayload = errors.New("empty payload")
)
