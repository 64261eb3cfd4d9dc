package types

import (
	"time"

	"github.com/google/uuid"
)

// Priority 消息优先级
type Priority int

const (
	// PriorityNormal 普通优先级
	PriorityNormal Priority = iota
	// PriorityHigh 高优先级，在传输层写队列中排在普通消息之前
	PriorityHigh
)

// String 返回优先级字符串
func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Envelope 出站消息信封
//
// 消息本体（已编码的字节）加最少的路由元数据。
// 调用方在交给管理器之前拥有它；Enqueue 成功后所有权转移给出站队列，
// 写入传输层或发送失败后即被消费，之后调用方不应再修改 Payload。
type Envelope struct {
	// ID 消息 ID（UUID）
	ID string

	// To 目的端，由管理器在 Enqueue 时填写
	To Destination

	// Priority 优先级
	Priority Priority

	// Payload 已编码的消息字节
	Payload []byte

	// CreatedAt 创建时间
	CreatedAt time.Time

	// done 写入完成（或丢弃）回调
	done func(error)
}

// EnvelopeOption 信封选项
type EnvelopeOption func(*Envelope)

// WithPriority 设置优先级
func WithPriority(p Priority) EnvelopeOption {
	return func(e *Envelope) {
		e.Priority = p
	}
}

// WithID 指定消息 ID（默认生成 UUID）
func WithID(id string) EnvelopeOption {
	return func(e *Envelope) {
		e.ID = id
	}
}

// WithDone 设置写入完成回调
//
// 回调在传输层把消息写出（err == nil）或丢弃（err != nil）时调用，
// 调用发生在传输层的 goroutine 中，不应阻塞。
func WithDone(fn func(error)) EnvelopeOption {
	return func(e *Envelope) {
		e.done = fn
	}
}

// NewEnvelope 创建消息信封
func NewEnvelope(payload []byte, opts ...EnvelopeOption) *Envelope {
	e := &Envelope{
		ID:        uuid.New().String(),
		Priority:  PriorityNormal,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Size 返回负载字节数
func (e *Envelope) Size() int {
	return len(e.Payload)
}

// Validate 校验信封
func (e *Envelope) Validate() error {
	if e == nil {
		return ErrNilEnvelope
	}
	if len(e.Payload) == 0 {
		return ErrEmptyPayload
	}
	return nil
}

// Complete 通知写入结果
//
// 由出站队列在传输层回调时调用，未设置回调时为空操作。
func (e *Envelope) Complete(err error) {
	if e.done != nil {
		e.done(err)
	}
}
