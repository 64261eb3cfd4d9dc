package outbound

import (
	core "github.com/dep2p/go-outbound/internal/core/outbound"
	"github.com/dep2p/go-outbound/internal/core/transport/memory"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// Destination 目的端身份（地址 + 逻辑端点 ID）
	Destination = types.Destination

	// Envelope 出站消息信封
	Envelope = types.Envelope

	// EnvelopeOption 信封选项
	EnvelopeOption = types.EnvelopeOption

	// Priority 消息优先级
	Priority = types.Priority

	// InboundHandler 入站消息处理函数
	InboundHandler = pkgif.InboundHandler

	// Stats 出站管理器快照
	Stats = core.Stats

	// DestinationStats 单个目的端的状态
	DestinationStats = core.DestinationStats

	// MemoryNetwork 进程内网络，配合 WithMemoryNetwork 使用
	MemoryNetwork = memory.Network
)

// 优先级
const (
	PriorityNormal = types.PriorityNormal
	PriorityHigh   = types.PriorityHigh
)

var (
	// NewDestination 创建并校验目的端身份
	NewDestination = types.NewDestination

	// NewEnvelope 创建消息信封
	NewEnvelope = types.NewEnvelope

	// WithPriority 设置消息优先级
	WithPriority = types.WithPriority

	// WithDone 设置消息写入完成回调
	WithDone = types.WithDone

	// NewMemoryNetwork 创建进程内网络
	NewMemoryNetwork = memory.NewNetwork
)
