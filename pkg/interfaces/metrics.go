// Package interfaces 定义 go-outbound 公共接口
//
// 本文件定义出站指标接口，对应 internal/core/metrics/ 实现。
package interfaces

// OutboundMetrics 出站连接指标记录器
//
// 所有方法必须并发安全且不阻塞。
type OutboundMetrics interface {
	// ConnectAttempt 记录一次连接尝试
	ConnectAttempt()

	// ConnectFailure 记录一次连接失败，terminal 表示重试预算已耗尽
	ConnectFailure(terminal bool)

	// BuildStarted 记录一次建连开始（building +1）
	BuildStarted()

	// BuildFinished 记录一次建连结束（building -1）
	BuildFinished()

	// ConnectionOpened 记录连接就绪（ready +1）
	ConnectionOpened()

	// ConnectionClosed 记录连接关闭（ready -1），idle 表示因空闲被回收
	ConnectionClosed(idle bool)

	// EnvelopeEnqueued 记录一条消息交给传输层
	EnvelopeEnqueued(bytes int)

	// EnvelopeSent 记录一条消息已写出
	EnvelopeSent(bytes int)

	// ChannelDead 记录一次写入时发现通道已失效
	ChannelDead()
}

// NoopOutboundMetrics 空实现
type NoopOutboundMetrics struct{}

var _ OutboundMetrics = NoopOutboundMetrics{}

func (NoopOutboundMetrics) ConnectAttempt()       {}
func (NoopOutboundMetrics) ConnectFailure(bool)   {}
func (NoopOutboundMetrics) BuildStarted()         {}
func (NoopOutboundMetrics) BuildFinished()        {}
func (NoopOutboundMetrics) ConnectionOpened()     {}
func (NoopOutboundMetrics) ConnectionClosed(bool) {}
func (NoopOutboundMetrics) EnvelopeEnqueued(int)  {}
func (NoopOutboundMetrics) EnvelopeSent(int)      {}
func (NoopOutboundMetrics) ChannelDead()          {}
