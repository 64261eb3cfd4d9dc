package outbound

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

// Queue 出站队列
//
// 绑定一条活跃通道。队列本身不缓冲：消息直接交给通道的写队列，
// 背压水位配置在通道上，由传输层执行。这里只维护计数与活跃时间。
type Queue struct {
	dest    types.Destination
	ch      pkgif.Channel
	clock   clock.Clock
	metrics pkgif.OutboundMetrics
	entry   *entry

	pending    atomic.Int64 // 已交给通道但尚未写出
	enqueued   atomic.Int64
	bytesSent  atomic.Int64
	lastActive atomic.Int64 // UnixNano
	writable   atomic.Bool
	idleClosed atomic.Bool
}

func newQueue(m *Manager, dest types.Destination, ch pkgif.Channel) *Queue {
	ch.SetWatermarks(m.config.LowWatermark, m.config.HighWatermark)
	q := &Queue{
		dest:    dest,
		ch:      ch,
		clock:   m.clock,
		metrics: m.metrics,
	}
	q.writable.Store(true)
	q.touch()
	return q
}

// watch 注册通道关闭回调：移除自己的就绪条目
//
// 在条目发布之后调用；通道已关闭时回调立即执行。
func (q *Queue) watch(registry *Registry) {
	q.ch.OnClose(func() {
		if registry.RemoveIf(q.dest, q.entry) {
			logger.Debug("通道关闭，移除就绪条目", "dest", q.dest.ShortString(), "idle", q.idleClosed.Load())
		}
		q.metrics.ConnectionClosed(q.idleClosed.Load())
	})
}

// Enqueue 把消息交给通道
//
// 通道已关闭时返回 false，调用方应从头重试发送路径（会触发重建）。
// 返回 true 后消息归队列所有，写出或丢弃时通过 env.Complete 通知。
func (q *Queue) Enqueue(env *types.Envelope) bool {
	if q.ch.IsClosed() {
		return false
	}

	size := env.Size()
	q.pending.Add(1)
	q.touch()

	err := q.ch.Write(env.Payload, env.Priority, func(werr error) {
		q.pending.Add(-1)
		q.touch()
		if werr == nil {
			q.bytesSent.Add(int64(size))
			q.metrics.EnvelopeSent(size)
		}
		q.checkWritable()
		env.Complete(werr)
	})
	if err != nil {
		// 写入被拒绝：消息所有权仍在调用方
		q.pending.Add(-1)
		return false
	}

	q.enqueued.Add(1)
	q.metrics.EnvelopeEnqueued(size)
	q.checkWritable()
	return true
}

// checkWritable 记录可写状态翻转
func (q *Queue) checkWritable() {
	w := q.ch.IsWritable()
	if q.writable.Swap(w) == w || q.ch.IsClosed() {
		return
	}
	if w {
		logger.Debug("出站队列恢复可写", "dest", q.dest.ShortString(), "buffered", q.ch.BufferedBytes())
	} else {
		logger.Debug("出站队列超过高水位", "dest", q.dest.ShortString(), "buffered", q.ch.BufferedBytes())
	}
}

// IsWritable 通道是否低于高水位
func (q *Queue) IsWritable() bool {
	return q.ch.IsWritable()
}

// IsClosed 通道是否已关闭
func (q *Queue) IsClosed() bool {
	return q.ch.IsClosed()
}

// Channel 返回底层通道
func (q *Queue) Channel() pkgif.Channel {
	return q.ch
}

// Pending 返回尚未写出的消息数
func (q *Queue) Pending() int64 {
	return q.pending.Load()
}

// IdleFor 返回距最后一次出站活动的时长
func (q *Queue) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, q.lastActive.Load()))
}

// Close 关闭通道
func (q *Queue) Close() error {
	return q.ch.Close()
}

// closeIdle 因空闲关闭
func (q *Queue) closeIdle() error {
	q.idleClosed.Store(true)
	return q.ch.Close()
}

func (q *Queue) touch() {
	q.lastActive.Store(q.clock.Now().UnixNano())
}
