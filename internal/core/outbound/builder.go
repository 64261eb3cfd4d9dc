package outbound

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

// BuildState 建连状态
type BuildState int32

const (
	// BuildPending 首次尝试进行中
	BuildPending BuildState = iota
	// BuildRetrying 之前的尝试失败，已发起新的尝试
	BuildRetrying
	// BuildSucceeded 连接成功（终态）
	BuildSucceeded
	// BuildFailed 重试耗尽或被取消（终态）
	BuildFailed
)

// String 返回状态字符串
func (s BuildState) String() string {
	switch s {
	case BuildPending:
		return "pending"
	case BuildRetrying:
		return "retrying"
	case BuildSucceeded:
		return "succeeded"
	case BuildFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Builder 一次建连过程
//
// 同一个 Builder 跨越所有重试：等待者只看到一个逻辑结果。
// 结果只设置一次，done 关闭后 queue/err 不再变化。
type Builder struct {
	dest  types.Destination
	m     *Manager
	entry *entry

	budget    atomic.Int32
	attempts  atomic.Int32
	state     atomic.Int32
	initiated atomic.Bool
	waiters   atomic.Int32

	once  sync.Once
	done  chan struct{}
	queue *Queue
	err   error

	// finishedEarly 结果在 initiate 之前已设置，done 关闭后只读
	finishedEarly bool
}

// newBuildEntry 创建建连中条目
func newBuildEntry(m *Manager, dest types.Destination) *entry {
	b := &Builder{
		dest: dest,
		m:    m,
		done: make(chan struct{}),
	}
	b.budget.Store(int32(m.config.RetryBudget))
	e := &entry{builder: b}
	b.entry = e
	return e
}

// State 返回当前状态
func (b *Builder) State() BuildState {
	return BuildState(b.state.Load())
}

// Attempts 返回已发起的尝试次数
func (b *Builder) Attempts() int {
	return int(b.attempts.Load())
}

// Waiters 返回正在等待结果的调用方数
func (b *Builder) Waiters() int {
	return int(b.waiters.Load())
}

// Done 返回结果就绪信号
func (b *Builder) Done() <-chan struct{} {
	return b.done
}

// initiate 发起首次连接
//
// 只能由在注册表中插入该条目的调用方调用一次。
func (b *Builder) initiate() error {
	if !b.initiated.CompareAndSwap(false, true) {
		logger.Error("同一建连被重复发起", "dest", b.dest.ShortString())
		return ErrRaceCondition
	}
	b.m.metrics.BuildStarted()
	if b.isDone() {
		// 插入后、发起前已被取消
		if b.finishedEarly {
			b.m.metrics.BuildFinished()
		}
		return nil
	}
	logger.Debug("开始建连", "dest", b.dest.ShortString(), "budget", b.budget.Load())
	b.connect()
	return nil
}

// connect 发起一次连接尝试
func (b *Builder) connect() {
	if lim := b.m.limiter; lim != nil {
		// 限速等待不能占用传输层回调 goroutine
		go func() {
			if err := lim.Wait(b.m.ctx); err != nil {
				b.onConnectFailed(err)
				return
			}
			b.dial()
		}()
		return
	}
	b.dial()
}

func (b *Builder) dial() {
	b.attempts.Add(1)
	b.m.metrics.ConnectAttempt()
	// 单次尝试的超时由传输层负责；Shutdown 不中止进行中的尝试
	b.m.transport.Connect(context.Background(), b.dest.Addr, b.onResult)
}

func (b *Builder) onResult(ch pkgif.Channel, err error) {
	if err != nil {
		b.onConnectFailed(err)
		return
	}
	b.onConnected(ch)
}

// onConnected 连接成功：发布就绪条目并唤醒等待者
func (b *Builder) onConnected(ch pkgif.Channel) {
	if b.isDone() {
		// 已被 Close(dest) 取消
		_ = ch.Close()
		return
	}
	if b.m.closed.Load() {
		_ = ch.Close()
		b.m.registry.RemoveIf(b.dest, b.entry)
		b.fail(ErrShutdown)
		return
	}

	q := newQueue(b.m, b.dest, ch)
	ready := &entry{queue: q}
	q.entry = ready
	if !b.m.registry.Publish(b.dest, b.entry, ready) {
		// 建连条目已被移除（Close 与连接完成竞争）
		_ = ch.Close()
		b.fail(ErrBuildupCancelled)
		return
	}

	b.m.metrics.ConnectionOpened()
	q.watch(b.m.registry)

	// 发布与 Shutdown 遍历竞争时，由这里负责关闭
	if b.m.closed.Load() {
		_ = q.Close()
	}

	logger.Debug("连接已就绪", "dest", b.dest.ShortString(), "attempts", b.Attempts(), "channel", ch.ID())
	b.finish(q, nil, BuildSucceeded)
}

// onConnectFailed 连接失败：预算未耗尽则重试，否则广播终态错误
func (b *Builder) onConnectFailed(err error) {
	if b.isDone() {
		return
	}
	if b.m.closed.Load() {
		b.m.registry.RemoveIf(b.dest, b.entry)
		b.fail(ErrShutdown)
		return
	}

	attempt := b.Attempts()
	if b.budget.Add(-1) >= 0 {
		b.state.CompareAndSwap(int32(BuildPending), int32(BuildRetrying))
		b.m.metrics.ConnectFailure(false)
		logger.Debug("建连失败，重试", "dest", b.dest.ShortString(), "attempt", attempt, "remaining", b.budget.Load(), "error", err)
		b.connect()
		return
	}

	b.m.metrics.ConnectFailure(true)
	// 先移除条目，等待者醒来后重新发送会建立新的建连
	b.m.registry.RemoveIf(b.dest, b.entry)
	logger.Warn("建连失败，重试耗尽", "dest", b.dest.ShortString(), "attempts", attempt, "error", err)
	b.fail(&ConnectError{Dest: b.dest, Attempts: attempt, Err: err})
}

// cancel 取消建连（条目已由调用方移除）
func (b *Builder) cancel(err error) {
	b.fail(err)
}

// AwaitResult 等待建连结果
//
// 以 slice 为时间片循环等待，片间检查管理器关闭与 ctx 取消。
func (b *Builder) AwaitResult(ctx context.Context, slice time.Duration) (*Queue, error) {
	select {
	case <-b.done:
		return b.queue, b.err
	default:
	}

	b.waiters.Add(1)
	defer b.waiters.Add(-1)

	timer := time.NewTimer(slice)
	defer timer.Stop()

	for {
		select {
		case <-b.done:
			return b.queue, b.err
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			if b.m.closed.Load() {
				return nil, ErrShutdown
			}
			timer.Reset(slice)
		}
	}
}

func (b *Builder) fail(err error) {
	b.finish(nil, err, BuildFailed)
}

func (b *Builder) finish(q *Queue, err error, state BuildState) {
	b.once.Do(func() {
		b.queue = q
		b.err = err
		b.state.Store(int32(state))
		if b.initiated.Load() {
			b.m.metrics.BuildFinished()
		} else {
			b.finishedEarly = true
		}
		close(b.done)
	})
}

func (b *Builder) isDone() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
