package outbound

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-outbound/internal/core/transport/memory"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

// testEnv 一个发送端管理器加一个进程内接收端
type testEnv struct {
	network *memory.Network
	sender  *memory.Transport
	manager *Manager
	inbox   *inbox
	addr    string
	dest    types.Destination
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	network := memory.NewNetwork()
	receiver := memory.NewTransport(network, memory.DefaultConfig())
	t.Cleanup(func() { _ = receiver.Close() })

	box := &inbox{}
	l, err := receiver.Listen("127.0.0.1:0", box.handle)
	require.NoError(t, err)

	sender := memory.NewTransport(network, memory.Config{DialTimeout: 2 * time.Second})
	cfg := DefaultConfig()
	cfg.WaitSlice = 10 * time.Millisecond
	m, err := NewManager(sender, append([]Option{WithConfig(cfg)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown() })

	return &testEnv{
		network: network,
		sender:  sender,
		manager: m,
		inbox:   box,
		addr:    l.Addr(),
		dest:    types.MustDestination(l.Addr(), "task-1"),
	}
}

// unreachable 返回一个没有监听者的目的端
func unreachable(id string) types.Destination {
	return types.MustDestination("127.0.0.1:1", id)
}

func envelope(payload string, opts ...types.EnvelopeOption) *types.Envelope {
	return types.NewEnvelope([]byte(payload), opts...)
}

// gate 阻塞首次连接尝试，直到放行
type gate struct {
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{release: make(chan struct{})}
}

func (g *gate) hook(ctx context.Context, _ string, attempt int) error {
	if attempt != 1 {
		return nil
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}

// waitForWaiters 等待指定数量的调用方在建连上等待
func waitForWaiters(t *testing.T, m *Manager, dest types.Destination, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		e, ok := m.registry.Lookup(dest)
		return ok && !e.ready() && e.builder.Waiters() >= n
	}, 5*time.Second, time.Millisecond)
}

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (b *inbox) handle(_ string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, string(payload))
}

func (b *inbox) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.msgs))
	copy(out, b.msgs)
	return out
}

func (b *inbox) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// recordingMetrics 记录调用次数
type recordingMetrics struct {
	attempts      atomic.Int64
	transient     atomic.Int64
	terminal      atomic.Int64
	building      atomic.Int64
	ready         atomic.Int64
	idleClosed    atomic.Int64
	enqueued      atomic.Int64
	sent          atomic.Int64
	channelDeaths atomic.Int64
}

var _ pkgif.OutboundMetrics = (*recordingMetrics)(nil)

func (r *recordingMetrics) ConnectAttempt() { r.attempts.Add(1) }

func (r *recordingMetrics) ConnectFailure(terminal bool) {
	if terminal {
		r.terminal.Add(1)
	} else {
		r.transient.Add(1)
	}
}

func (r *recordingMetrics) BuildStarted()     { r.building.Add(1) }
func (r *recordingMetrics) BuildFinished()    { r.building.Add(-1) }
func (r *recordingMetrics) ConnectionOpened() { r.ready.Add(1) }

func (r *recordingMetrics) ConnectionClosed(idle bool) {
	r.ready.Add(-1)
	if idle {
		r.idleClosed.Add(1)
	}
}

func (r *recordingMetrics) EnvelopeEnqueued(int) { r.enqueued.Add(1) }
func (r *recordingMetrics) EnvelopeSent(int)     { r.sent.Add(1) }
func (r *recordingMetrics) ChannelDead()         { r.channelDeaths.Add(1) }

// deadOnArrival 交付前就关闭通道的传输
type deadOnArrival struct {
	pkgif.Transport
	attempts atomic.Int32
}

func (d *deadOnArrival) Connect(ctx context.Context, addr string, done pkgif.ConnectCallback) {
	d.attempts.Add(1)
	d.Transport.Connect(ctx, addr, func(ch pkgif.Channel, err error) {
		if ch != nil {
			_ = ch.Close()
		}
		done(ch, err)
	})
}
