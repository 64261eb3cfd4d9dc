package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-outbound/internal/core/transport/channel"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

type connectResult struct {
	ch  pkgif.Channel
	err error
}

func connectSync(t *testing.T, tr *Transport, addr string) (pkgif.Channel, error) {
	t.Helper()
	resCh := make(chan connectResult, 1)
	tr.Connect(context.Background(), addr, func(ch pkgif.Channel, err error) {
		resCh <- connectResult{ch, err}
	})
	select {
	case r := <-resCh:
		return r.ch, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("connect callback not invoked")
		return nil, nil
	}
}

type inbox struct {
	mu   sync.Mutex
	msgs [][]byte
	from []string
}

func (b *inbox) handle(from string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, payload)
	b.from = append(b.from, from)
}

func (b *inbox) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// TestTransport_ConnectAndDeliver 测试连接建立与帧交付
func TestTransport_ConnectAndDeliver(t *testing.T) {
	network := NewNetwork()
	server := NewTransport(network, DefaultConfig())
	client := NewTransport(network, DefaultConfig())
	defer server.Close()
	defer client.Close()

	box := &inbox{}
	l, err := server.Listen("127.0.0.1:7001", box.handle)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7001", l.Addr())

	ch, err := connectSync(t, client, "127.0.0.1:7001")
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, "127.0.0.1:7001", ch.RemoteAddr())

	written := make(chan error, 1)
	require.NoError(t, ch.Write([]byte("hello"), types.PriorityNormal, func(err error) { written <- err }))
	require.NoError(t, <-written)

	require.Eventually(t, func() bool { return box.count() == 1 }, time.Second, 5*time.Millisecond)
	box.mu.Lock()
	assert.Equal(t, []byte("hello"), box.msgs[0])
	assert.Equal(t, client.LocalAddr(), box.from[0])
	box.mu.Unlock()

	assert.Equal(t, 1, client.Attempts("127.0.0.1:7001"))
	assert.Len(t, client.Channels("127.0.0.1:7001"), 1)
}

// TestTransport_ConnectRefused 测试无监听者时连接被拒绝
func TestTransport_ConnectRefused(t *testing.T) {
	tr := NewTransport(NewNetwork(), DefaultConfig())
	defer tr.Close()

	ch, err := connectSync(t, tr, "127.0.0.1:7002")
	assert.Nil(t, ch)
	assert.ErrorIs(t, err, ErrConnectionRefused)
	assert.Equal(t, 1, tr.Attempts("127.0.0.1:7002"))
}

// TestTransport_FailNext 测试注入失败按次数消耗
func TestTransport_FailNext(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, DefaultConfig())
	defer tr.Close()

	_, err := tr.Listen("127.0.0.1:7003", nil)
	require.NoError(t, err)

	custom := errors.New("boom")
	tr.FailNext("127.0.0.1:7003", 1, nil)
	tr.FailNext("127.0.0.1:7003", 1, custom)

	_, err = connectSync(t, tr, "127.0.0.1:7003")
	assert.ErrorIs(t, err, ErrInjected)

	_, err = connectSync(t, tr, "127.0.0.1:7003")
	assert.ErrorIs(t, err, custom)

	ch, err := connectSync(t, tr, "127.0.0.1:7003")
	require.NoError(t, err)
	assert.NotNil(t, ch)
	assert.Equal(t, 3, tr.Attempts("127.0.0.1:7003"))
}

// TestTransport_ConnectHook 测试连接钩子可以阻塞并获得尝试序号
func TestTransport_ConnectHook(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, DefaultConfig())
	defer tr.Close()

	_, err := tr.Listen("127.0.0.1:7004", nil)
	require.NoError(t, err)

	release := make(chan struct{})
	seen := make(chan int, 1)
	tr.SetConnectHook(func(ctx context.Context, addr string, attempt int) error {
		seen <- attempt
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	resCh := make(chan connectResult, 1)
	tr.Connect(context.Background(), "127.0.0.1:7004", func(ch pkgif.Channel, err error) {
		resCh <- connectResult{ch, err}
	})

	assert.Equal(t, 1, <-seen)
	select {
	case <-resCh:
		t.Fatal("connect completed before hook released")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	r := <-resCh
	require.NoError(t, r.err)
	assert.NotNil(t, r.ch)
}

// TestTransport_DialTimeout 测试拨号超时取消阻塞的钩子
func TestTransport_DialTimeout(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, Config{DialTimeout: 20 * time.Millisecond})
	defer tr.Close()

	tr.SetConnectHook(func(ctx context.Context, addr string, attempt int) error {
		<-ctx.Done()
		return ctx.Err()
	})

	_, err := connectSync(t, tr, "127.0.0.1:7005")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestTransport_CloseChannels 测试模拟对端断开
func TestTransport_CloseChannels(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, DefaultConfig())
	defer tr.Close()

	_, err := tr.Listen("127.0.0.1:7006", nil)
	require.NoError(t, err)

	ch, err := connectSync(t, tr, "127.0.0.1:7006")
	require.NoError(t, err)

	closed := make(chan struct{})
	ch.OnClose(func() { close(closed) })

	tr.CloseChannels("127.0.0.1:7006")

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("OnClose not invoked")
	}
	assert.True(t, ch.IsClosed())
	assert.ErrorIs(t, ch.Write([]byte("x"), types.PriorityNormal, nil), channel.ErrClosed)
}

// TestListener_Close 测试监听者关闭断开所有接入通道
func TestListener_Close(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, DefaultConfig())
	defer tr.Close()

	l, err := tr.Listen("127.0.0.1:7007", nil)
	require.NoError(t, err)

	ch, err := connectSync(t, tr, "127.0.0.1:7007")
	require.NoError(t, err)

	require.NoError(t, l.Close())
	require.Eventually(t, ch.IsClosed, time.Second, 5*time.Millisecond)

	_, err = connectSync(t, tr, "127.0.0.1:7007")
	assert.ErrorIs(t, err, ErrConnectionRefused)
}

// TestNetwork_BindConflict 测试地址冲突与自动分配端口
func TestNetwork_BindConflict(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, DefaultConfig())
	defer tr.Close()

	_, err := tr.Listen("127.0.0.1:7008", nil)
	require.NoError(t, err)

	_, err = tr.Listen("127.0.0.1:7008", nil)
	assert.ErrorIs(t, err, ErrAddressInUse)

	l1, err := tr.Listen("127.0.0.1:0", nil)
	require.NoError(t, err)
	l2, err := tr.Listen("127.0.0.1:0", nil)
	require.NoError(t, err)
	assert.NotEqual(t, l1.Addr(), l2.Addr())

	_, err = tr.Listen("no-port", nil)
	assert.Error(t, err)
}

// TestTransport_Close 测试关闭后拒绝新连接
func TestTransport_Close(t *testing.T) {
	network := NewNetwork()
	tr := NewTransport(network, DefaultConfig())

	_, err := tr.Listen("127.0.0.1:7009", nil)
	require.NoError(t, err)
	ch, err := connectSync(t, tr, "127.0.0.1:7009")
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.True(t, ch.IsClosed())

	_, err = connectSync(t, tr, "127.0.0.1:7009")
	assert.ErrorIs(t, err, ErrTransportClosed)

	_, err = tr.Listen("127.0.0.1:7010", nil)
	assert.ErrorIs(t, err, ErrTransportClosed)
}
