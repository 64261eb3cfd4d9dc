package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/types"
)

type collector struct {
	mu     sync.Mutex
	frames []string
}

func (c *collector) handle(_ string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, string(payload))
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.frames))
	copy(out, c.frames)
	return out
}

func testConfig(muxer bool) Config {
	cfg := DefaultConfig()
	cfg.EnableMuxer = muxer
	if muxer && cfg.MuxerKeepAliveInterval == 0 {
		cfg.MuxerKeepAliveInterval = 30 * time.Second
	}
	cfg.DialTimeout = 2 * time.Second
	return cfg
}

func connect(t *testing.T, tr *Transport, addr string) (pkgif.Channel, error) {
	t.Helper()
	type result struct {
		ch  pkgif.Channel
		err error
	}
	resCh := make(chan result, 1)
	tr.Connect(context.Background(), addr, func(ch pkgif.Channel, err error) {
		resCh <- result{ch, err}
	})
	select {
	case r := <-resCh:
		return r.ch, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("connect callback not invoked")
		return nil, nil
	}
}

// TestTransport_SendFrames 测试帧按顺序到达监听方（有/无多路复用）
func TestTransport_SendFrames(t *testing.T) {
	for _, muxer := range []bool{false, true} {
		t.Run(fmt.Sprintf("muxer=%v", muxer), func(t *testing.T) {
			server := NewTransport(testConfig(muxer))
			client := NewTransport(testConfig(muxer))
			defer server.Close()
			defer client.Close()

			box := &collector{}
			l, err := server.Listen("127.0.0.1:0", box.handle)
			require.NoError(t, err)

			ch, err := connect(t, client, l.Addr())
			require.NoError(t, err)
			require.NotNil(t, ch)

			want := make([]string, 0, 50)
			for i := 0; i < 50; i++ {
				msg := fmt.Sprintf("frame-%02d", i)
				want = append(want, msg)
				require.NoError(t, ch.Write([]byte(msg), types.PriorityNormal, nil))
			}

			require.Eventually(t, func() bool {
				return len(box.snapshot()) == len(want)
			}, 5*time.Second, 10*time.Millisecond)
			assert.Equal(t, want, box.snapshot())
		})
	}
}

// TestTransport_EmptyFrame 测试空负载帧
func TestTransport_EmptyFrame(t *testing.T) {
	tr := NewTransport(testConfig(false))
	defer tr.Close()

	box := &collector{}
	l, err := tr.Listen("127.0.0.1:0", box.handle)
	require.NoError(t, err)

	ch, err := connect(t, tr, l.Addr())
	require.NoError(t, err)

	require.NoError(t, ch.Write(nil, types.PriorityNormal, nil))
	require.NoError(t, ch.Write([]byte("after"), types.PriorityNormal, nil))

	require.Eventually(t, func() bool { return len(box.snapshot()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"", "after"}, box.snapshot())
}

// TestTransport_ConnectRefused 测试连接被拒绝
func TestTransport_ConnectRefused(t *testing.T) {
	// 先占用再释放一个端口，得到一个大概率无人监听的地址
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	tr := NewTransport(testConfig(false))
	defer tr.Close()

	ch, err := connect(t, tr, addr)
	assert.Error(t, err)
	assert.Nil(t, ch)
}

// TestTransport_RemoteClose 测试对端关闭后出站通道被关闭
func TestTransport_RemoteClose(t *testing.T) {
	for _, muxer := range []bool{false, true} {
		t.Run(fmt.Sprintf("muxer=%v", muxer), func(t *testing.T) {
			server := NewTransport(testConfig(muxer))
			client := NewTransport(testConfig(muxer))
			defer client.Close()

			l, err := server.Listen("127.0.0.1:0", nil)
			require.NoError(t, err)

			ch, err := connect(t, client, l.Addr())
			require.NoError(t, err)

			closed := make(chan struct{})
			ch.OnClose(func() { close(closed) })

			require.NoError(t, server.Close())

			select {
			case <-closed:
			case <-time.After(5 * time.Second):
				t.Fatal("channel not closed after remote close")
			}
			assert.True(t, ch.IsClosed())
		})
	}
}

// TestTransport_FrameTooLarge 测试超大帧导致连接断开
func TestTransport_FrameTooLarge(t *testing.T) {
	serverCfg := testConfig(false)
	serverCfg.MaxFrameSize = 8
	server := NewTransport(serverCfg)
	client := NewTransport(testConfig(false))
	defer server.Close()
	defer client.Close()

	box := &collector{}
	l, err := server.Listen("127.0.0.1:0", box.handle)
	require.NoError(t, err)

	ch, err := connect(t, client, l.Addr())
	require.NoError(t, err)

	closed := make(chan struct{})
	ch.OnClose(func() { close(closed) })

	require.NoError(t, ch.Write([]byte("0123456789abcdef"), types.PriorityNormal, nil))

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after oversized frame")
	}
	assert.Empty(t, box.snapshot())
}

// TestTransport_Close 测试关闭传输层
func TestTransport_Close(t *testing.T) {
	tr := NewTransport(testConfig(true))

	l, err := tr.Listen("127.0.0.1:0", nil)
	require.NoError(t, err)
	ch, err := connect(t, tr, l.Addr())
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.True(t, ch.IsClosed())

	_, err = connect(t, tr, l.Addr())
	assert.ErrorIs(t, err, ErrTransportClosed)

	_, err = tr.Listen("127.0.0.1:0", nil)
	assert.ErrorIs(t, err, ErrTransportClosed)
}

// TestConfigFromUnified 测试从统一配置转换
func TestConfigFromUnified(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.True(t, cfg.NoDelay)
	assert.True(t, cfg.EnableMuxer)
	assert.Equal(t, 15*time.Second, cfg.KeepAlive)
	assert.Equal(t, 16*1024*1024, cfg.MaxFrameSize)
}
