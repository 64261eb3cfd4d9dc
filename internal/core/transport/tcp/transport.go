package tcp

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/yamux"
	"go.uber.org/multierr"

	"github.com/dep2p/go-outbound/internal/core/transport/channel"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
	"github.com/dep2p/go-outbound/pkg/lib/log"
)

var logger = log.Logger("core/transport/tcp")

// ============================================================================
//                              Transport 实现
// ============================================================================

// 确保实现接口
var _ pkgif.Transport = (*Transport)(nil)

// Transport TCP 传输层实现
type Transport struct {
	config   Config
	dialer   *net.Dialer
	yamuxCfg *yamux.Config

	mu        sync.Mutex
	channels  map[*channel.Channel]struct{}
	listeners []*Listener

	closed atomic.Bool
}

// NewTransport 创建 TCP 传输层
func NewTransport(cfg Config) *Transport {
	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = -1
	}

	t := &Transport{
		config: cfg,
		dialer: &net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: keepAlive,
		},
		channels: make(map[*channel.Channel]struct{}),
	}
	if cfg.EnableMuxer {
		t.yamuxCfg = newYamuxConfig(cfg)
	}
	return t
}

func newYamuxConfig(cfg Config) *yamux.Config {
	c := yamux.DefaultConfig()
	c.EnableKeepAlive = cfg.MuxerKeepAliveInterval > 0
	if c.EnableKeepAlive {
		c.KeepAliveInterval = cfg.MuxerKeepAliveInterval
	}
	c.LogOutput = io.Discard
	return c
}

// Connect 异步建立出站连接，结果通过 done 回调
func (t *Transport) Connect(ctx context.Context, addr string, done pkgif.ConnectCallback) {
	go func() {
		ch, err := t.dial(ctx, addr)
		if err != nil {
			logger.Debug("连接失败", "addr", addr, "error", err)
			done(nil, err)
			return
		}
		done(ch, nil)
	}()
}

func (t *Transport) dial(ctx context.Context, addr string) (*channel.Channel, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	if t.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.DialTimeout)
		defer cancel()
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(t.config.NoDelay)
	}

	var (
		rw      io.ReadWriter = conn
		closers               = []io.Closer{conn}
	)
	if t.yamuxCfg != nil {
		sess, err := yamux.Client(conn, t.yamuxCfg)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("yamux client: %w", err)
		}
		stream, err := sess.OpenStream()
		if err != nil {
			_ = sess.Close()
			return nil, fmt.Errorf("yamux open stream: %w", err)
		}
		// 会话关闭时会关闭底层连接
		rw = stream
		closers = []io.Closer{stream, sess}
	}

	ch := channel.New(addr, newFrameSink(rw, closers...))
	t.track(ch)
	go watchClosed(rw, ch.CloseWithError)

	// 传输层关闭后才完成的连接立即关闭
	if t.closed.Load() {
		_ = ch.Close()
		return nil, ErrTransportClosed
	}

	logger.Debug("TCP 连接已建立", "addr", addr, "channel", log.TruncateID(ch.ID(), 8), "muxer", t.yamuxCfg != nil)
	return ch, nil
}

// Listen 监听入站连接
func (t *Transport) Listen(addr string, handler pkgif.InboundHandler) (pkgif.Listener, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	lc := net.ListenConfig{KeepAlive: t.dialer.KeepAlive}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	l := newListener(ln, t.config, t.yamuxCfg, handler)

	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()

	logger.Info("TCP 监听已建立", "addr", l.Addr(), "muxer", t.yamuxCfg != nil)
	return l, nil
}

// Close 关闭传输层
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	listeners := t.listeners
	t.listeners = nil
	chans := make([]*channel.Channel, 0, len(t.channels))
	for c := range t.channels {
		chans = append(chans, c)
	}
	t.mu.Unlock()

	var err error
	for _, c := range chans {
		err = multierr.Append(err, c.Close())
	}
	for _, l := range listeners {
		err = multierr.Append(err, l.Close())
	}
	return err
}

func (t *Transport) track(ch *channel.Channel) {
	t.mu.Lock()
	t.channels[ch] = struct{}{}
	t.mu.Unlock()

	ch.OnClose(func() {
		t.mu.Lock()
		delete(t.channels, ch)
		t.mu.Unlock()
	})
}
