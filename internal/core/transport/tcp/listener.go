package tcp

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/hashicorp/yamux"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
)

// 确保实现接口
var _ pkgif.Listener = (*Listener)(nil)

// Listener TCP 监听器
//
// 每条入站连接一个读 goroutine；启用多路复用时每条流一个读 goroutine。
type Listener struct {
	ln       net.Listener
	config   Config
	yamuxCfg *yamux.Config
	handler  pkgif.InboundHandler

	mu     sync.Mutex
	conns  map[io.Closer]struct{}
	closed bool

	wg sync.WaitGroup
}

func newListener(ln net.Listener, cfg Config, yamuxCfg *yamux.Config, handler pkgif.InboundHandler) *Listener {
	l := &Listener{
		ln:       ln,
		config:   cfg,
		yamuxCfg: yamuxCfg,
		handler:  handler,
		conns:    make(map[io.Closer]struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

// Addr 返回实际监听地址
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Close 停止接受连接并断开所有入站连接
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	conns := l.conns
	l.conns = nil
	l.mu.Unlock()

	err := l.ln.Close()
	for c := range conns {
		err = multierr.Append(err, c.Close())
	}
	l.wg.Wait()
	return err
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logger.Warn("接受连接失败", "addr", l.Addr(), "error", err)
			}
			return
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(l.config.NoDelay)
		}

		if !l.track(conn) {
			_ = conn.Close()
			return
		}
		l.wg.Add(1)
		go l.serveConn(conn)
	}
}

func (l *Listener) serveConn(conn net.Conn) {
	defer l.wg.Done()
	defer l.untrack(conn)
	defer conn.Close()

	from := conn.RemoteAddr().String()

	if l.yamuxCfg == nil {
		l.serveFrames(conn, from)
		return
	}

	sess, err := yamux.Server(conn, l.yamuxCfg)
	if err != nil {
		logger.Warn("创建 yamux 会话失败", "from", from, "error", err)
		return
	}
	defer sess.Close()

	var streams sync.WaitGroup
	defer streams.Wait()
	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			return
		}
		streams.Add(1)
		go func() {
			defer streams.Done()
			defer stream.Close()
			l.serveFrames(stream, from)
		}()
	}
}

func (l *Listener) serveFrames(r io.Reader, from string) {
	err := readFrames(r, from, l.config.MaxFrameSize, l.handler)
	switch {
	case errors.Is(err, ErrFrameTooLarge):
		logger.Warn("入站帧过大，断开连接", "from", from, "error", err)
	case err != nil && !errors.Is(err, io.EOF):
		logger.Debug("入站连接结束", "from", from, "error", err)
	}
}

func (l *Listener) track(c io.Closer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conns[c] = struct{}{}
	return true
}

func (l *Listener) untrack(c io.Closer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns != nil {
		delete(l.conns, c)
	}
}
