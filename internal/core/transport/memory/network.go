package memory

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-outbound/internal/core/transport/channel"
	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
)

// Network 进程内网络：地址 -> 监听者
type Network struct {
	mu        sync.RWMutex
	listeners map[string]*Listener
	nextPort  atomic.Int32
}

// NewNetwork 创建进程内网络
func NewNetwork() *Network {
	return &Network{
		listeners: make(map[string]*Listener),
	}
}

// bind 注册监听者；端口为 0 时分配一个唯一端口
func (n *Network) bind(addr string, handler pkgif.InboundHandler) (*Listener, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("memory: invalid listen address %q: %w", addr, err)
	}
	if port == "0" || port == "" {
		addr = net.JoinHostPort(host, fmt.Sprint(40000+n.nextPort.Add(1)))
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.listeners[addr]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAddressInUse, addr)
	}
	l := &Listener{
		network: n,
		addr:    addr,
		handler: handler,
		conns:   make(map[*channel.Channel]struct{}),
	}
	n.listeners[addr] = l
	return l, nil
}

func (n *Network) unbind(l *Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners[l.addr] == l {
		delete(n.listeners, l.addr)
	}
}

func (n *Network) lookup(addr string) *Listener {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.listeners[addr]
}

// ============================================================================
//                              Listener
// ============================================================================

// 确保实现接口
var _ pkgif.Listener = (*Listener)(nil)

// Listener 进程内监听者
type Listener struct {
	network *Network
	addr    string
	handler pkgif.InboundHandler

	mu     sync.Mutex
	conns  map[*channel.Channel]struct{}
	closed bool
}

// Addr 返回监听地址
func (l *Listener) Addr() string {
	return l.addr
}

// Close 关闭监听者并断开所有已接入的通道
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	conns := make([]*channel.Channel, 0, len(l.conns))
	for c := range l.conns {
		conns = append(conns, c)
	}
	l.conns = nil
	l.mu.Unlock()

	l.network.unbind(l)
	for _, c := range conns {
		_ = c.CloseWithError(ErrConnectionReset)
	}
	return nil
}

// accept 为拨号方创建通道
func (l *Listener) accept(from string) (*channel.Channel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("%w: %s", ErrConnectionRefused, l.addr)
	}

	s := &sink{listener: l, from: from}
	c := channel.New(l.addr, s)
	s.ch = c
	l.conns[c] = struct{}{}
	return c, nil
}

func (l *Listener) remove(c *channel.Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns != nil {
		delete(l.conns, c)
	}
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// sink 把帧同步交付给监听方
type sink struct {
	listener *Listener
	from     string
	ch       *channel.Channel
	closed   atomic.Bool
}

func (s *sink) WriteFrame(p []byte) error {
	if s.closed.Load() || s.listener.isClosed() {
		return ErrConnectionReset
	}
	if s.listener.handler != nil {
		s.listener.handler(s.from, append([]byte(nil), p...))
	}
	return nil
}

func (s *sink) Flush() error {
	return nil
}

func (s *sink) Close() error {
	if s.closed.CompareAndSwap(false, true) && s.ch != nil {
		s.listener.remove(s.ch)
	}
	return nil
}
