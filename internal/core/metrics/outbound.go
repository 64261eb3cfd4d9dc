package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
)

// 确保实现接口
var _ pkgif.OutboundMetrics = (*OutboundMetrics)(nil)

// OutboundMetrics 基于 Prometheus 的出站指标
type OutboundMetrics struct {
	registry prometheus.Gatherer

	connectAttempts prometheus.Counter
	connectFailures *prometheus.CounterVec
	ready           prometheus.Gauge
	building        prometheus.Gauge
	closed          *prometheus.CounterVec
	envelopesQueued prometheus.Counter
	envelopesSent   prometheus.Counter
	bytesQueued     prometheus.Counter
	bytesSent       prometheus.Counter
	channelDead     prometheus.Counter
}

// NewOutboundMetrics 创建并注册出站指标
//
// reg 为 nil 时使用私有 Registry。
func NewOutboundMetrics(reg prometheus.Registerer, namespace string) (*OutboundMetrics, error) {
	var gatherer prometheus.Gatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &OutboundMetrics{
		registry: gatherer,
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Number of connect attempts issued to the transport.",
		}),
		connectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Number of failed connect attempts by kind (transient, terminal).",
		}, []string{"kind"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_ready",
			Help:      "Number of ready outbound connections.",
		}),
		building: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_building",
			Help:      "Number of connections currently being built.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Number of closed outbound connections by reason (idle, other).",
		}, []string{"reason"}),
		envelopesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_enqueued_total",
			Help:      "Number of envelopes handed to the transport write path.",
		}),
		envelopesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_sent_total",
			Help:      "Number of envelopes written by the transport.",
		}),
		bytesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_enqueued_total",
			Help:      "Payload bytes handed to the transport write path.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Payload bytes written by the transport.",
		}),
		channelDead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_dead_total",
			Help:      "Number of times a ready channel was found dead at write time.",
		}),
	}

	collectors := []prometheus.Collector{
		m.connectAttempts, m.connectFailures, m.ready, m.building, m.closed,
		m.envelopesQueued, m.envelopesSent, m.bytesQueued, m.bytesSent, m.channelDead,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// 预先创建标签组合，未发生时也能导出 0 值
	m.connectFailures.WithLabelValues("transient")
	m.connectFailures.WithLabelValues("terminal")
	m.closed.WithLabelValues("idle")
	m.closed.WithLabelValues("other")

	return m, nil
}

// Gatherer 返回指标采集器（可能为 nil）
func (m *OutboundMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ConnectAttempt 记录一次连接尝试
func (m *OutboundMetrics) ConnectAttempt() {
	m.connectAttempts.Inc()
}

// ConnectFailure 记录一次连接失败
func (m *OutboundMetrics) ConnectFailure(terminal bool) {
	if terminal {
		m.connectFailures.WithLabelValues("terminal").Inc()
		return
	}
	m.connectFailures.WithLabelValues("transient").Inc()
}

// BuildStarted 建连开始
func (m *OutboundMetrics) BuildStarted() {
	m.building.Inc()
}

// BuildFinished 建连结束
func (m *OutboundMetrics) BuildFinished() {
	m.building.Dec()
}

// ConnectionOpened 连接就绪
func (m *OutboundMetrics) ConnectionOpened() {
	m.ready.Inc()
}

// ConnectionClosed 连接关闭
func (m *OutboundMetrics) ConnectionClosed(idle bool) {
	m.ready.Dec()
	if idle {
		m.closed.WithLabelValues("idle").Inc()
		return
	}
	m.closed.WithLabelValues("other").Inc()
}

// EnvelopeEnqueued 消息交给传输层
func (m *OutboundMetrics) EnvelopeEnqueued(bytes int) {
	m.envelopesQueued.Inc()
	m.bytesQueued.Add(float64(bytes))
}

// EnvelopeSent 消息已写出
func (m *OutboundMetrics) EnvelopeSent(bytes int) {
	m.envelopesSent.Inc()
	m.bytesSent.Add(float64(bytes))
}

// ChannelDead 写入时发现通道失效
func (m *OutboundMetrics) ChannelDead() {
	m.channelDead.Inc()
}
