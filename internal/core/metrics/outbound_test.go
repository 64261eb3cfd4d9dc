package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatherValue 汇总指定指标（可按标签过滤）的值
func gatherValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)

	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
	}
	return sum
}

func TestOutboundMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewOutboundMetrics(reg, "outbound")
	require.NoError(t, err)

	m.ConnectAttempt()
	m.ConnectAttempt()
	m.ConnectFailure(false)
	m.ConnectFailure(true)
	m.EnvelopeEnqueued(10)
	m.EnvelopeEnqueued(5)
	m.EnvelopeSent(10)
	m.ChannelDead()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.connectAttempts))
	assert.Equal(t, 1.0, gatherValue(t, reg, "outbound_connect_failures_total", map[string]string{"kind": "transient"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "outbound_connect_failures_total", map[string]string{"kind": "terminal"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.envelopesQueued))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.bytesQueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.envelopesSent))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.bytesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelDead))
}

func TestOutboundMetrics_Gauges(t *testing.T) {
	m, err := NewOutboundMetrics(nil, "outbound")
	require.NoError(t, err)
	require.NotNil(t, m.Gatherer())

	m.BuildStarted()
	m.BuildStarted()
	m.BuildFinished()
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.building))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ready))
	assert.Equal(t, 1.0, gatherValue(t, m.Gatherer(), "outbound_connections_closed_total", map[string]string{"reason": "idle"}))
	assert.Equal(t, 0.0, gatherValue(t, m.Gatherer(), "outbound_connections_closed_total", map[string]string{"reason": "other"}))
}

func TestOutboundMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewOutboundMetrics(reg, "outbound")
	require.NoError(t, err)

	_, err = NewOutboundMetrics(reg, "outbound")
	assert.Error(t, err)
}
