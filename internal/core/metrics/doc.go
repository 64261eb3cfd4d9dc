// Package metrics 提供出站连接的 Prometheus 指标
//
// OutboundMetrics 实现 interfaces.OutboundMetrics，记录：
//
//	outbound_connect_attempts_total                 连接尝试次数
//	outbound_connect_failures_total{kind}           连接失败次数（transient / terminal）
//	outbound_connections_ready                      就绪连接数
//	outbound_connections_building                   进行中的建连数
//	outbound_connections_closed_total{reason}       关闭的连接数（idle / other）
//	outbound_envelopes_enqueued_total               交给传输层的消息数
//	outbound_envelopes_sent_total                   已写出的消息数
//	outbound_bytes_enqueued_total                   交给传输层的字节数
//	outbound_bytes_sent_total                       已写出的字节数
//	outbound_channel_dead_total                     写入时发现通道失效的次数
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.NewOutboundMetrics(reg, "outbound")
//	if err != nil {
//	    return err
//	}
//	mgr := outbound.New(transport, cfg, outbound.WithMetrics(m))
//
// 传入 nil Registerer 时使用私有 Registry，不会污染全局默认 Registry。
package metrics
