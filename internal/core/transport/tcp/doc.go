// Package tcp 实现 TCP 传输层
//
// 每个出站通道对应一条 TCP 连接。启用多路复用时，连接上建立 yamux 会话，
// 出站数据写入会话中的一条流；监听方接受会话中的所有流。
//
// # 帧格式
//
// 每帧为 uvarint 长度前缀加负载，不解释负载内容：
//
//	+----------------+-----------------+
//	| len (uvarint)  | payload (len B) |
//	+----------------+-----------------+
//
// 入站帧长度超过 MaxFrameSize 时关闭该连接。
//
// # 使用示例
//
//	t := tcp.NewTransport(tcp.DefaultConfig())
//
//	// 监听
//	l, err := t.Listen("127.0.0.1:4001", func(from string, payload []byte) {
//	    // 处理入站帧
//	})
//
//	// 异步连接
//	t.Connect(ctx, "127.0.0.1:4001", func(ch interfaces.Channel, err error) {
//	    // ch.Write(...)
//	})
//
// # 连接存活
//
// 出站侧在后台读取连接（或流），读到 EOF/错误即视为对端断开并关闭通道，
// 通道的 OnClose 回调随之触发。
package tcp
