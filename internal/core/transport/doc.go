// Package transport 按配置装配传输层
//
// 出站管理器只依赖 pkg/interfaces.Transport，具体实现在子包中：
//
//   - tcp: TCP 连接，可选 yamux 多路复用，uvarint 长度前缀分帧
//   - memory: 进程内网络，用于单进程流水线与测试
//   - channel: 两者共用的带写缓冲、水位背压的通道实现
//
// # Fx 模块集成
//
//	app := fx.New(
//	    transport.Module(),
//	    fx.Invoke(func(t interfaces.Transport) {
//	        // 使用传输
//	    }),
//	)
//
// 使用 memory 传输时，可以通过 fx.Supply(*memory.Network) 让多个节点共享同一个进程内网络。
// 应用停止时传输被关闭。
package transport
