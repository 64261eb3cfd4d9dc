// Package outbound 提供出站连接管理
//
// 节点把消息发送到由“网络地址 + 逻辑端点 ID”标识的目的端，
// 保证每个目的端最多一条物理连接：
//
//   - 没有连接时自动建立，并发发送共享同一次建连
//   - 建连失败按重试预算重试，耗尽后所有等待者收到同一个终止错误
//   - 已就绪连接的写路径不阻塞，背压由传输层水位负责
//   - 连接失效后自动从注册表移除，下一次发送重新建连
//   - 空闲连接按配置回收
//
// # 快速开始
//
//	node, err := outbound.New(outbound.WithListenAddr("127.0.0.1:7000"))
//	if err != nil {
//	    return err
//	}
//	if err := node.Start(ctx, func(from string, payload []byte) {
//	    fmt.Printf("%s: %s\n", from, payload)
//	}); err != nil {
//	    return err
//	}
//	defer node.Shutdown()
//
//	err = node.Send(ctx, "10.0.0.2:7000", "worker-1", []byte("hello"))
//
// # 传输层
//
// 默认使用 TCP（可选 yamux 多路复用）；WithMemoryNetwork 切换到进程内传输，
// 同一 memory.Network 上的节点可以互相发送。
//
// # 错误处理
//
//	if errors.Is(err, outbound.ErrTerminalConnect) { ... } // 建连重试耗尽
//	if errors.Is(err, outbound.ErrShutdown) { ... }        // 节点正在关闭
//	var ce *outbound.ConnectError
//	if errors.As(err, &ce) { ... }                         // 目的端与尝试次数
package outbound
