// Package outbound 实现出站连接管理
//
// 把“发送消息 M 到目的端 D”变成在惰性建立、可复用的连接上的可靠投递。
//
// # 组件
//
//   - Registry: 目的端 -> 条目（建连中 / 就绪）的并发映射，唯一的事实来源
//   - Builder: 一次建连过程，负责有界重试并唤醒所有等待者
//   - Queue: 绑定一条活跃通道的出站队列，背压交给传输层执行
//   - Manager: 对外的 Start / Enqueue / Close / Shutdown
//
// # 建连竞争
//
// 多个 goroutine 同时向没有连接的 D 发送时，只有 LoadOrStore 成功的那个
// 调用 initiate 发起连接，其余（包括发起者自己）都在 Builder 上等待结果。
// 连接成功后条目原子替换为就绪状态；重试耗尽则移除条目，所有等待者收到
// ConnectError。
//
// 条目的状态转换只有三种：
//
//	建连中 -> 就绪     （连接成功）
//	建连中 -> 不存在   （重试耗尽 / Close）
//	就绪   -> 不存在   （Close / 通道关闭 / 空闲回收）
//
// 失效的就绪条目先被移除，下一个发送者才能装入新的建连条目。
//
// # 发送路径
//
//	for attempt := 0; ; attempt++ {
//	    q := 就绪队列，或等待建连结果
//	    if q.Enqueue(env) { return nil }
//	    移除失效条目
//	    if attempt == MaxSendRetries { return ChannelDeadError }
//	}
//
// 通道在查找与写入之间失效时重建一次，调用方无感知。
//
// # 等待与关闭
//
// 等待建连结果按 WaitSlice 分片，片间检查 Shutdown 与 ctx。Shutdown 不强行中止
// 进行中的建连：等待者在下一个时间片返回 ErrShutdown，之后才完成的连接被立即关闭。
//
// # 并发安全
//
// 热路径上没有全局锁：注册表为 sync.Map，计数器全部使用 sync/atomic。
// 生产者只会在等待建连结果时阻塞。
package outbound
