// Package channel 实现传输层共用的出站通道
//
// Channel 在任意帧写入端（Sink）之上提供 interfaces.Channel 语义：
//
//   - 非阻塞写入：Write 只把帧放入写缓冲，由独立的写 goroutine 写出
//   - 两级优先级：高优先级帧排在普通帧之前，同级内保持 FIFO
//   - 背压水位：缓冲字节超过高水位不可写，回落到低水位以下恢复可写
//   - 关闭通知：OnClose 回调在通道关闭后恰好执行一次
//
// TCP 传输和进程内内存传输都基于本包构建通道。
package channel
