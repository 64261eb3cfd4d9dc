// Package types 定义 go-outbound 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是值类型或由调用方创建后不再修改的对象，用于在各模块间传递数据。
//
// # 文件组织
//
//   - destination.go - Destination（目的端身份，注册表的键）
//   - envelope.go    - Envelope（消息 + 路由元数据）、Priority
//   - errors.go      - 公共错误定义
package types
