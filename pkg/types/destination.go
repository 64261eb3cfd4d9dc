package types

import (
	"fmt"
	"net"
)

// EndpointID 逻辑端点 ID
//
// 同一网络地址上可以运行多个逻辑端点（例如多个任务槽），
// EndpointID 用于区分它们。
type EndpointID string

// String 返回字符串形式
func (id EndpointID) String() string {
	return string(id)
}

// IsEmpty 检查是否为空
func (id EndpointID) IsEmpty() bool {
	return id == ""
}

// ShortString 返回简短形式（前 8 个字符）
func (id EndpointID) ShortString() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Destination 目的端身份
//
// 不可变、可比较的值类型，由网络地址和逻辑端点 ID 组成，
// 直接用作连接注册表的键。
type Destination struct {
	// Addr 网络地址（host:port）
	Addr string

	// ID 逻辑端点 ID
	ID EndpointID
}

// NewDestination 创建并校验目的端身份
func NewDestination(addr string, id string) (Destination, error) {
	if id == "" {
		return Destination{}, ErrEmptyEndpointID
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return Destination{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	return Destination{Addr: addr, ID: EndpointID(id)}, nil
}

// MustDestination 创建目的端身份，失败时 panic（用于测试和常量）
func MustDestination(addr string, id string) Destination {
	d, err := NewDestination(addr, id)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero 检查是否为零值
func (d Destination) IsZero() bool {
	return d.Addr == "" && d.ID == ""
}

// String 返回 id@addr 形式
func (d Destination) String() string {
	return string(d.ID) + "@" + d.Addr
}

// ShortString 返回用于日志的简短形式
func (d Destination) ShortString() string {
	return d.ID.ShortString() + "@" + d.Addr
}
