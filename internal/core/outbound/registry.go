package outbound

import (
	"sync"

	"github.com/dep2p/go-outbound/pkg/types"
)

// entry 注册表条目
//
// builder 非 nil 表示建连中，queue 非 nil 表示就绪。条目创建后不再修改，
// 状态转换通过替换整个条目完成，指针相等即可判断条目是否被替换过。
type entry struct {
	builder *Builder
	queue   *Queue
}

// ready 是否就绪
func (e *entry) ready() bool {
	return e.queue != nil
}

// Registry 连接注册表
//
// 目的端到条目的并发映射，只提供原子操作，不含业务逻辑。
type Registry struct {
	entries sync.Map // map[types.Destination]*entry
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{}
}

// LookupOrCreate 查找条目，不存在时用 create 创建并原子插入
//
// 并发调用时只有一个调用方得到 created == true，其余调用方看到获胜者插入的条目。
func (r *Registry) LookupOrCreate(dest types.Destination, create func() *entry) (e *entry, created bool) {
	if v, ok := r.entries.Load(dest); ok {
		return v.(*entry), false
	}
	fresh := create()
	actual, loaded := r.entries.LoadOrStore(dest, fresh)
	return actual.(*entry), !loaded
}

// Lookup 查找条目
func (r *Registry) Lookup(dest types.Destination) (*entry, bool) {
	v, ok := r.entries.Load(dest)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// Publish 把 old 原子替换为 next，old 已不在注册表中时返回 false
func (r *Registry) Publish(dest types.Destination, old, next *entry) bool {
	return r.entries.CompareAndSwap(dest, old, next)
}

// Remove 移除并返回目的端的条目
func (r *Registry) Remove(dest types.Destination) *entry {
	v, ok := r.entries.LoadAndDelete(dest)
	if !ok {
		return nil
	}
	return v.(*entry)
}

// RemoveIf 仅当当前条目仍是 e 时移除
func (r *Registry) RemoveIf(dest types.Destination, e *entry) bool {
	if e == nil {
		return false
	}
	return r.entries.CompareAndDelete(dest, e)
}

// Range 遍历所有条目，fn 返回 false 时停止
func (r *Registry) Range(fn func(dest types.Destination, e *entry) bool) {
	r.entries.Range(func(k, v any) bool {
		return fn(k.(types.Destination), v.(*entry))
	})
}

// Len 返回条目数
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
