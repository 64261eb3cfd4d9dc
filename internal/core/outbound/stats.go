package outbound

import (
	"sort"

	"github.com/dep2p/go-outbound/pkg/types"
)

// Stats 管理器快照
type Stats struct {
	// Ready 就绪连接数
	Ready int
	// Building 进行中的建连数
	Building int
	// Destinations 每个目的端的状态，按目的端排序
	Destinations []DestinationStats
}

// DestinationStats 单个目的端的状态
type DestinationStats struct {
	Dest  types.Destination
	State string

	// 就绪时有效
	Pending   int64
	Enqueued  int64
	BytesSent int64
	Buffered  int
	Writable  bool

	// 建连中时有效
	Attempts int
	Waiters  int
}

// Stats 返回当前快照
func (m *Manager) Stats() Stats {
	var s Stats
	m.registry.Range(func(dest types.Destination, e *entry) bool {
		ds := DestinationStats{Dest: dest}
		if e.ready() {
			s.Ready++
			q := e.queue
			ds.State = "ready"
			ds.Pending = q.Pending()
			ds.Enqueued = q.enqueued.Load()
			ds.BytesSent = q.bytesSent.Load()
			ds.Buffered = q.ch.BufferedBytes()
			ds.Writable = q.IsWritable()
		} else {
			s.Building++
			ds.State = e.builder.State().String()
			ds.Attempts = e.builder.Attempts()
			ds.Waiters = e.builder.Waiters()
		}
		s.Destinations = append(s.Destinations, ds)
		return true
	})
	sort.Slice(s.Destinations, func(i, j int) bool {
		return s.Destinations[i].Dest.String() < s.Destinations[j].Dest.String()
	})
	return s
}
