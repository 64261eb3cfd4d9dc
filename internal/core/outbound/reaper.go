package outbound

import (
	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-outbound/pkg/types"
)

func (m *Manager) reapLoop(ticker *clock.Ticker) {
	defer m.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if n := m.reapIdle(); n > 0 {
				logger.Debug("回收空闲连接", "count", n)
			}
		}
	}
}

// reapIdle 关闭空闲超时且没有待写消息的连接
//
// 条目先被移除再关闭通道，下一次发送会建立新连接。
func (m *Manager) reapIdle() int {
	now := m.clock.Now()
	reaped := 0
	m.registry.Range(func(dest types.Destination, e *entry) bool {
		q := e.queue
		if q == nil || q.Pending() > 0 || q.IdleFor(now) < m.config.IdleTimeout {
			return true
		}
		if m.registry.RemoveIf(dest, e) {
			if err := q.closeIdle(); err != nil {
				logger.Debug("关闭空闲连接失败", "dest", dest.ShortString(), "error", err)
			}
			reaped++
		}
		return true
	})
	return reaped
}
