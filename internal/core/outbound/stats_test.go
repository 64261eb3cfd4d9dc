package outbound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestManager_Stats 测试快照同时包含就绪与建连中的目的端
func TestManager_Stats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.manager.Enqueue(ctx, envelope("hello"), env.dest))

	g := newGate()
	defer g.open()
	env.sender.SetConnectHook(g.hook)
	pending := unreachable("task-2")
	go func() {
		_ = env.manager.Enqueue(context.Background(), envelope("x"), pending)
	}()
	waitForWaiters(t, env.manager, pending, 1)

	s := env.manager.Stats()
	assert.Equal(t, 1, s.Ready)
	assert.Equal(t, 1, s.Building)
	require.Len(t, s.Destinations, 2)

	byDest := map[string]DestinationStats{}
	for _, ds := range s.Destinations {
		byDest[ds.Dest.String()] = ds
	}

	ready := byDest[env.dest.String()]
	assert.Equal(t, "ready", ready.State)
	assert.Equal(t, int64(1), ready.Enqueued)
	assert.True(t, ready.Writable)

	building := byDest[pending.String()]
	assert.Equal(t, "pending", building.State)
	assert.Equal(t, 1, building.Attempts)
	assert.Equal(t, 1, building.Waiters)
}
