// internal/table/engine_test.go
package table

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotCollector records broadcast snapshots instead of sending them over
// a websocket.
type snapshotCollector struct {
	mu        sync.Mutex
	snapshots [][]TableObject
}

func (sc *snapshotCollector) broadcastFn(snapshot []TableObject) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.snapshots = append(sc.snapshots, snapshot)
}

func (sc *snapshotCollector) count() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.snapshots)
}

func (sc *snapshotCollector) last() []TableObject {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.snapshots) == 0 {
		return nil
	}
	return sc.snapshots[len(sc.snapshots)-1]
}

func newTestEngine() (*Engine, *snapshotCollector) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	e := NewEngine(10*time.Millisecond, logger)
	sc := &snapshotCollector{}
	e.BroadcastFn = sc.broadcastFn
	return e, sc
}

func TestEngineMoveThenTick(t *testing.T) {
	e, sc := newTestEngine()

	e.ApplyMove(1, 250, 300)
	e.Tick()

	snap := sc.last()
	require.Len(t, snap, DeckSize)
	assert.Equal(t, 250.0, snap[0].X)
	assert.Equal(t, 300.0, snap[0].Y)

	// Every other object is unchanged from the deal grid.
	fresh := NewRegistry().Snapshot()
	for i := 1; i < DeckSize; i++ {
		assert.Equal(t, fresh[i], snap[i])
	}
}

func TestEngineIgnoresUnknownIDs(t *testing.T) {
	e, sc := newTestEngine()

	before := e.Snapshot()
	e.ApplyMove(999, 1, 1)
	e.ApplyRaise(999)
	e.ApplyFlip(999, false)
	e.Tick()

	assert.Equal(t, before, sc.last())
}

func TestEngineRaiseOrdering(t *testing.T) {
	e, _ := newTestEngine()

	e.ApplyRaise(10)
	e.ApplyRaise(20)
	e.ApplyRaise(10)

	snap := e.Snapshot()
	var d10, d20 int
	for _, obj := range snap {
		switch obj.ID {
		case 10:
			d10 = obj.Depth
		case 20:
			d20 = obj.Depth
		}
	}
	// Object 10 was raised last, so it must be on top.
	assert.Greater(t, d10, d20)
	assert.NotZero(t, d20)
}

func TestEngineFlip(t *testing.T) {
	e, sc := newTestEngine()

	e.ApplyFlip(3, false)
	e.Tick()

	snap := sc.last()
	assert.False(t, snap[2].FaceUp)
	assert.True(t, snap[3].FaceUp)
}

func TestEngineTickLoopLifecycle(t *testing.T) {
	e, sc := newTestEngine()
	assert.Equal(t, StateStarting, e.State())

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)

	require.Eventually(t, func() bool {
		return e.State() == StateRunning
	}, time.Second, 5*time.Millisecond, "engine should reach Running")

	// The loop must publish full snapshots on its own cadence.
	require.Eventually(t, func() bool {
		return sc.count() >= 3
	}, time.Second, 5*time.Millisecond, "engine should broadcast every tick")

	e.Stop()
	cancel()
	require.Eventually(t, func() bool {
		return e.State() == StateStopped
	}, time.Second, 5*time.Millisecond, "engine should stop after cancel")

	// A stopped engine never broadcasts again.
	stopped := sc.count()
	e.Tick()
	assert.Equal(t, stopped, sc.count())
}

// TestEngineStopBeforeRunReachesStopped covers the race where the owner stops
// the engine before the Run goroutine gets scheduled; the engine must still
// end in the terminal state.
func TestEngineStopBeforeRunReachesStopped(t *testing.T) {
	e, _ := newTestEngine()

	e.Stop()
	assert.Equal(t, StateStopping, e.State())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Run(ctx)

	assert.Equal(t, StateStopped, e.State())
}

func TestEngineBroadcastsOrderedByTick(t *testing.T) {
	e, sc := newTestEngine()

	e.ApplyMove(1, 10, 10)
	e.Tick()
	e.ApplyMove(1, 20, 20)
	e.Tick()

	sc.mu.Lock()
	defer sc.mu.Unlock()
	require.Len(t, sc.snapshots, 2)
	assert.Equal(t, 10.0, sc.snapshots[0][0].X)
	assert.Equal(t, 20.0, sc.snapshots[1][0].X)
}
