// internal/table/engine.go
package table

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EngineState tracks the lifecycle of one room's authoritative engine.
type EngineState int32

const (
	StateStarting EngineState = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s EngineState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Engine owns one room's object registry and runs the fixed-cadence broadcast
// loop. All command handlers are synchronous in-memory mutations guarded by
// Mu; the engine never blocks on I/O. There is no acknowledgement channel for
// commands: the only confirmation a client gets is the state appearing in the
// next snapshot.
type Engine struct {
	Mu       sync.Mutex
	registry *Registry
	state    EngineState

	tickEvery time.Duration
	logger    *logrus.Logger

	// BroadcastFn publishes one ordered snapshot per tick to every channel
	// subscriber of the room. Injected by the room session; if nil, ticks
	// are silently skipped.
	BroadcastFn func(snapshot []TableObject)
}

// NewEngine builds an engine in the Starting state with a fresh deck.
func NewEngine(tickEvery time.Duration, logger *logrus.Logger) *Engine {
	if tickEvery <= 0 {
		tickEvery = 50 * time.Millisecond
	}
	return &Engine{
		registry:  NewRegistry(),
		state:     StateStarting,
		tickEvery: tickEvery,
		logger:    logger,
	}
}

// Run drives the tick loop until ctx is cancelled, then transitions the
// engine to Stopped. It is meant to be run on its own goroutine, one per
// room.
func (e *Engine) Run(ctx context.Context) {
	e.Mu.Lock()
	if e.state != StateStarting {
		// Stop can land before this goroutine is scheduled; the engine must
		// still reach the terminal state.
		if e.state == StateStopping {
			e.state = StateStopped
		}
		e.Mu.Unlock()
		return
	}
	e.state = StateRunning
	e.Mu.Unlock()

	ticker := time.NewTicker(e.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Mu.Lock()
			e.state = StateStopped
			e.Mu.Unlock()
			if e.logger != nil {
				e.logger.Debug("engine tick loop stopped")
			}
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Stop marks the engine as stopping. The owning session cancels the Run
// context right after, which completes the transition to Stopped.
func (e *Engine) Stop() {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	if e.state == StateRunning || e.state == StateStarting {
		e.state = StateStopping
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() EngineState {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return e.state
}

// ApplyMove sets an object's position. Unknown ids are dropped without
// signal; coordinates are not validated (trust boundary is deliberately
// thin, commands are human-input-rate bound).
func (e *Engine) ApplyMove(objectID int, x, y float64) {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	e.registry.SetPosition(objectID, x, y)
}

// ApplyRaise assigns the object the next room-global depth. Depths form a
// strict total order of "most recently raised"; ties are impossible because
// the counter is mutated only under Mu.
func (e *Engine) ApplyRaise(objectID int) {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	e.registry.Raise(objectID)
}

// ApplyFlip sets an object's face orientation. Unknown ids are dropped.
func (e *Engine) ApplyFlip(objectID int, faceUp bool) {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	e.registry.SetFaceUp(objectID, faceUp)
}

// Tick publishes the full ordered snapshot. Called by the tick loop on a
// fixed period; exported so transports and tests can force a broadcast.
// No delta compression or coalescing: every tick is full-state.
func (e *Engine) Tick() {
	e.Mu.Lock()
	if e.state == StateStopping || e.state == StateStopped {
		e.Mu.Unlock()
		return
	}
	snapshot := e.registry.Snapshot()
	fn := e.BroadcastFn
	e.Mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// Snapshot returns the current ordered object state without broadcasting.
func (e *Engine) Snapshot() []TableObject {
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return e.registry.Snapshot()
}
