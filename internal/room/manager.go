// internal/room/manager.go
package room

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/cardtable/internal/cache"
	"github.com/cardtable/cardtable/internal/database"
	"github.com/cardtable/cardtable/internal/models"
)

const roomCodeLength = 8
const roomCodeCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// EventPublisher pushes room lifecycle records to an external queue.
// *cache.Publisher satisfies it; nil disables publishing.
type EventPublisher interface {
	PublishRoomEvent(ctx context.Context, record cache.RoomEventRecord) error
}

// Manager is the process-wide directory of live room sessions. It creates,
// looks up and destroys sessions, mirrors the directory into durable storage
// (fire-and-forget; in-memory state is authoritative immediately), and runs
// the per-room TTL teardown jobs.
type Manager struct {
	mu      sync.Mutex
	rooms   map[string]*Session
	listing map[string]models.RoomDirectoryEntry

	store  *database.Store // nil => persistence disabled
	events EventPublisher  // nil => event publishing disabled
	sched  gocron.Scheduler

	ttl       time.Duration
	tickEvery time.Duration
	logger    *logrus.Logger
}

// NewManager builds a manager and starts its teardown scheduler.
func NewManager(store *database.Store, events EventPublisher, ttl, tickEvery time.Duration, logger *logrus.Logger) (*Manager, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create teardown scheduler: %w", err)
	}
	m := &Manager{
		rooms:     make(map[string]*Session),
		listing:   make(map[string]models.RoomDirectoryEntry),
		store:     store,
		events:    events,
		sched:     sched,
		ttl:       ttl,
		tickEvery: tickEvery,
		logger:    logger,
	}
	sched.Start()
	return m, nil
}

// generateCode produces a short random room code.
func generateCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := crand.Read(buf); err != nil {
		// crypto/rand failing means the process is in a bad way; fall back
		// to a time-derived code so room creation still works.
		return fallbackCode(time.Now().UnixNano())
	}
	for i, b := range buf {
		buf[i] = roomCodeCharset[int(b)%len(roomCodeCharset)]
	}
	return string(buf)
}

// fallbackCode derives a code from the low bits of a nanosecond timestamp,
// which change on every call; the high bits are nearly constant and would
// collide back-to-back.
func fallbackCode(nano int64) string {
	return fmt.Sprintf("%08x", uint64(nano)&0xffffffff)
}

// Create generates a collision-checked room code, instantiates the session
// (one engine goroutine per room), persists the directory row and schedules
// the TTL teardown. It returns the new room's code.
func (m *Manager) Create(maxPlayers int, roomName, ownerName, description string) (string, error) {
	if maxPlayers <= 0 {
		return "", fmt.Errorf("maxPlayers must be positive, got %d", maxPlayers)
	}
	if roomName == "" {
		roomName = ownerName + "'s room"
	}

	m.mu.Lock()
	code := generateCode()
	for _, exists := m.rooms[code]; exists; _, exists = m.rooms[code] {
		code = generateCode()
	}
	sess := newSession(code, roomName, ownerName, description, maxPlayers, m.tickEvery, m.logger)
	m.rooms[code] = sess
	m.listing[code] = models.RoomDirectoryEntry{
		RoomCode:   code,
		NumPlayers: 0,
		MaxPlayers: maxPlayers,
		RoomName:   roomName,
		RoomOwner:  ownerName,
		GameDesc:   description,
	}
	entry := m.listing[code]
	m.mu.Unlock()

	m.scheduleTeardown(code)
	m.persistAsync(func(ctx context.Context) error {
		return m.store.InsertRoom(ctx, entry)
	}, "insert room row", code)
	m.publishEvent(code, "room_created", 0, maxPlayers)

	m.logger.WithFields(logrus.Fields{
		"room": code,
		"name": roomName,
	}).Info("Room created")
	return code, nil
}

// scheduleTeardown registers the one-shot TTL job for a room, tagged by room
// code so manual deletion can cancel it. The job body is Delete, which is
// idempotent, so a double-fire is harmless.
func (m *Manager) scheduleTeardown(code string) {
	_, err := m.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(m.ttl))),
		gocron.NewTask(func() {
			m.logger.WithField("room", code).Info("Room TTL elapsed, tearing down")
			m.Delete(code)
		}),
		gocron.WithTags("room:"+code),
	)
	if err != nil {
		m.logger.WithField("room", code).Errorf("Failed to schedule teardown: %v", err)
	}
}

// Lookup returns the live session for a code, or nil if absent. Callers gate
// joins on existence and capacity.
func (m *Manager) Lookup(code string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[code]
}

// Delete tears a room down: removes the in-memory entry, cancels the
// teardown job, stops the engine and deletes the persisted row. Deleting an
// absent code is a no-op, never an error.
func (m *Manager) Delete(code string) {
	m.mu.Lock()
	sess, ok := m.rooms[code]
	if ok {
		delete(m.rooms, code)
	}
	delete(m.listing, code)
	m.mu.Unlock()

	if !ok {
		return
	}

	// Stop empties the participant set, so read the count first; the teardown
	// event reports how many players were in the room when it went away.
	numPlayers := sess.CurrentPlayers()
	m.sched.RemoveByTags("room:" + code)
	sess.Stop()

	m.persistAsync(func(ctx context.Context) error {
		return m.store.DeleteRoom(ctx, code)
	}, "delete room row", code)
	m.publishEvent(code, "room_deleted", numPlayers, sess.MaxPlayers)

	m.logger.WithField("room", code).Info("Room deleted")
}

// ListActive returns the directory entries for the discovery page, ordered
// by room code. When a durable store is configured the listing snapshot is
// replaced wholesale from storage on every call; otherwise it reflects the
// live sessions.
func (m *Manager) ListActive(ctx context.Context) []models.RoomDirectoryEntry {
	if m.store != nil {
		rows, err := m.store.ListRooms(ctx)
		if err != nil {
			m.logger.Errorf("Directory listing query failed, serving in-memory snapshot: %v", err)
		} else {
			m.mu.Lock()
			m.listing = make(map[string]models.RoomDirectoryEntry, len(rows))
			for _, e := range rows {
				m.listing[e.RoomCode] = e
			}
			m.mu.Unlock()
		}
	}

	m.mu.Lock()
	entries := make([]models.RoomDirectoryEntry, 0, len(m.listing))
	for code, e := range m.listing {
		// Live player counts beat whatever storage has caught up to.
		if sess, ok := m.rooms[code]; ok {
			e.NumPlayers = sess.CurrentPlayers()
		}
		entries = append(entries, e)
	}
	m.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].RoomCode < entries[j].RoomCode })
	return entries
}

// NotifyPlayerCount mirrors a session's player count into the durable row.
func (m *Manager) NotifyPlayerCount(code string, numPlayers int) {
	m.mu.Lock()
	if e, ok := m.listing[code]; ok {
		e.NumPlayers = numPlayers
		m.listing[code] = e
	}
	m.mu.Unlock()

	m.persistAsync(func(ctx context.Context) error {
		return m.store.UpdateNumPlayers(ctx, code, numPlayers)
	}, "update num_players", code)
}

// Shutdown stops every room and the scheduler. Used on process exit and in
// tests.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	m.mu.Unlock()

	for _, code := range codes {
		m.Delete(code)
	}
	if err := m.sched.Shutdown(); err != nil {
		m.logger.Warnf("Scheduler shutdown error: %v", err)
	}
}

// persistAsync runs a storage mutation off the hot path. Storage errors are
// logged and the in-memory state remains ground truth; there is no retry and
// no rollback.
func (m *Manager) persistAsync(fn func(ctx context.Context) error, op, code string) {
	if m.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.logger.WithField("room", code).Errorf("Storage %s failed: %v", op, err)
		}
	}()
}

// publishEvent pushes a lifecycle record to the event queue, if configured.
func (m *Manager) publishEvent(code, event string, numPlayers, maxPlayers int) {
	if m.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := m.events.PublishRoomEvent(ctx, cache.RoomEventRecord{
			RoomCode:   code,
			Event:      event,
			NumPlayers: numPlayers,
			MaxPlayers: maxPlayers,
			Timestamp:  time.Now().Unix(),
		})
		if err != nil {
			m.logger.WithField("room", code).Warnf("Failed to publish %s event: %v", event, err)
		}
	}()
}
