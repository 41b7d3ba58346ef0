// internal/room/session.go
package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/cardtable/internal/table"
)

// Participant is a single client's presence on a room's channel. Outbound
// messages are fanned out through OutChan by the transport's write pump.
type Participant struct {
	SocketID uuid.UUID
	Nickname string
	Cancel   func()
	OutChan  chan interface{}

	mu     sync.Mutex
	closed bool
}

// Write pushes a message onto the participant's OutChan non-blockingly.
// Snapshots arrive every tick, so a full channel just means this participant
// misses one frame and catches up on the next. Write and closeOut share mu so
// a broadcast racing a disconnect can never send on a closed channel.
func (p *Participant) Write(msg interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.OutChan <- msg:
	default:
	}
}

// closeOut closes OutChan exactly once so the write pump unblocks. Further
// Writes become no-ops.
func (p *Participant) closeOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.OutChan)
}

// Session bundles one room's authoritative engine, seat coordinator and
// participant set behind a single isolated channel. Sessions are owned
// exclusively by the Manager; rooms share no mutable state with each other.
type Session struct {
	Code        string
	Name        string
	Owner       string
	Description string
	MaxPlayers  int
	CreatedAt   time.Time

	Engine *table.Engine
	Seats  *table.SeatCoordinator

	Mu           sync.Mutex
	participants map[uuid.UUID]*Participant
	cancelEngine context.CancelFunc

	logger *logrus.Logger
}

// envelope types for the room channel wire protocol.

type objectUpdatesMsg struct {
	Type    string              `json:"type"`
	Objects []table.TableObject `json:"objects"`
}

type seatAssignmentsMsg struct {
	Type  string                    `json:"type"`
	Seats map[string]table.SeatSlot `json:"seats"`
}

type chatMsg struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// newSession wires an engine and seat coordinator into a session and starts
// the engine's tick loop on its own goroutine.
func newSession(code, name, owner, desc string, maxPlayers int, tickEvery time.Duration, logger *logrus.Logger) *Session {
	s := &Session{
		Code:         code,
		Name:         name,
		Owner:        owner,
		Description:  desc,
		MaxPlayers:   maxPlayers,
		CreatedAt:    time.Now(),
		Engine:       table.NewEngine(tickEvery, logger),
		Seats:        table.NewSeatCoordinator(),
		participants: make(map[uuid.UUID]*Participant),
		logger:       logger,
	}

	s.Engine.BroadcastFn = func(snapshot []table.TableObject) {
		s.BroadcastAll(objectUpdatesMsg{Type: "objectUpdates", Objects: snapshot})
	}
	s.Seats.OnChange = func(slots map[string]table.SeatSlot) {
		s.BroadcastAll(seatAssignmentsMsg{Type: "seatAssignments", Seats: slots})
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelEngine = cancel
	go s.Engine.Run(ctx)

	return s
}

// CurrentPlayers reports how many participants are connected.
func (s *Session) CurrentPlayers() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return len(s.participants)
}

// AddParticipant registers a connection, re-checking capacity under the lock
// so two simultaneous joiners cannot both take the last slot.
func (s *Session) AddParticipant(p *Participant) error {
	s.Mu.Lock()
	if len(s.participants) >= s.MaxPlayers {
		s.Mu.Unlock()
		return fmt.Errorf("room %s is full (%d/%d)", s.Code, s.MaxPlayers, s.MaxPlayers)
	}
	if old, ok := s.participants[p.SocketID]; ok && old != p {
		// Replacing a stale connection for the same socket identity.
		old.closeOut()
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	s.participants[p.SocketID] = p
	s.Mu.Unlock()

	// Seed the newcomer so they render before the next tick lands.
	p.Write(seatAssignmentsMsg{Type: "seatAssignments", Seats: s.Seats.Snapshot()})
	p.Write(objectUpdatesMsg{Type: "objectUpdates", Objects: s.Engine.Snapshot()})
	return nil
}

// RemoveParticipant drops a connection. The seat the participant may hold is
// deliberately not released.
func (s *Session) RemoveParticipant(socketID uuid.UUID) {
	s.Mu.Lock()
	p, ok := s.participants[socketID]
	if ok {
		delete(s.participants, socketID)
	}
	s.Mu.Unlock()

	if !ok {
		return
	}
	p.closeOut()
	if p.Cancel != nil {
		p.Cancel()
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"room": s.Code, "socket": socketID}).Info("Participant left")
	}
}

// BroadcastAll fans a message out to every participant in this room only.
func (s *Session) BroadcastAll(msg interface{}) {
	s.Mu.Lock()
	conns := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		conns = append(conns, p)
	}
	s.Mu.Unlock()

	for _, p := range conns {
		p.Write(msg)
	}
}

// RelayChat echoes a chat line verbatim to the whole room.
func (s *Session) RelayChat(msg string) {
	s.BroadcastAll(chatMsg{Type: "chat message", Msg: msg})
}

// Stop tears the session down: the engine leaves Running, its tick goroutine
// exits, and every participant channel is closed. Safe to call more than
// once.
func (s *Session) Stop() {
	s.Engine.Stop()
	if s.cancelEngine != nil {
		s.cancelEngine()
	}

	s.Mu.Lock()
	conns := s.participants
	s.participants = make(map[uuid.UUID]*Participant)
	s.Mu.Unlock()

	for _, p := range conns {
		p.closeOut()
		if p.Cancel != nil {
			p.Cancel()
		}
	}
}
