// internal/table/seats.go
package table

import "sync"

// SeatSlot is one claimable position around the table. A slot is claimed at
// most once for the life of the room; there is no vacate path.
type SeatSlot struct {
	ID        string  `json:"id"`
	SocketID  string  `json:"socket"`
	Name      string  `json:"name"`
	Available bool    `json:"available"`
	Rotation  int     `json:"rotation"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// seatAnchor fixes a slot's camera rotation and spatial anchor on the
// reference 800x600 table. Eight seats, one every 45 degrees clockwise from
// the top.
type seatAnchor struct {
	rotation int
	x, y     float64
}

var defaultSeatLayout = map[string]seatAnchor{
	"1": {rotation: 0, x: 400, y: 20},
	"2": {rotation: 45, x: 680, y: 90},
	"3": {rotation: 90, x: 770, y: 300},
	"4": {rotation: 135, x: 680, y: 510},
	"5": {rotation: 180, x: 400, y: 580},
	"6": {rotation: 225, x: 120, y: 510},
	"7": {rotation: 270, x: 30, y: 300},
	"8": {rotation: 315, x: 120, y: 90},
}

// SeatCoordinator resolves seat-claim races for one room. Claims are
// serialized by a mutex so that two simultaneous claims for the same slot
// produce exactly one winner.
type SeatCoordinator struct {
	mu    sync.Mutex
	slots map[string]*SeatSlot

	// OnChange, when set, is invoked with the full slot table after any
	// successful claim so every participant re-renders availability.
	OnChange func(slots map[string]SeatSlot)
}

// NewSeatCoordinator builds the fixed eight-slot layout, all available.
func NewSeatCoordinator() *SeatCoordinator {
	sc := &SeatCoordinator{slots: make(map[string]*SeatSlot, len(defaultSeatLayout))}
	for id, anchor := range defaultSeatLayout {
		sc.slots[id] = &SeatSlot{
			ID:        id,
			Available: true,
			Rotation:  anchor.rotation,
			X:         anchor.x,
			Y:         anchor.y,
		}
	}
	return sc
}

// Claim attempts to seat the given participant in slotID. It succeeds iff the
// slot exists and is still available at the moment of the claim; the loser of
// a race observes available == false and is rejected silently. A successful
// claim triggers OnChange with the updated table.
func (sc *SeatCoordinator) Claim(slotID, socketID, displayName string) bool {
	sc.mu.Lock()
	slot, ok := sc.slots[slotID]
	if !ok || !slot.Available {
		sc.mu.Unlock()
		return false
	}
	slot.Available = false
	slot.SocketID = socketID
	slot.Name = displayName
	snapshot := sc.snapshotUnsafe()
	onChange := sc.OnChange
	sc.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
	return true
}

// Snapshot returns a copy of the full slot table keyed by slot id.
func (sc *SeatCoordinator) Snapshot() map[string]SeatSlot {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.snapshotUnsafe()
}

func (sc *SeatCoordinator) snapshotUnsafe() map[string]SeatSlot {
	out := make(map[string]SeatSlot, len(sc.slots))
	for id, slot := range sc.slots {
		out[id] = *slot
	}
	return out
}
