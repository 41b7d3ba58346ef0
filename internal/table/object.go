// internal/table/object.go
package table

import "sort"

// Layout constants for the initial deal grid. Object i sits at column
// (i-1)%PerRow, row (i-1)/PerRow.
const (
	GridXStart   = 100.0
	GridYStart   = 100.0
	GridXSpacing = 35.0
	GridYSpacing = 200.0
	GridPerRow   = 13

	// DeckSize is 52 standard cards plus the joker (id 53).
	DeckSize = 53
	JokerID  = 53
)

// cardNames is indexed by object id (index 0 unused, mirroring the atlas
// frame list the tabletop client renders from).
var cardNames = []string{"back",
	"clubsAce", "clubs2", "clubs3", "clubs4", "clubs5", "clubs6", "clubs7", "clubs8", "clubs9", "clubs10", "clubsJack", "clubsQueen", "clubsKing",
	"diamondsAce", "diamonds2", "diamonds3", "diamonds4", "diamonds5", "diamonds6", "diamonds7", "diamonds8", "diamonds9", "diamonds10", "diamondsJack", "diamondsQueen", "diamondsKing",
	"heartsAce", "hearts2", "hearts3", "hearts4", "hearts5", "hearts6", "hearts7", "hearts8", "hearts9", "hearts10", "heartsJack", "heartsQueen", "heartsKing",
	"spadesAce", "spades2", "spades3", "spades4", "spades5", "spades6", "spades7", "spades8", "spades9", "spades10", "spadesJack", "spadesQueen", "spadesKing",
	"joker",
}

// TableObject is the authoritative state of one movable object on the table.
// The id is assigned once at room creation and never reused or mutated.
type TableObject struct {
	ID     int     `json:"objectId"`
	Name   string  `json:"objectName"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Depth  int     `json:"objectDepth"`
	FaceUp bool    `json:"isFaceUp"`
}

// Registry owns every TableObject in a room. The object set is fixed at
// creation; commands referencing unknown ids are silent no-ops. Registry
// itself does no locking: the owning Engine serializes all access.
type Registry struct {
	objects map[int]*TableObject
	ids     []int // sorted; snapshot order never depends on map iteration
	depth   int   // room-global depth counter, monotonic
}

// NewRegistry builds the 53-object deck laid out on the deal grid, all face
// up at depth 0.
func NewRegistry() *Registry {
	r := &Registry{
		objects: make(map[int]*TableObject, DeckSize),
		ids:     make([]int, 0, DeckSize),
	}
	for i := 1; i <= DeckSize; i++ {
		r.objects[i] = &TableObject{
			ID:     i,
			Name:   cardNames[i],
			X:      float64((i-1)%GridPerRow)*GridXSpacing + GridXStart,
			Y:      float64((i-1)/GridPerRow)*GridYSpacing + GridYStart,
			FaceUp: true,
		}
		r.ids = append(r.ids, i)
	}
	sort.Ints(r.ids)
	return r
}

// Get returns the object with the given id, or nil if absent.
func (r *Registry) Get(id int) *TableObject {
	return r.objects[id]
}

// SetPosition moves an object. Unknown ids are ignored.
func (r *Registry) SetPosition(id int, x, y float64) {
	if obj, ok := r.objects[id]; ok {
		obj.X = x
		obj.Y = y
	}
}

// Raise brings an object to the top of the stacking order by assigning it the
// incremented room-global depth counter. The counter is single-writer, so
// every raise produces a strictly greater depth than all earlier raises.
func (r *Registry) Raise(id int) {
	if obj, ok := r.objects[id]; ok {
		r.depth++
		obj.Depth = r.depth
	}
}

// SetFaceUp flips an object. Unknown ids are ignored.
func (r *Registry) SetFaceUp(id int, faceUp bool) {
	if obj, ok := r.objects[id]; ok {
		obj.FaceUp = faceUp
	}
}

// Snapshot returns a copy of every object in id order, suitable for
// broadcast. Copies are returned so the caller can marshal without racing
// later mutations.
func (r *Registry) Snapshot() []TableObject {
	out := make([]TableObject, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, *r.objects[id])
	}
	return out
}

// Depth reports the current value of the room-global depth counter.
func (r *Registry) Depth() int {
	return r.depth
}
