// internal/table/object_test.go
package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInitialLayout(t *testing.T) {
	r := NewRegistry()

	snapshot := r.Snapshot()
	require.Len(t, snapshot, DeckSize)

	// Snapshot is in id order.
	for i, obj := range snapshot {
		assert.Equal(t, i+1, obj.ID)
	}

	// Object 1 sits at the grid origin.
	first := r.Get(1)
	require.NotNil(t, first)
	assert.Equal(t, GridXStart, first.X)
	assert.Equal(t, GridYStart, first.Y)
	assert.Equal(t, "clubsAce", first.Name)
	assert.True(t, first.FaceUp)
	assert.Equal(t, 0, first.Depth)

	// The joker (53) lands in column 0 of row 4.
	joker := r.Get(JokerID)
	require.NotNil(t, joker)
	assert.Equal(t, "joker", joker.Name)
	assert.Equal(t, GridXStart, joker.X)
	assert.Equal(t, GridYStart+4*GridYSpacing, joker.Y)

	// Second row starts at id 14.
	obj14 := r.Get(14)
	require.NotNil(t, obj14)
	assert.Equal(t, GridXStart, obj14.X)
	assert.Equal(t, GridYStart+GridYSpacing, obj14.Y)
}

func TestRegistrySetPosition(t *testing.T) {
	r := NewRegistry()

	r.SetPosition(1, 250, 300)
	obj := r.Get(1)
	assert.Equal(t, 250.0, obj.X)
	assert.Equal(t, 300.0, obj.Y)

	// Unknown ids leave the registry untouched.
	before := r.Snapshot()
	r.SetPosition(0, 1, 1)
	r.SetPosition(-5, 1, 1)
	r.SetPosition(DeckSize+1, 1, 1)
	assert.Equal(t, before, r.Snapshot())
}

func TestRegistryRaiseMonotonic(t *testing.T) {
	r := NewRegistry()

	// Raises, including repeats of the same id, always produce strictly
	// increasing depths in call order.
	sequence := []int{5, 12, 5, 53, 5, 1}
	seen := map[int]bool{}
	last := 0
	for _, id := range sequence {
		r.Raise(id)
		depth := r.Get(id).Depth
		assert.Greater(t, depth, last)
		assert.False(t, seen[depth], "depth %d assigned twice", depth)
		seen[depth] = true
		last = depth
	}
	assert.Equal(t, len(sequence), r.Depth())

	// Raising an unknown id must not consume a depth value.
	r.Raise(999)
	assert.Equal(t, len(sequence), r.Depth())
}

func TestRegistrySetFaceUp(t *testing.T) {
	r := NewRegistry()

	r.SetFaceUp(7, false)
	assert.False(t, r.Get(7).FaceUp)
	r.SetFaceUp(7, true)
	assert.True(t, r.Get(7).FaceUp)

	r.SetFaceUp(999, false) // no-op
	assert.Nil(t, r.Get(999))
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()

	snap := r.Snapshot()
	snap[0].X = -1

	assert.Equal(t, GridXStart, r.Get(1).X, "mutating a snapshot must not touch the registry")
}
