package reservation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

func id(t *testing.T, s string) world.AgentID {
	t.Helper()
	parsed, err := uuid.Parse(s)
	require.NoError(t, err)
	return parsed
}

func TestInsertDuplicateKeyRejected(t *testing.T) {
	tab := NewTable()
	a := id(t, "00000000-0000-0000-0000-00000000000a")
	b := id(t, "00000000-0000-0000-0000-00000000000b")

	key := Key{X: 1, Y: 2, T: 3}
	assert.True(t, tab.Insert(Entry{Key: key, Agent: a}))
	assert.False(t, tab.Insert(Entry{Key: key, Agent: b}), "second insert on the same key fails")

	entry, ok := tab.Find(key)
	require.True(t, ok)
	assert.Equal(t, a, entry.Agent, "first writer kept the key")
}

func TestEraseByAgentRestoresPriorState(t *testing.T) {
	tab := NewTable()
	a := id(t, "00000000-0000-0000-0000-00000000000a")
	b := id(t, "00000000-0000-0000-0000-00000000000b")

	tab.Insert(Entry{Key: Key{X: 0, Y: 0, T: 0}, Agent: b})

	for i := 0; i < 5; i++ {
		require.True(t, tab.Insert(Entry{Key: Key{X: i, Y: 1, T: i}, Agent: a}))
	}
	assert.Equal(t, 6, tab.Len())
	assert.Equal(t, 5, tab.AgentClaims(a))

	tab.EraseByAgent(a)
	assert.Equal(t, 1, tab.Len())
	assert.Equal(t, 0, tab.AgentClaims(a))

	// b's claim is untouched.
	entry, ok := tab.Find(Key{X: 0, Y: 0, T: 0})
	require.True(t, ok)
	assert.Equal(t, b, entry.Agent)

	// The erased keys are free again.
	assert.True(t, tab.Insert(Entry{Key: Key{X: 0, Y: 1, T: 0}, Agent: b}))
}

func TestIsReservedHonorsExclude(t *testing.T) {
	tab := NewTable()
	a := id(t, "00000000-0000-0000-0000-00000000000a")
	b := id(t, "00000000-0000-0000-0000-00000000000b")

	cell := world.Cell{X: 2, Y: 2}
	tab.Insert(Entry{Key: KeyFor(cell, 7), Agent: a})

	assert.True(t, tab.IsReserved(cell, 7, b))
	assert.False(t, tab.IsReserved(cell, 7, a), "own claim is not a conflict")
	assert.False(t, tab.IsReserved(cell, 8, b), "different tick")
}

func TestReplaceSwapsOwnership(t *testing.T) {
	tab := NewTable()
	a := id(t, "00000000-0000-0000-0000-00000000000a")
	b := id(t, "00000000-0000-0000-0000-00000000000b")

	key := Key{X: 3, Y: 3, T: 1}
	tab.Insert(Entry{Key: key, Agent: a})
	tab.Replace(Entry{Key: key, Agent: b})

	entry, ok := tab.Find(key)
	require.True(t, ok)
	assert.Equal(t, b, entry.Agent)
	assert.Equal(t, 0, tab.AgentClaims(a), "secondary index follows the replace")
	assert.Equal(t, 1, tab.AgentClaims(b))
}

func TestSnapshotAndClear(t *testing.T) {
	tab := NewTable()
	a := id(t, "00000000-0000-0000-0000-00000000000a")

	tab.Insert(Entry{Key: Key{X: 0, Y: 0, T: 0}, Agent: a})
	tab.Insert(Entry{Key: Key{X: 1, Y: 0, T: 1}, Agent: a})

	snap := tab.Snapshot()
	assert.Len(t, snap, 2)

	tab.Clear()
	assert.Equal(t, 0, tab.Len())
	assert.Len(t, snap, 2, "snapshot is independent of the table")
}
