// Package reservation implements the spatio-temporal reservation table:
// (cell, tick) → agent claims with a secondary per-agent index so one
// agent's claims can be erased in a single pass.
package reservation

import (
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// Key identifies one cell at one tick.
type Key struct {
	X int
	Y int
	T world.Tick
}

// KeyFor builds a key from a cell and tick.
func KeyFor(c world.Cell, t world.Tick) Key {
	return Key{X: c.X, Y: c.Y, T: t}
}

// Cell returns the spatial part of the key.
func (k Key) Cell() world.Cell {
	return world.Cell{X: k.X, Y: k.Y}
}

// Entry is one claim: a cell-tick owned by an agent.
type Entry struct {
	Key   Key
	Agent world.AgentID
}

// Table maps cell-ticks to owning agents. The primary index is unique per
// key; the secondary index groups keys by owner. A table has exactly one
// writer (the controller that owns it), so there is no internal locking.
type Table struct {
	byKey   map[Key]world.AgentID
	byAgent map[world.AgentID]map[Key]struct{}
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		byKey:   make(map[Key]world.AgentID),
		byAgent: make(map[world.AgentID]map[Key]struct{}),
	}
}

// Insert adds a claim. It fails (returns false) when the key is already
// taken; callers use that as the conflict signal.
func (t *Table) Insert(e Entry) bool {
	if _, exists := t.byKey[e.Key]; exists {
		return false
	}
	t.byKey[e.Key] = e.Agent

	set, ok := t.byAgent[e.Agent]
	if !ok {
		set = make(map[Key]struct{})
		t.byAgent[e.Agent] = set
	}
	set[e.Key] = struct{}{}
	return true
}

// Replace overwrites whatever claim holds the key, maintaining both
// indices. Used when a state sync wins against the incumbent entry.
func (t *Table) Replace(e Entry) {
	if owner, exists := t.byKey[e.Key]; exists {
		t.removeFromAgent(owner, e.Key)
	}
	t.byKey[e.Key] = e.Agent

	set, ok := t.byAgent[e.Agent]
	if !ok {
		set = make(map[Key]struct{})
		t.byAgent[e.Agent] = set
	}
	set[e.Key] = struct{}{}
}

// Find returns the claim at the key, if any.
func (t *Table) Find(k Key) (Entry, bool) {
	owner, ok := t.byKey[k]
	if !ok {
		return Entry{}, false
	}
	return Entry{Key: k, Agent: owner}, true
}

// EraseByAgent removes every claim owned by the agent. Cost is linear in
// the number of that agent's claims, not in the table size.
func (t *Table) EraseByAgent(id world.AgentID) {
	set, ok := t.byAgent[id]
	if !ok {
		return
	}
	for k := range set {
		delete(t.byKey, k)
	}
	delete(t.byAgent, id)
}

func (t *Table) removeFromAgent(id world.AgentID, k Key) {
	if set, ok := t.byAgent[id]; ok {
		delete(set, k)
		if len(set) == 0 {
			delete(t.byAgent, id)
		}
	}
}

// IsReserved reports whether some agent other than exclude holds the
// cell-tick.
func (t *Table) IsReserved(c world.Cell, tick world.Tick, exclude world.AgentID) bool {
	owner, ok := t.byKey[KeyFor(c, tick)]
	return ok && owner != exclude
}

// Len returns the number of claims in the table.
func (t *Table) Len() int {
	return len(t.byKey)
}

// AgentClaims returns how many claims the agent holds.
func (t *Table) AgentClaims(id world.AgentID) int {
	return len(t.byAgent[id])
}

// Clear empties the table.
func (t *Table) Clear() {
	t.byKey = make(map[Key]world.AgentID)
	t.byAgent = make(map[world.AgentID]map[Key]struct{})
}

// Snapshot returns all claims as a flat slice, suitable for shipping in a
// state-sync message. Order is unspecified.
func (t *Table) Snapshot() []Entry {
	out := make([]Entry, 0, len(t.byKey))
	for k, owner := range t.byKey {
		out = append(out, Entry{Key: k, Agent: owner})
	}
	return out
}
