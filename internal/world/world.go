// Package world holds the grid map, the agent roster and the current tick,
// and answers the validity and occupancy questions the rest of the
// coordinator asks each tick.
package world

import (
	"fmt"
	"sync"
)

// World is the complete simulation state: the immutable grid, the agent
// roster in insertion order, and the tick counter.
type World struct {
	Grid        Grid
	Agents      []*AgentState
	CurrentTick Tick
	Seed        uint64
}

// Manager serializes access to a World. Phase P planning tasks read agent
// poses concurrently while every other phase mutates under the write lock.
type Manager struct {
	mu    sync.RWMutex
	world *World
	index map[AgentID]*AgentState
}

// NewManager wraps a constructed world.
func NewManager(w *World) *Manager {
	index := make(map[AgentID]*AgentState, len(w.Agents))
	for _, a := range w.Agents {
		index[a.ID] = a
	}
	return &Manager{world: w, index: index}
}

// Snapshot of one agent's pose and flags, captured under the lock.
type Pose struct {
	Pos              Cell
	Goal             Cell
	AtGoal           bool
	CollisionStopped bool
}

// AgentPose returns the agent's current pose.
func (m *Manager) AgentPose(id AgentID) (Pose, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.index[id]
	if !ok {
		return Pose{}, false
	}
	return Pose{Pos: a.Pos, Goal: a.Goal, AtGoal: a.AtGoal, CollisionStopped: a.CollisionStopped}, true
}

// Agent returns the live agent record. Callers outside this package must
// only touch it inside WithLock.
func (m *Manager) Agent(id AgentID) (*AgentState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.index[id]
	return a, ok
}

// Agents returns the roster in insertion order. The slice must not be
// mutated.
func (m *Manager) Agents() []*AgentState {
	return m.world.Agents
}

// Grid returns the obstacle map.
func (m *Manager) Grid() Grid {
	return m.world.Grid
}

// CurrentTick returns the world's tick counter.
func (m *Manager) CurrentTick() Tick {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.world.CurrentTick
}

// AdvanceTick increments the tick counter.
func (m *Manager) AdvanceTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.world.CurrentTick++
}

// WithLock runs fn with exclusive access to the world. Used by the execute
// phase to apply all moves as one atomic mutation.
func (m *Manager) WithLock(fn func(w *World)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.world)
}

// IsOccupied reports whether any agent other than exclude sits on the cell.
func (m *Manager) IsOccupied(c Cell, exclude AgentID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isOccupiedLocked(c, exclude)
}

func (m *Manager) isOccupiedLocked(c Cell, exclude AgentID) bool {
	for _, a := range m.world.Agents {
		if a.ID != exclude && a.Pos == c {
			return true
		}
	}
	return false
}

// MoveAgent moves one agent, failing when the target is out of bounds, an
// obstacle, or occupied by another agent. AtGoal latches when the agent
// lands on its goal.
func (m *Manager) MoveAgent(id AgentID, to Cell) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.index[id]
	if !ok {
		return fmt.Errorf("unknown agent %s", id)
	}
	if !m.world.Grid.IsFree(to) {
		return fmt.Errorf("cell %s is not free", to)
	}
	if m.isOccupiedLocked(to, id) {
		return fmt.Errorf("cell %s is occupied", to)
	}

	a.Pos = to
	if a.Pos == a.Goal {
		a.AtGoal = true
	}
	return nil
}

// DetectCollisions returns the ids of all agents sharing a cell with at
// least one other agent, in roster order.
func (m *Manager) DetectCollisions() []AgentID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byCell := make(map[Cell][]AgentID)
	for _, a := range m.world.Agents {
		byCell[a.Pos] = append(byCell[a.Pos], a.ID)
	}

	colliding := make(map[AgentID]bool)
	for _, ids := range byCell {
		if len(ids) > 1 {
			for _, id := range ids {
				colliding[id] = true
			}
		}
	}

	var out []AgentID
	for _, a := range m.world.Agents {
		if colliding[a.ID] {
			out = append(out, a.ID)
		}
	}
	return out
}

// CountActive returns the number of agents not yet at goal.
func (m *Manager) CountActive() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, a := range m.world.Agents {
		if !a.AtGoal {
			n++
		}
	}
	return n
}

// AllAtGoal reports whether every agent has latched AtGoal.
func (m *Manager) AllAtGoal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.world.Agents {
		if !a.AtGoal {
			return false
		}
	}
	return true
}
