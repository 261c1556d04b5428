package world

import (
	"bytes"

	"github.com/google/uuid"
)

// AgentID identifies an agent. The total order over IDs (byte-wise) is used
// as the deterministic tie-break throughout the coordinator.
type AgentID = uuid.UUID

// LessID orders agent IDs byte-wise.
func LessID(a, b AgentID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// AgentState is one agent's public state in the world.
type AgentState struct {
	ID   AgentID
	Pos  Cell
	Goal Cell

	// AtGoal latches true the first time Pos == Goal.
	AtGoal bool

	// CollisionStopped quarantines an agent that collided and could not be
	// displaced. Deadlock resolution releases it.
	CollisionStopped bool
}

// Active reports whether the agent still participates in planning and
// movement.
func (a *AgentState) Active() bool {
	return !a.AtGoal && !a.CollisionStopped
}
