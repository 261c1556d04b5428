// Package vclock implements the per-agent vector clock.
//
// The clock serves two roles. On message receipt it advances the way a
// logical clock does: merge entrywise maxima, then set the own component to
// max(own, merged own) + 1. As a priority it is deliberately inverted from
// mutual-exclusion usage: when two agents announce conflicting intents, the
// agent whose clock value is SMALLER wins and keeps its path; the agent
// that has observed more events yields and replans. Ties fall back to the
// byte order of agent IDs, giving every participant the same verdict
// without coordination.
package vclock

import (
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// Clock maps agent IDs to observed event counts.
type Clock map[world.AgentID]uint64

// New returns an empty clock.
func New() Clock {
	return make(Clock)
}

// Get returns the component for an agent, zero when absent.
func (c Clock) Get(id world.AgentID) uint64 {
	return c[id]
}

// Set assigns one component.
func (c Clock) Set(id world.AgentID, v uint64) {
	c[id] = v
}

// Merge folds another clock in, taking the entrywise maximum.
func (c Clock) Merge(other Clock) {
	for id, v := range other {
		if v > c[id] {
			c[id] = v
		}
	}
}

// Copy returns an independent snapshot, attached to outgoing messages.
func (c Clock) Copy() Clock {
	out := make(Clock, len(c))
	for id, v := range c {
		out[id] = v
	}
	return out
}

// Wins reports whether the event (tsA, idA) takes priority over (tsB, idB):
// the smaller timestamp wins, ties broken by smaller agent ID.
func Wins(tsA uint64, idA world.AgentID, tsB uint64, idB world.AgentID) bool {
	if tsA != tsB {
		return tsA < tsB
	}
	return world.LessID(idA, idB)
}
