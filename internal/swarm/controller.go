// Package swarm runs the distributed coordination loop: per-agent
// controllers exchanging planned trajectories over the simulated network,
// replanning around predicted conflicts, and a tick orchestrator that
// sequences the per-tick phases across the roster.
package swarm

import (
	"github.com/dutch-casa/uav-swarm-simulator/internal/reservation"
	"github.com/dutch-casa/uav-swarm-simulator/internal/vclock"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

const (
	// MaxWait is how many consecutive planning failures an agent tolerates
	// before a replan is forced and counted.
	MaxWait = 5

	// RedundancyFactor is how many copies of every logical message go out,
	// to tolerate drops.
	RedundancyFactor = 3

	// ConflictLookahead is how many upcoming ticks of an incoming path are
	// compared against our own when predicting conflicts.
	ConflictLookahead = 15

	// IntentTTL is how many ticks a remembered intent stays relevant.
	IntentTTL = 5

	// StateSyncInterval is the periodic full-state broadcast cadence.
	StateSyncInterval = 10

	// StateSyncStarvation forces a full-state broadcast when no state sync
	// has been accepted for this many ticks.
	StateSyncStarvation = 15

	// ParkedPathLength is the constant-path length announced by agents that
	// reached their goal or are quarantined: permanent occupancy as far as
	// any other planner looks.
	ParkedPathLength = 200

	// StuckThreshold is how many ticks without a position change mark an
	// agent deadlocked; quarantined agents use the lower threshold.
	StuckThreshold            = 6
	StuckThresholdQuarantined = 3
)

// Intent is the latest known plan of another agent.
type Intent struct {
	From        world.AgentID
	Next        world.Cell
	Timestamp   world.Tick
	PlannedPath world.Path
}

// Controller is the private, per-agent coordination state. Controllers
// never touch each other's fields; the orchestrator owns the phase
// sequencing that makes that safe.
type Controller struct {
	id    world.AgentID
	agent *world.AgentState

	currentPath world.Path
	pathIndex   int
	lastIntent  world.Cell
	needsReplan bool
	waitCounter int

	knownIntents map[world.AgentID]Intent
	local        *reservation.Table

	lastSeenSeq        map[world.AgentID]uint64
	lastStateBroadcast world.Tick
	lastStateReceived  world.Tick

	clock      vclock.Clock
	localClock uint64

	stuckCounter       int
	lastPosition       world.Cell
	hasLastPosition    bool
	lastSuccessfulMove world.Tick
}

func newController(a *world.AgentState) *Controller {
	return &Controller{
		id:           a.ID,
		agent:        a,
		lastIntent:   a.Pos,
		needsReplan:  true,
		knownIntents: make(map[world.AgentID]Intent),
		local:        reservation.NewTable(),
		lastSeenSeq:  make(map[world.AgentID]uint64),
		clock:        vclock.New(),
	}
}

// remaining returns the not-yet-executed suffix of the current path.
func (c *Controller) remaining() world.Path {
	if c.pathIndex >= len(c.currentPath) {
		return nil
	}
	return c.currentPath[c.pathIndex:]
}

// pathExhausted reports whether there is no queued next cell.
func (c *Controller) pathExhausted() bool {
	return c.pathIndex >= len(c.currentPath)
}

// queuedNext returns the next cell the agent intends to occupy.
func (c *Controller) queuedNext() (world.Cell, bool) {
	if c.pathExhausted() {
		return world.Cell{}, false
	}
	return c.currentPath[c.pathIndex], true
}

// observe merges an incoming clock and advances our own component:
// entrywise maxima first, then own = max(own, merged own) + 1.
func (c *Controller) observe(incoming vclock.Clock) {
	c.clock.Merge(incoming)
	if own := c.clock.Get(c.id); own > c.localClock {
		c.localClock = own
	}
	c.localClock++
	c.clock.Set(c.id, c.localClock)
}

// stamp advances the clock for a send and returns a snapshot to attach.
func (c *Controller) stamp() vclock.Clock {
	c.localClock++
	c.clock.Set(c.id, c.localClock)
	return c.clock.Copy()
}
