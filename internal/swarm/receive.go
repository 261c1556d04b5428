package swarm

import (
	"log/slog"

	"github.com/dutch-casa/uav-swarm-simulator/internal/netsim"
	"github.com/dutch-casa/uav-swarm-simulator/internal/planner"
	"github.com/dutch-casa/uav-swarm-simulator/internal/reservation"
	"github.com/dutch-casa/uav-swarm-simulator/internal/vclock"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phaseReceive rebuilds every controller's local reservation view from the
// wire: own committed path first, then whatever the network delivered this
// tick. Predicted conflicts within the lookahead window mark the loser for
// replanning.
func (s *Simulation) phaseReceive(tick world.Tick) {
	for _, c := range s.controllers {
		c.local.Clear()

		// Our own committed suffix is part of this tick's rebuilt view, so
		// first-writer-wins resolves against our claim by default.
		if rem := c.remaining(); len(rem) > 0 {
			planner.Commit(rem, c.id, c.local, tick)
		}

		for _, msg := range s.net.Receive(c.id, tick) {
			c.observe(msg.VectorClock)

			switch msg.Type {
			case netsim.PathAnnouncement, netsim.GoalReached:
				s.handleIntent(c, msg, tick)
			case netsim.StateSync:
				s.handleStateSync(c, msg, tick)
			}
		}
	}
}

func (s *Simulation) handleIntent(c *Controller, msg netsim.Message, tick world.Tick) {
	c.knownIntents[msg.From] = Intent{
		From:        msg.From,
		Next:        msg.Next,
		Timestamp:   msg.Timestamp,
		PlannedPath: msg.PlannedPath,
	}

	// First writer wins inside one tick's rebuild; failed inserts are the
	// conflict signal and are simply discarded.
	for i, cell := range msg.PlannedPath {
		c.local.Insert(reservation.Entry{
			Key:   reservation.KeyFor(cell, tick+i),
			Agent: msg.From,
		})
	}

	if s.loses(c, msg) {
		if !c.needsReplan {
			c.needsReplan = true
			s.metrics.RecordReplan()
			if s.cfg.Verbose {
				slog.Debug("predicted conflict, yielding", "agent", c.id, "against", msg.From)
			}
		}
	}
}

// loses checks the lookahead window for a shared cell-tick and, if one is
// found, decides with the clock priority: the smaller observed-event count
// wins and keeps its path. Missing clocks fall back to the ID order.
func (s *Simulation) loses(c *Controller, msg netsim.Message) bool {
	conflict := false
	for k := 0; k < ConflictLookahead; k++ {
		idx := c.pathIndex + k
		if idx >= len(c.currentPath) || k >= len(msg.PlannedPath) {
			break
		}
		if c.currentPath[idx] == msg.PlannedPath[k] {
			conflict = true
			break
		}
	}
	if !conflict {
		return false
	}

	theirTS, ok := msg.VectorClock[msg.From]
	if !ok {
		return world.LessID(msg.From, c.id)
	}
	return vclock.Wins(theirTS, msg.From, c.localClock, c.id)
}

// handleStateSync merges a full reservation snapshot. Stale sequence
// numbers are ignored outright; per entry, the sender's view replaces ours
// only when its clock value for the entry's owner is ahead of ours for the
// incumbent, with ties going to the smaller owner ID.
func (s *Simulation) handleStateSync(c *Controller, msg netsim.Message, tick world.Tick) {
	if msg.SequenceNumber <= c.lastSeenSeq[msg.From] {
		return
	}

	for _, entry := range msg.FullState {
		incumbent, exists := c.local.Find(entry.Key)
		if !exists {
			c.local.Insert(entry)
			continue
		}

		senderView := msg.VectorClock[entry.Agent]
		ourView := c.clock.Get(incumbent.Agent)
		if senderView > ourView ||
			(senderView == ourView && world.LessID(entry.Agent, incumbent.Agent)) {
			c.local.Replace(entry)
		}
	}

	c.lastSeenSeq[msg.From] = msg.SequenceNumber
	c.lastStateReceived = tick
}
