package swarm

import (
	"log/slog"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phaseValidate is the pre-execution check: when two or more agents queue
// the same next cell, every contender replans immediately and sequentially
// against its own reservations. Nothing moves here; only paths change.
func (s *Simulation) phaseValidate(tick world.Tick) {
	queued := make(map[*Controller]world.Cell)
	contenders := make(map[world.Cell]int)
	for _, c := range s.controllers {
		pose, ok := s.mgr.AgentPose(c.id)
		if !ok || pose.AtGoal || pose.CollisionStopped {
			continue
		}
		next, has := c.queuedNext()
		if !has {
			continue
		}
		queued[c] = next
		contenders[next]++
	}

	var flagged []*Controller
	for _, c := range s.controllers {
		if next, ok := queued[c]; ok && contenders[next] >= 2 {
			flagged = append(flagged, c)
		}
	}

	for _, c := range flagged {
		c.needsReplan = true
		s.metrics.RecordReplan()
		if s.cfg.Verbose {
			slog.Debug("pre-execution conflict, emergency replan", "agent", c.id, "tick", tick)
		}
		s.planOne(c, tick)
	}
}
