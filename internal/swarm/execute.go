package swarm

import (
	"log/slog"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phaseExecute applies all queued moves under one world mutation so the
// step is simultaneous. Vertex conflicts and head-on swaps are deliberately
// allowed through here: the collision phase right after this one detects
// and resolves them. Only moves into walls or out of bounds are rejected.
func (s *Simulation) phaseExecute(tick world.Tick) {
	type move struct {
		c  *Controller
		to world.Cell
	}

	var moves []move
	for _, c := range s.controllers {
		pose, ok := s.mgr.AgentPose(c.id)
		if !ok || pose.AtGoal || pose.CollisionStopped {
			continue
		}
		next, queued := c.queuedNext()
		if !queued {
			continue
		}
		moves = append(moves, move{c: c, to: next})
	}

	s.mgr.WithLock(func(w *world.World) {
		for _, m := range moves {
			if !w.Grid.IsFree(m.to) {
				if !m.c.needsReplan {
					m.c.needsReplan = true
					s.metrics.RecordReplan()
				}
				continue
			}

			m.c.agent.Pos = m.to
			m.c.pathIndex++
			m.c.lastIntent = m.to

			if m.c.agent.Pos == m.c.agent.Goal {
				m.c.agent.AtGoal = true
				slog.Info("agent reached goal", "agent", m.c.id, "tick", tick)
			}
		}
	})
}
