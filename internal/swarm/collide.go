package swarm

import (
	"log/slog"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phaseCollide runs after execution: any agents sharing a cell are shoved
// apart. Each colliding agent tries its cardinal neighbors in fixed order
// (+x, -x, +y, -y) and takes the first free, unoccupied one; an agent with
// nowhere to go is quarantined until deadlock resolution releases it.
func (s *Simulation) phaseCollide(tick world.Tick) {
	colliding := s.mgr.DetectCollisions()
	if len(colliding) == 0 {
		return
	}

	s.metrics.RecordCollision()
	slog.Warn("collision detected", "tick", tick, "agents", len(colliding))

	grid := s.mgr.Grid()
	for _, id := range colliding {
		c, ok := s.byID[id]
		if !ok {
			continue
		}

		pose, ok := s.mgr.AgentPose(id)
		if !ok {
			continue
		}

		// An earlier displacement in this loop may already have broken this
		// cell's conflict.
		if !s.mgr.IsOccupied(pose.Pos, id) {
			c.needsReplan = true
			s.metrics.RecordReplan()
			continue
		}

		displaced := false
		for _, candidate := range pose.Pos.DisplacementOrder() {
			if !grid.IsFree(candidate) || s.mgr.IsOccupied(candidate, id) {
				continue
			}
			if err := s.mgr.MoveAgent(id, candidate); err == nil {
				displaced = true
				slog.Info("displaced colliding agent", "agent", id, "to", candidate, "tick", tick)
				break
			}
		}

		if !displaced {
			s.mgr.WithLock(func(w *world.World) {
				c.agent.CollisionStopped = true
			})
			slog.Warn("agent quarantined, no displacement available", "agent", id, "tick", tick)
		}

		c.needsReplan = true
		s.metrics.RecordReplan()
	}
}
