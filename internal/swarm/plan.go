package swarm

import (
	"log/slog"
	"sync"

	"github.com/dutch-casa/uav-swarm-simulator/internal/planner"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phasePlan replans every active controller that needs it. Controllers are
// independent here — each task reads its own reservation table and a pose
// snapshot captured under the world lock — so planning fans out over a
// bounded worker pool.
func (s *Simulation) phasePlan(tick world.Tick) {
	var candidates []*Controller
	for _, c := range s.controllers {
		pose, ok := s.mgr.AgentPose(c.id)
		if !ok || pose.AtGoal || pose.CollisionStopped {
			continue
		}
		if c.needsReplan || c.pathExhausted() {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *Controller) {
			defer wg.Done()
			defer func() { <-sem }()
			s.planOne(c, tick)
		}(c)
	}
	wg.Wait()
}

// planOne runs one controller's planning attempt against its own local
// reservations. Only this controller's fields are touched.
func (s *Simulation) planOne(c *Controller, tick world.Tick) {
	pose, ok := s.mgr.AgentPose(c.id)
	if !ok {
		return
	}

	planner.Clear(c.id, c.local)

	path := s.planner.PlanPath(pose.Pos, pose.Goal, c.local, c.id, tick)
	if len(path) > 0 {
		c.currentPath = path
		c.pathIndex = 0
		c.needsReplan = false
		c.waitCounter = 0
		planner.Commit(path, c.id, c.local, tick)

		if s.cfg.Verbose {
			slog.Debug("planned path", "agent", c.id, "length", len(path), "tick", tick)
		}
		return
	}

	// No path under the current reservations: wait, and after MaxWait
	// consecutive failures force a replan so the stall is visible in the
	// replan counter.
	c.waitCounter++
	if c.waitCounter >= MaxWait {
		c.needsReplan = true
		s.metrics.RecordReplan()
	}
}
