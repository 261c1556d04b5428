package swarm

import (
	"log/slog"
	"sort"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phaseDeadlock tracks per-agent stuck counters and, when agents have sat
// still past the threshold, breaks the standoff: the lower-priority half of
// the deadlocked set abandons its plan and restarts with staggered waits.
func (s *Simulation) phaseDeadlock(tick world.Tick) {
	var deadlocked []*Controller

	for _, c := range s.controllers {
		pose, ok := s.mgr.AgentPose(c.id)
		if !ok || pose.AtGoal {
			continue
		}

		if !c.hasLastPosition {
			c.lastPosition = pose.Pos
			c.hasLastPosition = true
		}

		if pose.Pos == c.lastPosition {
			c.stuckCounter++
		} else {
			c.stuckCounter = 0
			c.lastPosition = pose.Pos
			c.lastSuccessfulMove = tick
		}

		threshold := StuckThreshold
		if pose.CollisionStopped {
			threshold = StuckThresholdQuarantined
		}
		if c.stuckCounter >= threshold {
			deadlocked = append(deadlocked, c)
		}
	}

	if len(deadlocked) > 0 {
		s.resolveDeadlock(deadlocked, tick)
	}
}

// resolveDeadlock sorts the deadlocked set by ID (ascending: higher
// priority first) and restarts the back half, at least one agent. Restarted
// agents drop their path and reservations, leave quarantine, and get
// staggered wait counters so they do not immediately re-contend.
func (s *Simulation) resolveDeadlock(deadlocked []*Controller, tick world.Tick) {
	sort.Slice(deadlocked, func(i, j int) bool {
		return world.LessID(deadlocked[i].id, deadlocked[j].id)
	})

	count := len(deadlocked) / 2
	if count == 0 {
		count = 1
	}
	selected := deadlocked[len(deadlocked)-count:]

	slog.Info("resolving deadlock", "tick", tick, "deadlocked", len(deadlocked), "restarting", len(selected))

	for rank, c := range selected {
		c.currentPath = nil
		c.pathIndex = 0
		c.needsReplan = true
		c.stuckCounter = 0
		c.local.EraseByAgent(c.id)
		c.waitCounter = 3 + rank%5

		s.mgr.WithLock(func(w *world.World) {
			c.agent.CollisionStopped = false
		})
	}
}
