package swarm

import (
	"github.com/dutch-casa/uav-swarm-simulator/internal/netsim"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// phaseBroadcast sends every controller's intent (and, periodically or
// when starved of syncs, a full state snapshot) through the lossy medium.
// Each logical message goes out RedundancyFactor times. Returns the number
// of sends this tick.
func (s *Simulation) phaseBroadcast(tick world.Tick) int {
	for _, c := range s.controllers {
		for from, intent := range c.knownIntents {
			if intent.Timestamp < tick-IntentTTL {
				delete(c.knownIntents, from)
			}
		}
	}

	sent := 0
	for _, c := range s.controllers {
		pose, ok := s.mgr.AgentPose(c.id)
		if !ok {
			continue
		}

		announcement := s.buildAnnouncement(c, pose, tick)
		announcement.VectorClock = c.stamp()
		sent += s.transmit(announcement)

		if tick%StateSyncInterval == 0 || tick-c.lastStateReceived >= StateSyncStarvation {
			sync := netsim.Message{
				From:           c.id,
				Type:           netsim.StateSync,
				Next:           pose.Pos,
				Timestamp:      tick,
				SequenceNumber: uint64(tick),
				FullState:      c.local.Snapshot(),
			}
			sync.VectorClock = c.stamp()
			c.lastStateBroadcast = tick
			sent += s.transmit(sync)
		}
	}
	return sent
}

func (s *Simulation) buildAnnouncement(c *Controller, pose world.Pose, tick world.Tick) netsim.Message {
	if pose.AtGoal || pose.CollisionStopped {
		// Parked agents announce a long constant path: permanent occupancy
		// as far as any other planner looks ahead.
		parked := make(world.Path, ParkedPathLength)
		for i := range parked {
			parked[i] = pose.Pos
		}
		msgType := netsim.PathAnnouncement
		if pose.AtGoal {
			msgType = netsim.GoalReached
		}
		return netsim.Message{
			From:        c.id,
			Type:        msgType,
			Next:        pose.Pos,
			Timestamp:   tick,
			PlannedPath: parked,
		}
	}

	rem := c.remaining()
	if len(rem) == 0 {
		rem = world.Path{pose.Pos}
	}
	return netsim.Message{
		From:        c.id,
		Type:        netsim.PathAnnouncement,
		Next:        rem[0],
		Timestamp:   tick,
		PlannedPath: rem,
	}
}

func (s *Simulation) transmit(msg netsim.Message) int {
	for i := 0; i < RedundancyFactor; i++ {
		s.net.Send(msg)
		s.metrics.RecordMessageSent()
	}
	return RedundancyFactor
}
