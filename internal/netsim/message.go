package netsim

import (
	"github.com/dutch-casa/uav-swarm-simulator/internal/reservation"
	"github.com/dutch-casa/uav-swarm-simulator/internal/vclock"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// MessageType discriminates the broadcast payloads.
type MessageType int

const (
	// PathAnnouncement carries the sender's remaining planned path.
	PathAnnouncement MessageType = iota
	// StateSync carries a full snapshot of the sender's reservation table.
	StateSync
	// GoalReached announces permanent occupancy of the sender's goal cell.
	GoalReached
)

func (t MessageType) String() string {
	switch t {
	case PathAnnouncement:
		return "path_announcement"
	case StateSync:
		return "state_sync"
	case GoalReached:
		return "goal_reached"
	default:
		return "unknown"
	}
}

// Message is one broadcast datagram. Receivers treat every field as
// read-only; slices and maps are shared between fan-out copies.
type Message struct {
	From        world.AgentID
	Type        MessageType
	Next        world.Cell
	Timestamp   world.Tick
	PlannedPath world.Path

	// SequenceNumber orders StateSync messages per sender.
	SequenceNumber uint64

	// VectorClock is the sender's clock at send time.
	VectorClock vclock.Clock

	// FullState is the reservation snapshot, present only on StateSync.
	FullState []reservation.Entry
}
