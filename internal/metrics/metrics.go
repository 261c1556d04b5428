// Package metrics collects the run counters and the per-tick trace.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// Snapshot is the final, immutable view of a run's counters.
type Snapshot struct {
	TotalMessages     uint64        `json:"total_messages"`
	DroppedMessages   uint64        `json:"dropped_messages"`
	TotalReplans      uint64        `json:"total_replans"`
	Makespan          world.Tick    `json:"makespan"`
	CollisionDetected bool          `json:"collision_detected"`
	WallTime          time.Duration `json:"-"`
}

// DropRate returns dropped/sent, zero when nothing was sent.
func (s Snapshot) DropRate() float64 {
	if s.TotalMessages == 0 {
		return 0
	}
	return float64(s.DroppedMessages) / float64(s.TotalMessages)
}

// AgentPosition is one agent's cell at trace time.
type AgentPosition struct {
	Agent world.AgentID
	Pos   world.Cell
}

// TickTrace records one tick: every agent position (roster order), the
// active count and the number of messages sent that tick.
type TickTrace struct {
	Tick         world.Tick
	Positions    []AgentPosition
	ActiveAgents int
	MessagesSent int
}

// Collector accumulates counters during a run. Message and replan counters
// are atomic so the parallel planning phase can bump them; the trace vector
// is guarded by its own mutex.
type Collector struct {
	totalMessages   atomic.Uint64
	droppedMessages atomic.Uint64
	totalReplans    atomic.Uint64
	collision       atomic.Bool
	makespan        world.Tick

	traceMu sync.Mutex
	traces  []TickTrace

	start    time.Time
	wallTime time.Duration
}

// NewCollector returns a zeroed collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordMessageSent bumps the sent counter.
func (c *Collector) RecordMessageSent() { c.totalMessages.Add(1) }

// RecordReplan bumps the replan counter.
func (c *Collector) RecordReplan() { c.totalReplans.Add(1) }

// RecordCollision latches the collision flag.
func (c *Collector) RecordCollision() { c.collision.Store(true) }

// SetDropped sets the dropped counter from the network's own tally.
func (c *Collector) SetDropped(n uint64) { c.droppedMessages.Store(n) }

// SetMakespan records the tick the run ended on.
func (c *Collector) SetMakespan(t world.Tick) { c.makespan = t }

// CollisionDetected reports whether the flag has latched.
func (c *Collector) CollisionDetected() bool { return c.collision.Load() }

// RecordTickTrace appends one tick's trace row set.
func (c *Collector) RecordTickTrace(t TickTrace) {
	c.traceMu.Lock()
	defer c.traceMu.Unlock()
	c.traces = append(c.traces, t)
}

// Traces returns a copy of the recorded trace.
func (c *Collector) Traces() []TickTrace {
	c.traceMu.Lock()
	defer c.traceMu.Unlock()
	out := make([]TickTrace, len(c.traces))
	copy(out, c.traces)
	return out
}

// StartTimer begins wall-clock measurement.
func (c *Collector) StartTimer() { c.start = time.Now() }

// StopTimer ends wall-clock measurement.
func (c *Collector) StopTimer() { c.wallTime = time.Since(c.start) }

// GetSnapshot returns the current counter values.
func (c *Collector) GetSnapshot() Snapshot {
	return Snapshot{
		TotalMessages:     c.totalMessages.Load(),
		DroppedMessages:   c.droppedMessages.Load(),
		TotalReplans:      c.totalReplans.Load(),
		Makespan:          c.makespan,
		CollisionDetected: c.collision.Load(),
		WallTime:          c.wallTime,
	}
}

// Reset zeroes every counter and clears the trace.
func (c *Collector) Reset() {
	c.totalMessages.Store(0)
	c.droppedMessages.Store(0)
	c.totalReplans.Store(0)
	c.collision.Store(false)
	c.makespan = 0
	c.wallTime = 0

	c.traceMu.Lock()
	c.traces = nil
	c.traceMu.Unlock()
}
