// Package netsim simulates the swarm's lossy broadcast medium in-process.
// Each send survives a Bernoulli drop trial and, if it survives, is
// delivered to every other agent at a future tick computed from a normally
// distributed latency sample. One seeded PRNG drives both distributions, so
// a run's network behavior replays exactly.
package netsim

import (
	"container/heap"
	"math/rand"
	"sync"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// MsPerTick converts sampled latency into ticks: one tick is 100 ms.
const MsPerTick = 100

// Params configure the simulated medium.
type Params struct {
	DropProbability float64
	MeanLatencyMs   int
	JitterMs        int
}

// Stats counts traffic. Dropped messages are included in Sent.
type Stats struct {
	Sent    uint64
	Dropped uint64
}

// Network is the transport contract the coordinator consumes.
type Network interface {
	Send(msg Message)
	Receive(agent world.AgentID, currentTick world.Tick) []Message
	Reset()
	Stats() Stats
}

// delayed is one enqueued delivery.
type delayed struct {
	msg          Message
	deliveryTick world.Tick
	seq          uint64
}

type deliveryHeap []delayed

func (h deliveryHeap) Len() int { return len(h) }
func (h deliveryHeap) Less(i, j int) bool {
	if h[i].deliveryTick != h[j].deliveryTick {
		return h[i].deliveryTick < h[j].deliveryTick
	}
	return h[i].seq < h[j].seq
}
func (h deliveryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *deliveryHeap) Push(x any) { *h = append(*h, x.(delayed)) }
func (h *deliveryHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	*h = old[:n-1]
	return d
}

// Sim is the in-process broadcast simulator. Sends fan out to a per-agent
// delivery heap at enqueue time; every registered agent except the sender
// sees each surviving message exactly once.
type Sim struct {
	params Params

	mu      sync.Mutex
	rng     *rand.Rand
	seed    uint64
	queues  map[world.AgentID]*deliveryHeap
	order   []world.AgentID
	seq     uint64
	sent    uint64
	dropped uint64
}

// New creates a simulator with its own PRNG stream.
func New(params Params, seed uint64) *Sim {
	return &Sim{
		params: params,
		rng:    rand.New(rand.NewSource(int64(seed))),
		seed:   seed,
		queues: make(map[world.AgentID]*deliveryHeap),
	}
}

// Register adds an agent as a broadcast recipient. All agents must be
// registered before the first Send.
func (s *Sim) Register(id world.AgentID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queues[id]; ok {
		return
	}
	h := &deliveryHeap{}
	heap.Init(h)
	s.queues[id] = h
	s.order = append(s.order, id)
}

// Send broadcasts one message. The drop trial and the latency sample are
// taken once per send, not once per recipient, so the random stream does
// not depend on the roster size.
func (s *Sim) Send(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent++

	if s.rng.Float64() < s.params.DropProbability {
		s.dropped++
		return
	}

	deliveryTick := s.deliveryTick(msg.Timestamp)

	for _, id := range s.order {
		if id == msg.From {
			continue
		}
		s.seq++
		heap.Push(s.queues[id], delayed{msg: msg, deliveryTick: deliveryTick, seq: s.seq})
	}
}

func (s *Sim) deliveryTick(sendTick world.Tick) world.Tick {
	if s.params.MeanLatencyMs == 0 && s.params.JitterMs == 0 {
		return sendTick + 1
	}

	ms := float64(s.params.MeanLatencyMs) + s.rng.NormFloat64()*float64(s.params.JitterMs)
	if ms < 0 {
		ms = 0
	}
	return sendTick + int(ms)/MsPerTick + 1
}

// Receive pops every message whose delivery tick has passed. Messages that
// fell due while no receive call happened are handed over on the first
// subsequent call; nothing is ever delivered twice.
func (s *Sim) Receive(agent world.AgentID, currentTick world.Tick) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.queues[agent]
	if !ok {
		return nil
	}

	var out []Message
	for h.Len() > 0 {
		top := (*h)[0]
		if top.deliveryTick > currentTick {
			break
		}
		heap.Pop(h)
		if top.msg.From == agent {
			continue
		}
		out = append(out, top.msg)
	}
	return out
}

// Reset clears every queue and zeroes the counters. The PRNG is reseeded so
// a reset simulator replays identically.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.queues {
		*h = (*h)[:0]
	}
	s.rng = rand.New(rand.NewSource(int64(s.seed)))
	s.seq = 0
	s.sent = 0
	s.dropped = 0
}

// Stats returns the running send and drop counters.
func (s *Sim) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Sent: s.sent, Dropped: s.dropped}
}
