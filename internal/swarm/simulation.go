package swarm

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/dutch-casa/uav-swarm-simulator/internal/metrics"
	"github.com/dutch-casa/uav-swarm-simulator/internal/netsim"
	"github.com/dutch-casa/uav-swarm-simulator/internal/planner"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// Config parameterizes one simulation run.
type Config struct {
	World    *world.World
	Network  netsim.Network
	MaxTicks world.Tick
	Verbose  bool

	// Workers caps the planning pool. Zero means hardware parallelism.
	Workers int
}

// Simulation drives the tick loop: every tick runs the phases
// receive → plan → broadcast → validate → deadlock → execute → collide
// in that order, then records the trace and advances the clock.
type Simulation struct {
	cfg     Config
	mgr     *world.Manager
	planner *planner.Planner
	net     netsim.Network
	metrics *metrics.Collector

	controllers []*Controller
	byID        map[world.AgentID]*Controller
	workers     int

	// initial agent states, kept for Reset.
	initial []world.AgentState
}

// New assembles a simulation from a constructed world and a network.
func New(cfg Config) (*Simulation, error) {
	if cfg.World == nil {
		return nil, fmt.Errorf("no world provided")
	}
	if cfg.Network == nil {
		return nil, fmt.Errorf("no network provided")
	}
	if cfg.MaxTicks <= 0 {
		return nil, fmt.Errorf("max ticks must be positive, got %d", cfg.MaxTicks)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	s := &Simulation{
		cfg:     cfg,
		net:     cfg.Network,
		metrics: metrics.NewCollector(),
		workers: workers,
	}

	for _, a := range cfg.World.Agents {
		s.initial = append(s.initial, *a)
	}

	s.attach(cfg.World)
	slog.Info("simulation initialized", "agents", len(s.controllers), "grid", cfg.World.Grid, "seed", cfg.World.Seed)
	return s, nil
}

// attach builds the manager and fresh controllers for a world.
func (s *Simulation) attach(w *world.World) {
	s.mgr = world.NewManager(w)
	s.planner = planner.New(w.Grid)
	s.controllers = s.controllers[:0]
	s.byID = make(map[world.AgentID]*Controller, len(w.Agents))

	type registrar interface{ Register(world.AgentID) }
	reg, canRegister := s.net.(registrar)

	for _, a := range w.Agents {
		c := newController(a)
		s.controllers = append(s.controllers, c)
		s.byID[a.ID] = c
		if canRegister {
			reg.Register(a.ID)
		}
	}
}

// Metrics returns the collector.
func (s *Simulation) Metrics() *metrics.Collector {
	return s.metrics
}

// World returns the world manager.
func (s *Simulation) World() *world.Manager {
	return s.mgr
}

// Complete reports whether the run has terminated.
func (s *Simulation) Complete() bool {
	return s.mgr.AllAtGoal() || s.mgr.CurrentTick() >= s.cfg.MaxTicks
}

// Step advances the simulation by exactly one tick.
func (s *Simulation) Step() {
	tick := s.mgr.CurrentTick()

	if s.cfg.Verbose {
		slog.Debug("tick", "tick", tick, "active", s.mgr.CountActive())
	}

	s.phaseReceive(tick)
	s.phasePlan(tick)
	sent := s.phaseBroadcast(tick)
	s.phaseValidate(tick)
	s.phaseDeadlock(tick)
	s.phaseExecute(tick)
	s.phaseCollide(tick)

	s.recordTrace(tick, sent)
	s.mgr.AdvanceTick()
}

// Run drives ticks until every agent is at goal or the tick budget is
// spent, then finalizes the metrics.
func (s *Simulation) Run() {
	slog.Info("starting run", "max_ticks", s.cfg.MaxTicks)
	s.metrics.StartTimer()

	for !s.Complete() {
		s.Step()
	}

	s.metrics.StopTimer()

	finalTick := s.mgr.CurrentTick()
	s.metrics.SetMakespan(finalTick)
	s.metrics.SetDropped(s.net.Stats().Dropped)

	if !s.mgr.AllAtGoal() {
		slog.Warn("tick budget exhausted before all agents reached goal",
			"tick", finalTick, "active", s.mgr.CountActive())
	}

	if colliding := s.mgr.DetectCollisions(); len(colliding) > 0 {
		slog.Error("agents sharing cells at end of run", "count", len(colliding))
		s.metrics.RecordCollision()
	}

	slog.Info("run complete",
		"makespan", finalTick,
		"active", s.mgr.CountActive(),
		"collision", s.metrics.CollisionDetected(),
	)
}

// Reset restores the initial world, clears the network and metrics, and
// rebuilds all controllers, so the same Simulation can run again.
func (s *Simulation) Reset() {
	agents := make([]*world.AgentState, len(s.initial))
	for i := range s.initial {
		a := s.initial[i]
		agents[i] = &a
	}
	w := &world.World{
		Grid:   s.cfg.World.Grid,
		Agents: agents,
		Seed:   s.cfg.World.Seed,
	}

	s.net.Reset()
	s.metrics.Reset()
	s.attach(w)
}

func (s *Simulation) recordTrace(tick world.Tick, sent int) {
	trace := metrics.TickTrace{
		Tick:         tick,
		ActiveAgents: s.mgr.CountActive(),
		MessagesSent: sent,
	}
	for _, a := range s.mgr.Agents() {
		pose, _ := s.mgr.AgentPose(a.ID)
		trace.Positions = append(trace.Positions, metrics.AgentPosition{Agent: a.ID, Pos: pose.Pos})
	}
	s.metrics.RecordTickTrace(trace)
}
