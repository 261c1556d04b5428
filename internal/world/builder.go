package world

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Builder constructs a World from a grid plus either explicit (start, goal)
// pairs or a number of randomly placed agents. Placement and agent IDs are
// driven by a single PRNG seeded from the configured seed, so construction
// is reproducible.
type Builder struct {
	seed    uint64
	rng     *rand.Rand
	grid    Grid
	hasGrid bool
	pairs   [][2]Cell
	random  int
}

// NewBuilder creates a builder seeded for deterministic placement.
func NewBuilder(seed uint64) *Builder {
	return &Builder{
		seed: seed,
		rng:  rand.New(rand.NewSource(int64(seed))),
	}
}

// WithGrid sets the obstacle map.
func (b *Builder) WithGrid(g Grid) *Builder {
	b.grid = g
	b.hasGrid = true
	return b
}

// WithAgent adds an agent with an explicit start and goal.
func (b *Builder) WithAgent(start, goal Cell) *Builder {
	b.pairs = append(b.pairs, [2]Cell{start, goal})
	return b
}

// WithRandomAgents requests n agents with randomly chosen starts and goals.
func (b *Builder) WithRandomAgents(n int) *Builder {
	b.random = n
	return b
}

// Build validates reachability for every agent and returns the world.
// Every explicit pair must be spatially reachable; random agents are
// placed by shuffled first-fit over the free cells, never reusing a cell
// already taken as a start or goal.
func (b *Builder) Build() (*World, error) {
	if !b.hasGrid {
		return nil, fmt.Errorf("builder has no grid")
	}

	w := &World{Grid: b.grid, Seed: b.seed}

	for i, pair := range b.pairs {
		start, goal := pair[0], pair[1]
		if !b.grid.Reachable(start, goal) {
			return nil, fmt.Errorf("agent %d: goal %s unreachable from start %s", i, goal, start)
		}
		w.Agents = append(w.Agents, &AgentState{
			ID:   b.nextID(),
			Pos:  start,
			Goal: goal,
		})
	}

	if b.random > 0 {
		if err := b.placeRandom(w, b.random); err != nil {
			return nil, err
		}
	}

	return w, nil
}

func (b *Builder) placeRandom(w *World, n int) error {
	free := b.grid.FreeCells()
	if len(free) < n*2 {
		return fmt.Errorf("grid has %d free cells, need %d for %d agents", len(free), n*2, n)
	}

	b.rng.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})

	used := make(map[Cell]bool)
	for _, a := range w.Agents {
		used[a.Pos] = true
		used[a.Goal] = true
	}

	added := 0
	for i := 0; i < len(free) && added < n; i++ {
		if used[free[i]] {
			continue
		}
		for j := i + 1; j < len(free); j++ {
			if used[free[j]] {
				continue
			}
			if !b.grid.Reachable(free[i], free[j]) {
				continue
			}
			w.Agents = append(w.Agents, &AgentState{
				ID:   b.nextID(),
				Pos:  free[i],
				Goal: free[j],
			})
			used[free[i]] = true
			used[free[j]] = true
			added++
			break
		}
	}

	if added < n {
		return fmt.Errorf("placed %d of %d random agents", added, n)
	}
	return nil
}

// nextID draws a UUID from the seeded stream so agent identities are stable
// across runs with the same seed.
func (b *Builder) nextID() AgentID {
	id, err := uuid.NewRandomFromReader(b.rng)
	if err != nil {
		// rand.Rand.Read never fails.
		panic(fmt.Sprintf("uuid generation: %v", err))
	}
	return id
}
