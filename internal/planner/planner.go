// Package planner finds conflict-free single-agent trajectories with A* on
// the time-expanded grid (cooperative A*). Other agents' plans appear as
// immovable obstacles through the reservation table.
package planner

import (
	"container/heap"

	"github.com/dutch-casa/uav-swarm-simulator/internal/reservation"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// GoalReserveHorizon is how many ticks past the end of a committed path the
// goal cell stays reserved, so other planners treat a parked agent as a
// permanent obstacle.
const GoalReserveHorizon = 100

// Planner plans paths on one grid. It is stateless apart from the grid and
// safe for concurrent use.
type Planner struct {
	grid world.Grid
}

// New creates a planner for the grid.
func New(g world.Grid) *Planner {
	return &Planner{grid: g}
}

// node is a state in the time-expanded graph.
type node struct {
	cell world.Cell
	tick world.Tick
}

// item is a heap entry. seq breaks f-score ties in insertion order, which
// keeps expansions deterministic.
type item struct {
	node node
	f    int
	seq  int
}

type openHeap []item

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x any)   { *h = append(*h, x.(item)) }
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// PlanPath searches for a path from start to goal that avoids every
// reservation not owned by agent. The result occupies path[i] at tick
// startTick+i, with path[0] == start. A nil result means no path exists
// within the time horizon.
func (p *Planner) PlanPath(start, goal world.Cell, res *reservation.Table, agent world.AgentID, startTick world.Tick) world.Path {
	if !p.grid.IsFree(start) || !p.grid.IsFree(goal) {
		return nil
	}

	// Unsatisfiable searches stop here rather than expanding forever.
	maxTick := startTick + 2*p.grid.Width*p.grid.Height

	startNode := node{cell: start, tick: startTick}

	open := &openHeap{}
	heap.Init(open)
	seq := 0
	heap.Push(open, item{node: startNode, f: start.Manhattan(goal), seq: seq})

	gScore := map[node]int{startNode: 0}
	cameFrom := make(map[node]node)

	for open.Len() > 0 {
		current := heap.Pop(open).(item).node

		if current.cell == goal {
			return reconstruct(cameFrom, current, start)
		}

		if current.tick >= maxTick {
			continue
		}

		nextTick := current.tick + 1
		for _, nextCell := range p.successors(current.cell) {
			// Vertex conflict: someone else holds the cell at that tick.
			if res.IsReserved(nextCell, nextTick, agent) {
				continue
			}

			// Edge conflict: another agent crossing this edge the other way.
			if nextCell != current.cell && p.edgeConflict(current.cell, nextCell, current.tick, res, agent) {
				continue
			}

			tentative := gScore[current] + 1
			next := node{cell: nextCell, tick: nextTick}
			if prev, seen := gScore[next]; seen && tentative >= prev {
				continue
			}

			gScore[next] = tentative
			cameFrom[next] = current
			seq++
			heap.Push(open, item{node: next, f: tentative + nextCell.Manhattan(goal), seq: seq})
		}
	}

	return nil
}

// successors returns the free cardinal neighbors in fixed order, then the
// wait-in-place move.
func (p *Planner) successors(c world.Cell) []world.Cell {
	out := make([]world.Cell, 0, 5)
	for _, n := range c.Neighbors4() {
		if p.grid.IsFree(n) {
			out = append(out, n)
		}
	}
	out = append(out, c)
	return out
}

// edgeConflict reports whether some agent b holds (to, t) and (from, t+1):
// b would traverse the same edge in the opposite direction on the same
// tick, a head-on swap.
func (p *Planner) edgeConflict(from, to world.Cell, t world.Tick, res *reservation.Table, agent world.AgentID) bool {
	there, ok := res.Find(reservation.KeyFor(to, t))
	if !ok || there.Agent == agent {
		return false
	}
	back, ok := res.Find(reservation.KeyFor(from, t+1))
	return ok && back.Agent == there.Agent
}

func reconstruct(cameFrom map[node]node, end node, start world.Cell) world.Path {
	var rev world.Path
	cur := end
	for {
		rev = append(rev, cur.cell)
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		cur = prev
	}

	path := make(world.Path, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	if path[0] != start {
		return nil
	}
	return path
}

// Commit replaces the agent's claims with the path: path[i] is reserved at
// startTick+i, and the final cell stays reserved for GoalReserveHorizon
// further ticks.
func Commit(path world.Path, agent world.AgentID, res *reservation.Table, startTick world.Tick) {
	res.EraseByAgent(agent)

	for i, c := range path {
		res.Insert(reservation.Entry{Key: reservation.KeyFor(c, startTick+i), Agent: agent})
	}

	if len(path) > 0 {
		goal := path[len(path)-1]
		goalTick := startTick + len(path)
		for future := 0; future < GoalReserveHorizon; future++ {
			res.Insert(reservation.Entry{Key: reservation.KeyFor(goal, goalTick+future), Agent: agent})
		}
	}
}

// Clear removes every claim owned by the agent.
func Clear(agent world.AgentID, res *reservation.Table) {
	res.EraseByAgent(agent)
}
