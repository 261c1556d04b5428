package planner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-casa/uav-swarm-simulator/internal/reservation"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

var (
	me    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	other = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func grid(t *testing.T, rows ...string) world.Grid {
	t.Helper()
	g, err := world.NewGrid(rows)
	require.NoError(t, err)
	return g
}

func validPath(t *testing.T, p world.Path) {
	t.Helper()
	for i := 1; i < len(p); i++ {
		assert.True(t, p[i-1].Adjacent(p[i]), "step %d: %s -> %s", i, p[i-1], p[i])
	}
}

func TestPlanStartEqualsGoal(t *testing.T) {
	p := New(grid(t, "...", "..."))

	path := p.PlanPath(world.Cell{X: 1, Y: 1}, world.Cell{X: 1, Y: 1}, reservation.NewTable(), me, 0)
	require.Len(t, path, 1)
	assert.Equal(t, world.Cell{X: 1, Y: 1}, path[0])
}

func TestPlanBlockedGoalReturnsEmpty(t *testing.T) {
	p := New(grid(t, "..#", "..."))

	path := p.PlanPath(world.Cell{X: 0, Y: 0}, world.Cell{X: 2, Y: 0}, reservation.NewTable(), me, 0)
	assert.Empty(t, path)
}

func TestPlanFreeGridIsShortest(t *testing.T) {
	p := New(grid(t, ".....", ".....", ".....", ".....", "....."))

	start := world.Cell{X: 0, Y: 0}
	goal := world.Cell{X: 3, Y: 4}
	path := p.PlanPath(start, goal, reservation.NewTable(), me, 0)

	require.NotEmpty(t, path)
	assert.Len(t, path, start.Manhattan(goal)+1)
	assert.Equal(t, start, path[0])
	assert.Equal(t, goal, path[len(path)-1])
	validPath(t, path)
}

func TestPlanDetoursAroundObstacles(t *testing.T) {
	// The wall forces a detour around row 1's column of obstacles.
	p := New(grid(t,
		".....",
		"..#..",
		"..#..",
		".....",
		".....",
	))

	start := world.Cell{X: 0, Y: 1}
	goal := world.Cell{X: 4, Y: 1}
	path := p.PlanPath(start, goal, reservation.NewTable(), me, 0)

	require.NotEmpty(t, path)
	assert.GreaterOrEqual(t, len(path), 6, "detour is longer than the straight line")
	validPath(t, path)

	// Identical inputs replay the identical path.
	again := p.PlanPath(start, goal, reservation.NewTable(), me, 0)
	assert.Equal(t, path, again)
}

func TestPlanAvoidsVertexReservation(t *testing.T) {
	p := New(grid(t, "...."))
	res := reservation.NewTable()

	// Another agent owns (1,0) at tick 1, exactly when the straight line
	// would cross it.
	res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 1, Y: 0}, 1), Agent: other})

	path := p.PlanPath(world.Cell{X: 0, Y: 0}, world.Cell{X: 3, Y: 0}, res, me, 0)
	require.NotEmpty(t, path)
	validPath(t, path)

	for i, c := range path {
		if i == 1 {
			assert.NotEqual(t, world.Cell{X: 1, Y: 0}, c, "reserved cell-time must be avoided")
		}
	}
	// A one-row corridor leaves only waiting: the path is one longer.
	assert.Len(t, path, 5)
}

func TestPlanOwnReservationsDoNotBlock(t *testing.T) {
	p := New(grid(t, "...."))
	res := reservation.NewTable()
	res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 1, Y: 0}, 1), Agent: me})

	path := p.PlanPath(world.Cell{X: 0, Y: 0}, world.Cell{X: 3, Y: 0}, res, me, 0)
	require.Len(t, path, 4, "own claims are not conflicts")
}

func TestPlanAvoidsHeadOnSwap(t *testing.T) {
	p := New(grid(t, "....", "...."))
	res := reservation.NewTable()

	// The other agent travels right-to-left along row 0: it holds (3,0) at
	// t0, (2,0) at t1 and (1,0) at t2 — crossing each edge of row 0 as we
	// would cross it the other way.
	res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 3, Y: 0}, 0), Agent: other})
	res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 2, Y: 0}, 1), Agent: other})
	res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 1, Y: 0}, 2), Agent: other})

	start := world.Cell{X: 0, Y: 0}
	path := p.PlanPath(start, world.Cell{X: 3, Y: 0}, res, me, 0)
	require.NotEmpty(t, path)
	validPath(t, path)

	// Wherever we are at tick t moving to tick t+1, we never exchange
	// cells with the other agent's reserved trajectory.
	for i := 1; i < len(path); i++ {
		from, to := path[i-1], path[i]
		if from == to {
			continue
		}
		t0, okT0 := res.Find(reservation.KeyFor(to, i-1))
		t1, okT1 := res.Find(reservation.KeyFor(from, i))
		swap := okT0 && okT1 && t0.Agent == t1.Agent
		assert.False(t, swap, "head-on swap at step %d", i)
	}
}

func TestPlanUnsatisfiableStopsAtHorizon(t *testing.T) {
	p := New(grid(t, "...."))
	res := reservation.NewTable()

	// Fence off the goal far beyond the search horizon.
	goal := world.Cell{X: 3, Y: 0}
	horizon := 2 * 4 * 1
	for tick := 0; tick < horizon+10; tick++ {
		res.Insert(reservation.Entry{Key: reservation.KeyFor(goal, tick), Agent: other})
		res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 2, Y: 0}, tick), Agent: other})
	}

	path := p.PlanPath(world.Cell{X: 0, Y: 0}, goal, res, me, 0)
	assert.Empty(t, path)
}

func TestCommitReservesPathAndGoalHorizon(t *testing.T) {
	res := reservation.NewTable()
	path := world.Path{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}

	Commit(path, me, res, 5)

	for i, c := range path {
		entry, ok := res.Find(reservation.KeyFor(c, 5+i))
		require.True(t, ok, "path cell %d", i)
		assert.Equal(t, me, entry.Agent)
	}

	// The goal stays claimed for the forward horizon.
	goal := path[len(path)-1]
	for future := 0; future < GoalReserveHorizon; future++ {
		assert.True(t, res.IsReserved(goal, 8+future, other))
	}
	assert.False(t, res.IsReserved(goal, 8+GoalReserveHorizon, other))
}

func TestCommitThenClearRoundTrips(t *testing.T) {
	res := reservation.NewTable()
	res.Insert(reservation.Entry{Key: reservation.KeyFor(world.Cell{X: 9, Y: 9}, 1), Agent: other})

	Commit(world.Path{{X: 0, Y: 0}, {X: 1, Y: 0}}, me, res, 0)
	require.Greater(t, res.Len(), 1)

	Clear(me, res)
	assert.Equal(t, 1, res.Len(), "only the other agent's claim remains")
}

func TestRecommitReplacesOldClaims(t *testing.T) {
	res := reservation.NewTable()

	Commit(world.Path{{X: 0, Y: 0}, {X: 1, Y: 0}}, me, res, 0)
	first := res.AgentClaims(me)

	Commit(world.Path{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}, me, res, 0)
	assert.Equal(t, first+1, res.AgentClaims(me), "old claims are gone, new path is one longer")

	_, ok := res.Find(reservation.KeyFor(world.Cell{X: 1, Y: 0}, 1))
	assert.False(t, ok, "stale claim from the first commit")
}
