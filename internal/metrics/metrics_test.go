package metrics

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.RecordMessageSent()
	c.RecordMessageSent()
	c.RecordReplan()
	c.SetDropped(1)
	c.SetMakespan(17)

	snap := c.GetSnapshot()
	assert.Equal(t, uint64(2), snap.TotalMessages)
	assert.Equal(t, uint64(1), snap.DroppedMessages)
	assert.Equal(t, uint64(1), snap.TotalReplans)
	assert.Equal(t, 17, snap.Makespan)
	assert.False(t, snap.CollisionDetected)
	assert.InDelta(t, 0.5, snap.DropRate(), 1e-9)

	c.RecordCollision()
	assert.True(t, c.GetSnapshot().CollisionDetected)

	c.Reset()
	snap = c.GetSnapshot()
	assert.Equal(t, uint64(0), snap.TotalMessages)
	assert.False(t, snap.CollisionDetected)
	assert.Zero(t, snap.DropRate())
}

func TestWriteJSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")

	snap := Snapshot{
		TotalMessages:     300,
		DroppedMessages:   15,
		TotalReplans:      4,
		Makespan:          42,
		CollisionDetected: false,
	}
	require.NoError(t, WriteJSON(path, snap))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.EqualValues(t, 300, decoded["total_messages"])
	assert.EqualValues(t, 15, decoded["dropped_messages"])
	assert.EqualValues(t, 4, decoded["total_replans"])
	assert.EqualValues(t, 42, decoded["makespan"])
	assert.Equal(t, false, decoded["collision_detected"])
	assert.EqualValues(t, 0.05, decoded["drop_rate"])
	assert.Contains(t, decoded, "wall_time_ms")
}

func TestWriteCSVRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")

	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	traces := []TickTrace{
		{
			Tick:         0,
			ActiveAgents: 2,
			MessagesSent: 6,
			Positions: []AgentPosition{
				{Agent: a, Pos: world.Cell{X: 0, Y: 2}},
				{Agent: b, Pos: world.Cell{X: 4, Y: 2}},
			},
		},
		{
			Tick:         1,
			ActiveAgents: 1,
			MessagesSent: 3,
			Positions: []AgentPosition{
				{Agent: a, Pos: world.Cell{X: 1, Y: 2}},
				{Agent: b, Pos: world.Cell{X: 4, Y: 2}},
			},
		},
	}
	require.NoError(t, WriteCSV(path, traces))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5, "header plus one row per tick per agent")

	assert.Equal(t, []string{"tick", "agent_id", "x", "y", "active_agents", "messages_sent"}, rows[0])
	assert.Equal(t, []string{"0", a.String(), "0", "2", "2", "6"}, rows[1])
	assert.Equal(t, []string{"1", a.String(), "1", "2", "1", "3"}, rows[3])
}
