package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteJSON writes the metrics snapshot. Fields are emitted in a fixed
// order with the drop rate at four decimals.
func WriteJSON(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()

	collision := "false"
	if s.CollisionDetected {
		collision = "true"
	}

	_, err = fmt.Fprintf(f, `{
  "total_messages": %d,
  "dropped_messages": %d,
  "total_replans": %d,
  "makespan": %d,
  "collision_detected": %s,
  "wall_time_ms": %d,
  "drop_rate": %.4f
}
`, s.TotalMessages, s.DroppedMessages, s.TotalReplans, s.Makespan, collision, s.WallTime.Milliseconds(), s.DropRate())
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// WriteCSV writes the per-tick trace, one row per (tick, agent) in roster
// order.
func WriteCSV(path string, traces []TickTrace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "agent_id", "x", "y", "active_agents", "messages_sent"}); err != nil {
		return fmt.Errorf("write trace header: %w", err)
	}

	for _, t := range traces {
		for _, p := range t.Positions {
			row := []string{
				strconv.Itoa(t.Tick),
				p.Agent.String(),
				strconv.Itoa(p.Pos.X),
				strconv.Itoa(p.Pos.Y),
				strconv.Itoa(t.ActiveAgents),
				strconv.Itoa(t.MessagesSent),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write trace row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	return nil
}
