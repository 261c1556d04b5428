// Package scenario loads YAML run descriptions. A scenario can express
// what flags cannot: explicit per-agent start and goal cells, or an inline
// grid, alongside the usual seed, network and tick-budget settings.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dutch-casa/uav-swarm-simulator/internal/mapfile"
	"github.com/dutch-casa/uav-swarm-simulator/internal/netsim"
	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// CellSpec is a YAML-addressable cell.
type CellSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (c CellSpec) cell() world.Cell {
	return world.Cell{X: c.X, Y: c.Y}
}

// AgentSpec is one explicit agent placement.
type AgentSpec struct {
	Start CellSpec `yaml:"start"`
	Goal  CellSpec `yaml:"goal"`
}

// NetworkSpec mirrors the network simulator parameters.
type NetworkSpec struct {
	Drop      float64 `yaml:"drop"`
	LatencyMs int     `yaml:"latency_ms"`
	JitterMs  int     `yaml:"jitter_ms"`
}

// Scenario is a complete run description. Exactly one of Map or Grid must
// be set.
type Scenario struct {
	Map          string      `yaml:"map"`
	Grid         []string    `yaml:"grid"`
	Agents       []AgentSpec `yaml:"agents"`
	RandomAgents int         `yaml:"random_agents"`
	Seed         uint64      `yaml:"seed"`
	Network      NetworkSpec `yaml:"network"`
	MaxTicks     int         `yaml:"max_ticks"`

	// dir is where the scenario file lives; relative map paths resolve
	// against it.
	dir string
}

// Load parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)

	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Map == "" && len(sc.Grid) == 0 {
		return fmt.Errorf("scenario needs a map path or an inline grid")
	}
	if sc.Map != "" && len(sc.Grid) > 0 {
		return fmt.Errorf("scenario has both a map path and an inline grid")
	}
	if len(sc.Agents) == 0 && sc.RandomAgents <= 0 {
		return fmt.Errorf("scenario places no agents")
	}
	if sc.Network.Drop < 0 || sc.Network.Drop > 1 {
		return fmt.Errorf("drop probability %f out of range [0,1]", sc.Network.Drop)
	}
	if sc.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must not be negative")
	}
	return nil
}

// NetworkParams converts the network block.
func (sc *Scenario) NetworkParams() netsim.Params {
	return netsim.Params{
		DropProbability: sc.Network.Drop,
		MeanLatencyMs:   sc.Network.LatencyMs,
		JitterMs:        sc.Network.JitterMs,
	}
}

// BuildWorld constructs the world the scenario describes.
func (sc *Scenario) BuildWorld() (*world.World, error) {
	var grid world.Grid
	var err error

	if sc.Map != "" {
		path := sc.Map
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.dir, path)
		}
		grid, err = mapfile.Load(path)
	} else {
		grid, err = world.NewGrid(sc.Grid)
	}
	if err != nil {
		return nil, err
	}

	b := world.NewBuilder(sc.Seed).WithGrid(grid)
	for _, a := range sc.Agents {
		b.WithAgent(a.Start.cell(), a.Goal.cell())
	}
	if sc.RandomAgents > 0 {
		b.WithRandomAgents(sc.RandomAgents)
	}
	return b.Build()
}
