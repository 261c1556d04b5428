// Package mapfile loads obstacle grids from text files and generates them
// procedurally from simplex noise.
package mapfile

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// Load reads a grid from a map file. Empty lines and lines starting with
// '/' are comments; every remaining line is one row, trimmed of surrounding
// whitespace. '.' is free, '#' is an obstacle, anything else is an error.
func Load(path string) (world.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return world.Grid{}, fmt.Errorf("open map file: %w", err)
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "/") {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return world.Grid{}, fmt.Errorf("read map file: %w", err)
	}

	grid, err := world.NewGrid(rows)
	if err != nil {
		return world.Grid{}, fmt.Errorf("map %s: %w", path, err)
	}

	slog.Info("loaded map", "path", path, "width", grid.Width, "height", grid.Height)
	return grid, nil
}

// LoadWorld loads a map and populates it with n randomly placed agents.
func LoadWorld(path string, nAgents int, seed uint64) (*world.World, error) {
	grid, err := Load(path)
	if err != nil {
		return nil, err
	}

	w, err := world.NewBuilder(seed).
		WithGrid(grid).
		WithRandomAgents(nAgents).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build world from %s: %w", path, err)
	}

	slog.Info("created world", "agents", len(w.Agents))
	return w, nil
}
