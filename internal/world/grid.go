package world

import "fmt"

// Grid cell characters in row text.
const (
	FreeChar     = '.'
	ObstacleChar = '#'
)

// Grid is an immutable width×height obstacle map. Rows are stored as text,
// one byte per cell, '.' free and '#' obstacle.
type Grid struct {
	Width  int
	Height int
	rows   []string
}

// NewGrid builds a grid from row strings. All rows must be the same width
// and contain only '.' and '#'. At least two free cells are required so a
// world can host an agent.
func NewGrid(rows []string) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, fmt.Errorf("grid has no rows")
	}

	width := len(rows[0])
	if width == 0 {
		return Grid{}, fmt.Errorf("grid has empty rows")
	}

	free := 0
	for y, row := range rows {
		if len(row) != width {
			return Grid{}, fmt.Errorf("row %d width %d, want %d", y, len(row), width)
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case FreeChar:
				free++
			case ObstacleChar:
			default:
				return Grid{}, fmt.Errorf("row %d: invalid map character %q", y, row[x])
			}
		}
	}

	if free < 2 {
		return Grid{}, fmt.Errorf("grid has %d free cells, need at least 2", free)
	}

	out := make([]string, len(rows))
	copy(out, rows)
	return Grid{Width: width, Height: len(rows), rows: out}, nil
}

// IsValid reports whether the cell is inside the grid bounds.
func (g Grid) IsValid(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// IsFree reports whether the cell is in bounds and not an obstacle.
func (g Grid) IsFree(c Cell) bool {
	if !g.IsValid(c) {
		return false
	}
	return g.rows[c.Y][c.X] != ObstacleChar
}

// FreeCells returns every free cell in row-major order.
func (g Grid) FreeCells() []Cell {
	var out []Cell
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := Cell{X: x, Y: y}
			if g.IsFree(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Rows returns the underlying row text. Callers must not modify it.
func (g Grid) Rows() []string {
	return g.rows
}

// Reachable runs a purely spatial BFS over free cells from start and
// reports whether goal can be reached. Other agents are ignored.
func (g Grid) Reachable(start, goal Cell) bool {
	if !g.IsFree(start) || !g.IsFree(goal) {
		return false
	}
	if start == goal {
		return true
	}

	visited := map[Cell]bool{start: true}
	frontier := []Cell{start}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		for _, next := range cur.Neighbors4() {
			if !g.IsFree(next) || visited[next] {
				continue
			}
			if next == goal {
				return true
			}
			visited[next] = true
			frontier = append(frontier, next)
		}
	}

	return false
}

func (g Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.Width, g.Height)
}
