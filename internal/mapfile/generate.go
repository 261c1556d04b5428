package mapfile

import (
	"fmt"
	"sort"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

// noiseScale spreads obstacle clusters over a handful of cells instead of
// single-cell speckle.
const noiseScale = 0.35

// Generate builds an obstacle grid from thresholded simplex noise. density
// is the target obstacle fraction in [0, 1); cells whose noise value falls
// below the matching quantile become walls. If the thresholded field leaves
// fewer than two free cells, the threshold is relaxed until it does.
func Generate(width, height int, density float64, seed uint64) (world.Grid, error) {
	if width <= 0 || height <= 0 {
		return world.Grid{}, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if density < 0 || density >= 1 {
		return world.Grid{}, fmt.Errorf("obstacle density %f out of range [0,1)", density)
	}

	noise := opensimplex.NewNormalized(int64(seed))

	values := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			values[y*width+x] = noise.Eval2(float64(x)*noiseScale, float64(y)*noiseScale)
		}
	}

	threshold := quantile(values, density)
	for {
		rows := renderRows(values, width, height, threshold)
		free := 0
		for _, row := range rows {
			free += strings.Count(row, string(rune(world.FreeChar)))
		}
		if free >= 2 {
			return world.NewGrid(rows)
		}
		// Too dense for this map; relax and try again.
		threshold -= 0.05
	}
}

func renderRows(values []float64, width, height int, threshold float64) []string {
	rows := make([]string, height)
	var b strings.Builder
	for y := 0; y < height; y++ {
		b.Reset()
		for x := 0; x < width; x++ {
			if values[y*width+x] < threshold {
				b.WriteByte(world.ObstacleChar)
			} else {
				b.WriteByte(world.FreeChar)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// quantile returns the value below which the given fraction of samples
// fall. A zero fraction returns below the minimum so no cell is a wall.
func quantile(values []float64, fraction float64) float64 {
	if fraction <= 0 {
		min := values[0]
		for _, v := range values {
			if v < min {
				min = v
			}
		}
		return min - 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(fraction * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
