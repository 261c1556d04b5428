package mapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-casa/uav-swarm-simulator/internal/world"
)

func writeMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	path := writeMap(t, `// demo map

.....
..#..

// trailing comment
.....
`)

	grid, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, grid.Width)
	assert.Equal(t, 3, grid.Height)
	assert.False(t, grid.IsFree(world.Cell{X: 2, Y: 1}), "obstacle survived loading")
}

func TestLoadTrimsWhitespace(t *testing.T) {
	path := writeMap(t, "  ...\n\t...\n")

	grid, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, grid.Width)
	assert.Equal(t, 2, grid.Height)
}

func TestLoadRejectsBadMaps(t *testing.T) {
	for name, content := range map[string]string{
		"invalid character":  "..x\n...\n",
		"inconsistent width": "...\n..\n",
		"all obstacles":      "##\n##\n",
		"empty file":         "// nothing here\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeMap(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestLoadWorldPlacesAgents(t *testing.T) {
	path := writeMap(t, ".....\n.....\n.....\n")

	w, err := LoadWorld(path, 3, 1337)
	require.NoError(t, err)
	assert.Len(t, w.Agents, 3)
}

func TestGenerateRespectsDensity(t *testing.T) {
	grid, err := Generate(24, 16, 0.25, 7)
	require.NoError(t, err)
	assert.Equal(t, 24, grid.Width)
	assert.Equal(t, 16, grid.Height)

	free := len(grid.FreeCells())
	total := 24 * 16
	obstacles := total - free
	assert.InDelta(t, 0.25, float64(obstacles)/float64(total), 0.1)
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(16, 12, 0.3, 99)
	require.NoError(t, err)
	b, err := Generate(16, 12, 0.3, 99)
	require.NoError(t, err)
	assert.Equal(t, a.Rows(), b.Rows())
}

func TestGenerateZeroDensityIsAllFree(t *testing.T) {
	grid, err := Generate(8, 8, 0, 1)
	require.NoError(t, err)
	assert.Len(t, grid.FreeCells(), 64)
}

func TestGenerateRejectsBadArgs(t *testing.T) {
	_, err := Generate(0, 5, 0.2, 1)
	assert.Error(t, err)
	_, err = Generate(5, 5, 1.0, 1)
	assert.Error(t, err)
}
