package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/camera"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log:
  level: debug
grids:
  - name: ground
    orientation: horizontal
    origin: {x: 0, y: 0, z: 0}
    width: 16
    length: 12
    cell_size: 2
    layers: 2
    layer_height: 3
  - name: facade
    orientation: vertical
    width: 4
    length: 6
    cell_size: 1
    layers: 1
descriptors:
  - id: house
    kind: area
    category: buildings
    scale: {x: 4, y: 3, z: 2}
    flags: [destructible, movable]
    custom_values:
      population: 3
  - id: lamp
    kind: corner
    category: lamps
    vertical_snap: auto
    snap_threshold_percent: 40
areas:
  - name: river
    grid: ground
    mode: disable
    min: {x: 0, y: 5}
    max: {x: 15, y: 6}
placement:
  max_box_objects: 20
  max_path_objects: 50
  endpoints_only: true
  max_distance: 30
  camera_mode: third_person
terrain:
  seed: 7
  amplitude: 2.5
server:
  api_port: 9000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	require.Len(t, cfg.Grids, 2)
	assert.Equal(t, grid.Vertical, cfg.Grids[1].Orientation)
	assert.Equal(t, 2.0, cfg.Grids[0].CellSize)

	require.Len(t, cfg.Descriptors, 2)
	house := cfg.Descriptors[0]
	assert.Equal(t, grid.KindArea, house.Kind)
	assert.True(t, house.Is(buildable.FlagMovable))
	assert.False(t, house.Is(buildable.FlagReplaceable))
	assert.Equal(t, 3.0, house.CustomValues["population"])
	assert.Equal(t, buildable.SnapAuto, cfg.Descriptors[1].VerticalSnap)

	require.Len(t, cfg.Areas, 1)
	assert.Equal(t, camera.ThirdPerson, cfg.Placement.CameraMode)
	assert.True(t, cfg.Placement.EndpointsOnly)
	assert.Equal(t, 50, cfg.Placement.MaxPathObjects)
	assert.Equal(t, int64(7), cfg.Terrain.Seed)
	assert.Equal(t, 9000, cfg.Server.GetAPIPort())

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{"house", "lamp"}, reg.IDs())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"нет сеток":          "grids: []",
		"неизвестная ось":    "grids: [{name: g, orientation: diagonal, width: 1, length: 1, cell_size: 1, layers: 1}]",
		"нулевая ячейка":     "grids: [{name: g, width: 1, length: 1, cell_size: 0, layers: 1}]",
		"дубликат сетки":     "grids: [{name: g, width: 1, length: 1, cell_size: 1, layers: 1}, {name: g, width: 1, length: 1, cell_size: 1, layers: 1}]",
		"неизвестная камера": "grids: [{name: g, width: 1, length: 1, cell_size: 1, layers: 1}]\nplacement: {camera_mode: orbit}",
		"плохой уровень":     "log: {level: loud}\ngrids: [{name: g, width: 1, length: 1, cell_size: 1, layers: 1}]",
		"отрицательный путь": "grids: [{name: g, width: 1, length: 1, cell_size: 1, layers: 1}]\nplacement: {max_path_objects: -1}",
	}
	for name, content := range cases {
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err, name)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("GRIDKIT_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg, "без пути и переменной конфига нет")

	t.Setenv("GRIDKIT_CONFIG", writeConfig(t, sample))
	cfg, err = Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Len(t, cfg.Grids, 2)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("GRIDKIT_CONFIG", "")
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(), "конфигурация по умолчанию корректна")
	assert.Equal(t, "ground", cfg.Grids[0].Name)
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("GRIDKIT_API_PORT", "")
	assert.Equal(t, 8088, s.GetAPIPort())

	t.Setenv("GRIDKIT_API_PORT", "9100")
	assert.Equal(t, 9100, s.GetAPIPort())

	t.Setenv("GRIDKIT_METRICS_PORT", "bogus")
	assert.Equal(t, 2112, s.GetMetricsPort(), "некорректное значение игнорируется")

	s.APIPort = 7000
	assert.Equal(t, 7000, s.GetAPIPort(), "конфиг приоритетнее окружения")
}

func TestLoad_SandboxExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "sandbox", "gridkit.yaml"))
	require.NoError(t, err)

	assert.Len(t, cfg.Grids, 2)
	assert.Equal(t, grid.Vertical, cfg.Grids[1].Orientation)
	assert.Len(t, cfg.Areas, 3)
	assert.Equal(t, camera.TopDown, cfg.Placement.CameraMode)
	assert.Equal(t, 512, cfg.EventBus.Capacity)
	assert.Equal(t, 500, cfg.Placement.MaxPathObjects)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	tree, ok := reg.Get("tree")
	require.True(t, ok)
	assert.Equal(t, buildable.FreeRotation, tree.RotationType)
	house, _ := reg.Get("house")
	require.Len(t, house.Variants, 1)
	assert.Equal(t, 4.0, house.ScaleFor(1).X)
}
