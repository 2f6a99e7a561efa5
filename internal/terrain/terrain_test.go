package terrain

import (
	"testing"

	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/physics"
	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeightmap_Flat(t *testing.T) {
	h := NewHeightmap(Config{BaseHeight: 2})
	assert.Equal(t, 2.0, h.HeightAt(13, -7))

	n := h.Normal(1, 1)
	assert.InDelta(t, 1.0, n.Y, 1e-9)
}

func TestHeightmap_NoiseDeterministic(t *testing.T) {
	a := NewHeightmap(Config{Seed: 42, Amplitude: 8})
	b := NewHeightmap(Config{Seed: 42, Amplitude: 8})

	for _, p := range [][2]float64{{0.3, 0.7}, {12.5, 3.1}, {-40, 18}} {
		ha := a.HeightAt(p[0], p[1])
		assert.Equal(t, ha, b.HeightAt(p[0], p[1]), "один сид – один рельеф")
		assert.GreaterOrEqual(t, ha, -8.0)
		assert.LessOrEqual(t, ha, 16.0)
	}
}

func TestScene_RaycastGround(t *testing.T) {
	s := NewScene(NewHeightmap(Config{BaseHeight: 1}))

	hit, ok := s.Raycast(vec.Vec3Float{X: 2.5, Y: 10, Z: 3.5}, vec.Vec3Float{Y: -3}, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, hit.Point.Y, 1e-3)
	assert.InDelta(t, 2.5, hit.Point.X, 1e-9)
	assert.Equal(t, GroundLayer, hit.Layer)

	_, ok = s.Raycast(vec.Vec3Float{Y: 10}, vec.Vec3Float{Y: 1}, 0)
	assert.False(t, ok, "луч вверх")
}

func TestScene_RaycastGroundFollowsNoise(t *testing.T) {
	h := NewHeightmap(Config{Seed: 7, Amplitude: 5})
	s := NewScene(h)

	hit, ok := s.Raycast(vec.Vec3Float{X: 4.2, Y: 50, Z: 9.1}, vec.Vec3Float{Y: -1}, GroundLayer)
	require.True(t, ok)
	assert.InDelta(t, h.HeightAt(4.2, 9.1), hit.Point.Y, 1e-3)
}

func TestScene_BoxesAndMask(t *testing.T) {
	s := NewScene(NewHeightmap(Config{}))
	roofLayer := StructureLayer
	s.AddBox(physics.NewBox(vec.Vec3Float{X: 5, Y: 3, Z: 5}, vec.Vec3Float{X: 2, Y: 2, Z: 2}, roofLayer))

	origin := vec.Vec3Float{X: 5, Y: 10, Z: 5}
	down := vec.Vec3Float{Y: -1}

	hit, ok := s.Raycast(origin, down, 0)
	require.True(t, ok)
	assert.InDelta(t, 4.0, hit.Point.Y, 1e-9, "крыша ближе рельефа")
	assert.Equal(t, roofLayer, hit.Layer)

	hit, ok = s.Raycast(origin, down, GroundLayer)
	require.True(t, ok)
	assert.InDelta(t, 0.0, hit.Point.Y, 1e-3, "маска пропускает только рельеф")

	noGround := NewScene(nil)
	_, ok = noGround.Raycast(origin, down, 0)
	assert.False(t, ok)
}

func TestScene_GridSurface(t *testing.T) {
	s := NewScene(nil)
	assert.False(t, s.AddGridSurface(grid.Spec{Name: "floor", Width: 4, Length: 4, CellSize: 1}))

	facade := grid.Spec{Name: "facade", Orientation: grid.Vertical, Origin: vec.Vec3Float{Z: 3},
		Width: 4, Length: 2, CellSize: 2}
	require.True(t, s.AddGridSurface(facade))

	hit, ok := s.Raycast(vec.Vec3Float{X: 3, Y: 1, Z: 10}, vec.Vec3Float{Z: -1}, 0)
	require.True(t, ok)
	assert.Equal(t, StructureLayer, hit.Layer)
	assert.InDelta(t, 3.05, hit.Point.Z, 1e-9)
	assert.Equal(t, vec.Vec2{X: 1, Y: 0}, facade.Mapper().WorldToCell(hit.Point))

	_, ok = s.Raycast(vec.Vec3Float{X: 9, Y: 1, Z: 10}, vec.Vec3Float{Z: -1}, 0)
	assert.False(t, ok, "луч мимо фасада")
}
