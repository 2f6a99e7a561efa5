package buildable

import (
	"testing"

	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRotation_FourDirectionalCycle(t *testing.T) {
	r := FourRotation(grid.North)
	for _, want := range []grid.Direction{grid.East, grid.South, grid.West, grid.North} {
		r = r.Clockwise(0)
		assert.Equal(t, want, r.Direction())
	}
	assert.Equal(t, grid.West, FourRotation(grid.North).CounterClockwise(0).Direction())
}

func TestRotation_EightAndFree(t *testing.T) {
	r := EightRotation(EightNorth).Clockwise(0)
	assert.Equal(t, 45.0, r.Degrees())
	assert.Equal(t, EightNorthWest, EightRotation(EightNorth).CounterClockwise(0).Eight)

	free := AngleRotation(-30)
	assert.InDelta(t, 330.0, free.Degrees(), 1e-9, "угол нормализуется в [0,360)")
	assert.Equal(t, grid.North, free.Direction())
	assert.Equal(t, grid.East, AngleRotation(100).Direction())
	assert.InDelta(t, 15.0, free.Clockwise(45).Degrees(), 1e-9)
}

func TestDescriptor_YAML(t *testing.T) {
	src := `
id: wall
kind: edge
category: walls
scale: {x: 3, y: 2, z: 0.2}
rotation: four_direction
flags: [replaceable, destructible]
vertical_snap: auto
snap_threshold_percent: 60
custom_values: {defense: 2.5}
`
	var d Descriptor
	require.NoError(t, yaml.Unmarshal([]byte(src), &d))
	require.NoError(t, d.Validate())

	assert.Equal(t, grid.KindEdge, d.Kind)
	assert.True(t, d.Is(FlagReplaceable))
	assert.True(t, d.Is(FlagDestructible))
	assert.False(t, d.Is(FlagMovable))
	assert.Equal(t, SnapAuto, d.VerticalSnap)
	assert.Equal(t, 2.5, d.CustomValues["defense"])
}

func TestDescriptor_ValidateRejectsEightDirectionalArea(t *testing.T) {
	d := &Descriptor{ID: "x", Category: "c", Kind: grid.KindArea, Scale: vec.Vec3Float{X: 1, Z: 1}, RotationType: EightDirectional}
	assert.Error(t, d.Validate())
}

func TestDescriptor_ScaleFor(t *testing.T) {
	d := &Descriptor{Scale: vec.Vec3Float{X: 1}, Variants: []Variant{{Name: "big", Scale: vec.Vec3Float{X: 4}}}}
	assert.Equal(t, 1.0, d.ScaleFor(0).X)
	assert.Equal(t, 4.0, d.ScaleFor(1).X)
	assert.Equal(t, 1.0, d.ScaleFor(7).X, "неизвестный вариант даёт базовый масштаб")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	d := &Descriptor{ID: "floor", Category: "floors", Kind: grid.KindArea, Scale: vec.Vec3Float{X: 1, Z: 1}}
	require.NoError(t, r.Register(d))
	assert.Error(t, r.Register(d), "повторная регистрация запрещена")

	got, ok := r.Get("floor")
	assert.True(t, ok)
	assert.Same(t, d, got)
	assert.Equal(t, []string{"floor"}, r.IDs())
}

func TestObjectClone(t *testing.T) {
	o := &Object{ID: NewObjectID(), Footprint: []grid.Slot{{Cell: vec.Vec2{X: 1}}}}
	c := o.Clone()
	c.Footprint[0].Cell.X = 9
	assert.Equal(t, 1, o.Footprint[0].Cell.X)
	assert.NotEmpty(t, string(o.ID))
}
