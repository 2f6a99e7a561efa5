package physics

import (
	"testing"

	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_IntersectRayFromAbove(t *testing.T) {
	roof := NewBox(vec.Vec3Float{X: 5, Y: 4, Z: 5}, vec.Vec3Float{X: 4, Y: 2, Z: 4}, 2)

	dist, normal, ok := roof.IntersectRay(vec.Vec3Float{X: 5, Y: 10, Z: 5}, vec.Vec3Float{Y: -1})
	require.True(t, ok)
	assert.InDelta(t, 5.0, dist, 1e-9, "верхняя грань на высоте 5")
	assert.Equal(t, vec.Vec3Float{Y: 1}, normal)
}

func TestBox_IntersectRaySide(t *testing.T) {
	wall := NewBox(vec.Vec3Float{}, vec.Vec3Float{X: 2, Y: 2, Z: 2}, 1)

	dist, normal, ok := wall.IntersectRay(vec.Vec3Float{X: -5}, vec.Vec3Float{X: 1})
	require.True(t, ok)
	assert.InDelta(t, 4.0, dist, 1e-9)
	assert.Equal(t, vec.Vec3Float{X: -1}, normal)

	_, _, ok = wall.IntersectRay(vec.Vec3Float{X: -5, Y: 3}, vec.Vec3Float{X: 1})
	assert.False(t, ok, "луч проходит выше")

	_, _, ok = wall.IntersectRay(vec.Vec3Float{X: 5}, vec.Vec3Float{X: 1})
	assert.False(t, ok, "коллайдер позади луча")
}

func TestBox_PointAndCollision(t *testing.T) {
	a := NewBox(vec.Vec3Float{}, vec.Vec3Float{X: 2, Y: 2, Z: 2}, 1)
	b := NewBox(vec.Vec3Float{X: 1.5}, vec.Vec3Float{X: 2, Y: 2, Z: 2}, 1)
	c := NewBox(vec.Vec3Float{X: 3}, vec.Vec3Float{X: 2, Y: 2, Z: 2}, 1)

	assert.True(t, a.IsPointInside(vec.Vec3Float{X: 1, Y: -1}))
	assert.False(t, a.IsPointInside(vec.Vec3Float{X: 1.1}))
	assert.True(t, CheckBoxCollision(a, b))
	assert.False(t, CheckBoxCollision(a, c), "касание гранями – не пересечение")
}
