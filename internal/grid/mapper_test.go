package grid

import (
	"testing"

	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestMapper_WorldToCellHorizontal(t *testing.T) {
	m := NewMapper(Horizontal, vec.Vec3Float{X: 10, Y: 0, Z: -5}, 2)

	assert.Equal(t, vec.Vec2{X: 0, Y: 0}, m.WorldToCell(vec.Vec3Float{X: 10, Y: 7, Z: -5}), "нижний угол принадлежит ячейке (0,0)")
	assert.Equal(t, vec.Vec2{X: 1, Y: 2}, m.WorldToCell(vec.Vec3Float{X: 12, Y: 0, Z: -1}), "граница относится к ячейке с большим индексом")
	assert.Equal(t, vec.Vec2{X: -1, Y: -1}, m.WorldToCell(vec.Vec3Float{X: 9.9, Z: -5.1}), "отрицательные координаты округляются вниз")
}

func TestMapper_WorldToCellVertical(t *testing.T) {
	m := NewMapper(Vertical, vec.Vec3Float{}, 1)

	// Глубина Z не влияет на ячейку
	assert.Equal(t, vec.Vec2{X: 3, Y: 4}, m.WorldToCell(vec.Vec3Float{X: 3.5, Y: 4.2, Z: 100}))
	assert.Equal(t, 100.0, m.Height(vec.Vec3Float{Z: 100}))
}

func TestMapper_BoundaryPrecision(t *testing.T) {
	m := NewMapper(Horizontal, vec.Vec3Float{}, 0.1)

	// 0.3/0.1 в float64 даёт 2.9999999999999996
	assert.Equal(t, 3, m.WorldToCell(vec.Vec3Float{X: 0.3}).X)
}

func TestMapper_PointBelowUpperBoundary(t *testing.T) {
	m := NewMapper(Horizontal, vec.Vec3Float{}, 1)

	assert.Equal(t, vec.Vec2{X: 0, Y: 0}, m.WorldToCell(vec.Vec3Float{X: 0.9999999995}), "точка внутри ячейки 0")
	assert.Equal(t, vec.Vec2{X: 1, Y: 0}, m.WorldToCell(vec.Vec3Float{X: 1}))
	assert.Equal(t, vec.Vec2{X: -1, Y: 0}, m.WorldToCell(vec.Vec3Float{X: -0.0000000005}))

	fine := NewMapper(Horizontal, vec.Vec3Float{}, 0.1)
	assert.Equal(t, 2, fine.WorldToCell(vec.Vec3Float{X: 0.2999999}).X)
}

func TestMapper_CellRoundTrip(t *testing.T) {
	for _, o := range []Orientation{Horizontal, Vertical} {
		m := NewMapper(o, vec.Vec3Float{X: 1, Y: 2, Z: 3}, 1.5)
		for x := -3; x < 3; x++ {
			for y := -3; y < 3; y++ {
				cell := vec.Vec2{X: x, Y: y}
				corner := m.CellToWorld(cell, 0)
				center := m.CellCenter(cell, 0)
				assert.Equal(t, cell, m.WorldToCell(corner), "угол ячейки %v (%s)", cell, o)
				assert.Equal(t, cell, m.WorldToCell(center), "центр ячейки %v (%s)", cell, o)
			}
		}
	}
}

func TestMapper_CellToWorldKeepsHeight(t *testing.T) {
	h := NewMapper(Horizontal, vec.Vec3Float{}, 2)
	assert.Equal(t, vec.Vec3Float{X: 4, Y: 7, Z: 6}, h.CellToWorld(vec.Vec2{X: 2, Y: 3}, 7))

	v := NewMapper(Vertical, vec.Vec3Float{}, 2)
	assert.Equal(t, vec.Vec3Float{X: 4, Y: 6, Z: 7}, v.CellToWorld(vec.Vec2{X: 2, Y: 3}, 7))
}

func TestMapper_ClosestCorner(t *testing.T) {
	m := NewMapper(Horizontal, vec.Vec3Float{}, 1)
	cell := m.CellToWorld(vec.Vec2{X: 2, Y: 2}, 0)

	cases := []struct {
		point  vec.Vec3Float
		corner Corner
		pos    vec.Vec3Float
	}{
		{vec.Vec3Float{X: 2.1, Z: 2.1}, SouthWest, vec.Vec3Float{X: 2, Z: 2}},
		{vec.Vec3Float{X: 2.9, Z: 2.1}, SouthEast, vec.Vec3Float{X: 3, Z: 2}},
		{vec.Vec3Float{X: 2.1, Z: 2.9}, NorthWest, vec.Vec3Float{X: 2, Z: 3}},
		{vec.Vec3Float{X: 2.9, Z: 2.9}, NorthEast, vec.Vec3Float{X: 3, Z: 3}},
	}
	for _, tc := range cases {
		pos, corner := m.ClosestCorner(tc.point, cell)
		assert.Equal(t, tc.corner, corner, "точка %v", tc.point)
		assert.Equal(t, tc.pos, pos, "точка %v", tc.point)
	}
}

func TestMapper_ClosestCornerTieBreak(t *testing.T) {
	m := NewMapper(Horizontal, vec.Vec3Float{}, 1)
	cell := m.CellToWorld(vec.Vec2{}, 0)

	// Центр равноудалён от всех углов – побеждает SW как первый в порядке обхода
	_, corner := m.ClosestCorner(vec.Vec3Float{X: 0.5, Z: 0.5}, cell)
	assert.Equal(t, SouthWest, corner)

	// Равноудалённые SE и NE – побеждает SE
	_, corner = m.ClosestCorner(vec.Vec3Float{X: 1, Z: 0.5}, cell)
	assert.Equal(t, SouthEast, corner)
}

func TestMapper_ClosestEdge(t *testing.T) {
	m := NewMapper(Horizontal, vec.Vec3Float{}, 1)
	cell := vec.Vec2{X: 1, Y: 1}

	assert.Equal(t, North, m.ClosestEdge(vec.Vec3Float{X: 1.5, Z: 1.9}, cell))
	assert.Equal(t, East, m.ClosestEdge(vec.Vec3Float{X: 1.95, Z: 1.5}, cell))
	assert.Equal(t, South, m.ClosestEdge(vec.Vec3Float{X: 1.5, Z: 1.05}, cell))
	assert.Equal(t, West, m.ClosestEdge(vec.Vec3Float{X: 1.01, Z: 1.5}, cell))
}

func TestSpec_LayerForHeight(t *testing.T) {
	s := Spec{Name: "g", Width: 4, Length: 4, CellSize: 1, Layers: 3, LayerHeight: 2}

	assert.Equal(t, 0, s.LayerForHeight(0.5, 0))
	assert.Equal(t, 1, s.LayerForHeight(2, 0), "основание слоя относится к этому слою")
	assert.Equal(t, 0, s.LayerForHeight(1.4, 75))
	assert.Equal(t, 1, s.LayerForHeight(1.6, 75), "75% высоты слоя переносят на следующий")
	assert.Equal(t, 5, s.LayerForHeight(10.1, 0), "индекс не ограничивается количеством слоёв")
	assert.False(t, s.IsValidLayer(5))
	assert.True(t, s.IsValidLayer(2))
}

func TestSpec_Validate(t *testing.T) {
	ok := Spec{Name: "g", Width: 1, Length: 1, CellSize: 1, Layers: 1}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.CellSize = 0
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Layers = 2
	assert.Error(t, bad.Validate(), "несколько слоёв без высоты слоя")
}
