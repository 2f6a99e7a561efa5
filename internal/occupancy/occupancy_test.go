package occupancy

import (
	"testing"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_AreaExclusive(t *testing.T) {
	var r Record
	slot := grid.Slot{Cell: vec.Vec2{X: 1, Y: 1}}

	assert.True(t, r.Insert(grid.KindArea, slot, "floors", "a"))
	assert.False(t, r.Insert(grid.KindArea, slot, "floors", "b"), "категория занимает место не более одного раза")
	assert.True(t, r.Insert(grid.KindArea, slot, "furniture", "b"), "другая категория независима")

	id, ok := r.Occupant(grid.KindArea, slot, "floors")
	assert.True(t, ok)
	assert.Equal(t, buildable.ObjectID("a"), id)
}

func TestRecord_EdgesAndCornersKeyedByDirection(t *testing.T) {
	var r Record
	north := grid.Slot{Edge: grid.North}
	east := grid.Slot{Edge: grid.East}

	assert.True(t, r.Insert(grid.KindEdge, north, "walls", "w1"))
	assert.True(t, r.Insert(grid.KindEdge, east, "walls", "w2"))
	_, ok := r.Occupant(grid.KindEdge, grid.Slot{Edge: grid.South}, "walls")
	assert.False(t, ok)

	ne := grid.Slot{Corner: grid.NorthEast}
	assert.True(t, r.Insert(grid.KindCorner, ne, "pillars", "p1"))
	assert.False(t, r.Insert(grid.KindCorner, ne, "pillars", "p2"))
	assert.True(t, r.Insert(grid.KindCorner, grid.Slot{Corner: grid.SouthWest}, "pillars", "p2"))
}

func TestRecord_FreeList(t *testing.T) {
	var r Record
	assert.True(t, r.Insert(grid.KindFree, grid.Slot{}, "props", "f1"))
	assert.True(t, r.Insert(grid.KindFree, grid.Slot{}, "props", "f2"))
	_, ok := r.Occupant(grid.KindFree, grid.Slot{}, "props")
	assert.False(t, ok, "free-объекты не исключают друг друга")
	assert.Equal(t, []buildable.ObjectID{"f1", "f2"}, r.Free)

	assert.True(t, r.Remove(grid.KindFree, grid.Slot{}, "props", "f1"))
	assert.False(t, r.Remove(grid.KindFree, grid.Slot{}, "props", "f1"))
	assert.True(t, r.Remove(grid.KindFree, grid.Slot{}, "props", "f2"))
	assert.Nil(t, r.Free)
}

func TestRecord_RemoveRestoresZeroValue(t *testing.T) {
	var r Record
	slot := grid.Slot{Edge: grid.West}
	require.True(t, r.Insert(grid.KindEdge, slot, "walls", "w"))
	assert.False(t, r.Remove(grid.KindEdge, slot, "walls", "other"), "чужой объект не удаляется")
	assert.True(t, r.Remove(grid.KindEdge, slot, "walls", "w"))

	assert.Equal(t, Record{}, r)
	assert.True(t, r.IsEmpty())
}

func TestRecord_CloneIsDeep(t *testing.T) {
	var r Record
	r.Insert(grid.KindArea, grid.Slot{}, "floors", "a")
	r.Insert(grid.KindFree, grid.Slot{}, "props", "f")

	c := r.Clone()
	c.Insert(grid.KindArea, grid.Slot{}, "walls", "b")
	c.Free[0] = "changed"

	assert.Len(t, r.Area, 1)
	assert.Equal(t, buildable.ObjectID("f"), r.Free[0])
}

func TestGrid_CopyModifyWrite(t *testing.T) {
	g := NewGrid(4, 3)
	cell := vec.Vec2{X: 3, Y: 2}

	rec, ok := g.GetCellData(cell)
	require.True(t, ok)
	rec.Insert(grid.KindArea, grid.Slot{Cell: cell}, "floors", "a")

	// Изменение копии не видно до SetCellData
	stored, _ := g.GetCellData(cell)
	assert.True(t, stored.IsEmpty())

	require.NoError(t, g.SetCellData(cell, rec))
	stored, _ = g.GetCellData(cell)
	assert.Equal(t, rec, stored)

	count := 0
	g.ForEachOccupied(func(c vec.Vec2, _ Record) {
		assert.Equal(t, cell, c)
		count++
	})
	assert.Equal(t, 1, count)
}

func TestGrid_Bounds(t *testing.T) {
	g := NewGrid(2, 2)
	assert.True(t, g.IsWithinBounds(vec.Vec2{X: 1, Y: 1}))
	assert.False(t, g.IsWithinBounds(vec.Vec2{X: 2, Y: 0}))
	assert.False(t, g.IsWithinBounds(vec.Vec2{X: 0, Y: -1}))

	_, ok := g.GetCellData(vec.Vec2{X: 5, Y: 5})
	assert.False(t, ok)
	assert.Error(t, g.SetCellData(vec.Vec2{X: 5, Y: 5}, Record{}))
}

func TestStack_Layers(t *testing.T) {
	s := NewStack(3, 3, 2)
	assert.Equal(t, 2, s.Count())

	var rec Record
	rec.Insert(grid.KindArea, grid.Slot{}, "floors", "a")
	require.NoError(t, s.SetCellData(vec.Vec2{}, 1, rec))

	ground, _ := s.GetCellData(vec.Vec2{}, 0)
	upper, _ := s.GetCellData(vec.Vec2{}, 1)
	assert.True(t, ground.IsEmpty(), "слои независимы")
	assert.False(t, upper.IsEmpty())

	assert.Error(t, s.SetCellData(vec.Vec2{}, 2, rec))
	_, ok := s.Layer(-1)
	assert.False(t, ok)
}
