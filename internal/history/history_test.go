package history

import (
	"testing"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/occupancy"
	"github.com/annel0/gridkit/internal/placement"
	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keepAll struct{}

func (keepAll) CanDestroy(*buildable.Object) bool { return true }
func (keepAll) OnDestroyed(*buildable.Object)     {}

func newManager(t *testing.T, opts ...placement.Option) *placement.Manager {
	t.Helper()
	reg := buildable.NewRegistry()
	require.NoError(t, reg.Register(&buildable.Descriptor{ID: "house", Kind: grid.KindArea, Category: "buildings",
		Scale: vec.Vec3Float{X: 2, Z: 2}, Flags: buildable.FlagMovable | buildable.FlagDestructible}))
	require.NoError(t, reg.Register(&buildable.Descriptor{ID: "grass", Kind: grid.KindArea, Category: "buildings",
		Scale: vec.Vec3Float{X: 1, Z: 1}, Flags: buildable.FlagReplaceable}))

	m := placement.NewManager(reg, append([]placement.Option{placement.WithDestroyer(keepAll{})}, opts...)...)
	require.NoError(t, m.RegisterGrid(grid.Spec{Name: "ground", Width: 8, Length: 8, CellSize: 1, Layers: 1}))
	require.NoError(t, m.Finalize())
	return m
}

// reach – игрок, который может строить только рядом с началом координат
// или нигде, если far
type reach struct{ far bool }

func (r *reach) Unrestricted() bool { return false }
func (r *reach) IsWithinPlacementDistance(vec.Vec3Float) bool {
	return !r.far
}

func req(desc string, x, y int) placement.Request {
	return placement.Request{
		Descriptor: desc,
		Placement:  buildable.Placement{Grid: "ground", Shape: buildable.AreaShape{Anchor: vec.Vec2{X: x, Y: y}}},
	}
}

func occupant(t *testing.T, m *placement.Manager, x, y int) buildable.ObjectID {
	t.Helper()
	rec, err := m.CellData("ground", 0, vec.Vec2{X: x, Y: y})
	require.NoError(t, err)
	return rec.Area["buildings"]
}

func allRecords(t *testing.T, m *placement.Manager) []occupancy.Record {
	t.Helper()
	var out []occupancy.Record
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			rec, err := m.CellData("ground", 0, vec.Vec2{X: x, Y: y})
			require.NoError(t, err)
			out = append(out, rec)
		}
	}
	return out
}

func TestHistory_UndoRedoPlace(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)
	empty := allRecords(t, m)

	res, err := h.Place(req("house", 1, 1))
	require.NoError(t, err)
	placed := allRecords(t, m)

	require.NoError(t, h.Undo())
	assert.Equal(t, empty, allRecords(t, m))
	assert.True(t, h.CanRedo())

	require.NoError(t, h.Redo())
	assert.Equal(t, placed, allRecords(t, m))
	assert.Equal(t, res.Object.ID, occupant(t, m, 2, 2), "повтор сохраняет ID объекта")
}

func TestHistory_UndoDestroyKeepsID(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)

	res, err := h.Place(req("house", 0, 0))
	require.NoError(t, err)
	id := res.Object.ID

	require.True(t, h.Destroy(id))
	assert.Empty(t, occupant(t, m, 0, 0))

	require.NoError(t, h.Undo())
	assert.Equal(t, id, occupant(t, m, 1, 1))

	require.NoError(t, h.Redo())
	_, ok := m.Object(id)
	assert.False(t, ok)

	assert.False(t, h.Destroy(id), "уже уничтожен – в историю не попадает")
}

func TestHistory_UndoReplacementRestoresReplaced(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)

	grass, err := m.Place(req("grass", 3, 3))
	require.NoError(t, err)

	res, err := h.Place(req("house", 3, 3))
	require.NoError(t, err)
	require.Equal(t, []buildable.ObjectID{grass.Object.ID}, res.Replaced)

	require.NoError(t, h.Undo())
	assert.Equal(t, grass.Object.ID, occupant(t, m, 3, 3), "вытесненный объект вернулся")
	assert.Empty(t, occupant(t, m, 4, 4))
}

func TestHistory_UndoMove(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)

	res, err := h.Place(req("house", 0, 0))
	require.NoError(t, err)
	id := res.Object.ID

	target := res.Object.Placement
	target.Shape = buildable.AreaShape{Anchor: vec.Vec2{X: 5, Y: 5}}
	_, err = h.Move(id, target)
	require.NoError(t, err)
	assert.Equal(t, id, occupant(t, m, 6, 6))

	require.NoError(t, h.Undo())
	assert.Equal(t, id, occupant(t, m, 0, 0))
	assert.Empty(t, occupant(t, m, 6, 6))

	require.NoError(t, h.Redo())
	assert.Equal(t, id, occupant(t, m, 5, 5))
}

func TestHistory_RejectedActionsNotRecorded(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)

	_, err := h.Place(req("house", 7, 7))
	assert.ErrorIs(t, err, placement.ErrOutOfBounds)
	assert.False(t, h.CanUndo())
	assert.ErrorIs(t, h.Undo(), ErrNothingToUndo)
	assert.ErrorIs(t, h.Redo(), ErrNothingToRedo)
}

func TestHistory_NewActionClearsRedoAndLimit(t *testing.T) {
	m := newManager(t)
	h := New(m, 2)

	for i := 0; i < 3; i++ {
		_, err := h.Place(req("house", i*2, 0))
		require.NoError(t, err)
	}
	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())
	assert.ErrorIs(t, h.Undo(), ErrNothingToUndo, "глубина ограничена двумя действиями")
	assert.NotEmpty(t, occupant(t, m, 0, 0), "первое размещение вне истории")

	require.True(t, h.CanRedo())
	_, err := h.Place(req("house", 0, 4))
	require.NoError(t, err)
	assert.False(t, h.CanRedo())

	h.Clear()
	assert.False(t, h.CanUndo())
}

func TestHistory_DestroyByUser(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)

	grass, err := h.Place(req("grass", 5, 5))
	require.NoError(t, err)
	h.Clear()

	destroyed, err := h.DestroyByUser(grass.Object.ID)
	assert.ErrorIs(t, err, placement.ErrNotDestructible)
	assert.False(t, destroyed)
	assert.False(t, h.CanUndo(), "отказ не записывается")

	house, err := h.Place(req("house", 0, 0))
	require.NoError(t, err)
	destroyed, err = h.DestroyByUser(house.Object.ID)
	require.NoError(t, err)
	require.True(t, destroyed)

	require.NoError(t, h.Undo())
	assert.Equal(t, house.Object.ID, occupant(t, m, 0, 0))

	destroyed, err = h.DestroyByUser("missing")
	assert.NoError(t, err)
	assert.False(t, destroyed)
}

func TestHistory_RotateIsUndoable(t *testing.T) {
	m := newManager(t)
	h := New(m, 0)

	res, err := h.Place(req("house", 3, 3))
	require.NoError(t, err)
	id := res.Object.ID

	rotated, err := h.Rotate(id, true)
	require.NoError(t, err)
	assert.Equal(t, grid.East, rotated.Object.Placement.Rotation.Direction())
	assert.Equal(t, id, occupant(t, m, 1, 3), "восток смещает блок на -H по X")
	assert.Empty(t, occupant(t, m, 4, 3))

	require.NoError(t, h.Undo())
	assert.Equal(t, id, occupant(t, m, 4, 4))
	assert.Empty(t, occupant(t, m, 1, 3))

	_, err = h.Flip(id)
	assert.Error(t, err, "area-объект не отражается")
	_, err = h.Rotate("missing", true)
	assert.ErrorIs(t, err, placement.ErrUnknownObject)
}

func TestHistory_UndoRedoIgnoresDistance(t *testing.T) {
	player := &reach{}
	m := newManager(t, placement.WithDistanceChecker(player))
	h := New(m, 0)

	res, err := h.Place(req("house", 0, 0))
	require.NoError(t, err)
	id := res.Object.ID
	require.True(t, h.Destroy(id))

	player.far = true
	require.NoError(t, h.Undo(), "отмена уничтожения не зависит от положения игрока")
	assert.Equal(t, id, occupant(t, m, 1, 1))
	require.NoError(t, h.Redo())
	require.NoError(t, h.Undo())

	player.far = false
	target := res.Object.Placement
	target.Shape = buildable.AreaShape{Anchor: vec.Vec2{X: 5, Y: 5}}
	_, err = h.Move(id, target)
	require.NoError(t, err)

	player.far = true
	require.NoError(t, h.Undo(), "отмена перемещения не зависит от положения игрока")
	assert.Equal(t, id, occupant(t, m, 0, 0))
	require.NoError(t, h.Redo())
	assert.Equal(t, id, occupant(t, m, 5, 5))

	_, err = h.Move(id, res.Object.Placement)
	assert.ErrorIs(t, err, placement.ErrTooFar, "новое действие проверяет дальность")
	dec, err := m.Validate(req("house", 2, 2))
	require.NoError(t, err)
	assert.Equal(t, placement.TooFar, dec.Reason)
}

func TestHistory_UndoPlaceThenRedoWhenFar(t *testing.T) {
	player := &reach{}
	m := newManager(t, placement.WithDistanceChecker(player))
	h := New(m, 0)

	res, err := h.Place(req("house", 2, 2))
	require.NoError(t, err)
	require.NoError(t, h.Undo())

	player.far = true
	require.NoError(t, h.Redo())
	assert.Equal(t, res.Object.ID, occupant(t, m, 2, 2))
}
