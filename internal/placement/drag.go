package placement

import (
	"fmt"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/footprint"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// DragSession – жест протягивания: от начальной ячейки до текущей
// строится набор ячеек выбранной формы. Update только показывает
// превью, Commit размещает, Cancel сбрасывает.
type DragSession struct {
	m      *Manager
	spec   grid.Spec
	base   Request
	shape  footprint.PlacementShape
	opts   footprint.ShapeOptions
	start  vec.Vec2
	end    vec.Vec2
	margin int // на сколько ячеек якорь может выйти за сетку
	active bool
}

// StartDrag начинает жест. Начальная ячейка – якорь формы base.
// Направление формы совпадает с поворотом объекта.
func (m *Manager) StartDrag(base Request, shape footprint.PlacementShape, opts footprint.ShapeOptions) (*DragSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.prepareLocked(base)
	if err != nil {
		return nil, err
	}
	opts.Facing = base.Placement.Rotation.Direction()

	start := c.fp.Anchor
	if edge, ok := base.Placement.Shape.(buildable.EdgeShape); ok {
		start = edge.Anchor
	}

	base.Placement.Grid = c.inst.spec.Name
	base.ObjectID = ""
	return &DragSession{
		m:      m,
		spec:   c.inst.spec,
		base:   base,
		shape:  shape,
		opts:   opts,
		start:  start,
		end:    start,
		margin: max(c.fp.Size.X, c.fp.Size.Y),
		active: true,
	}, nil
}

// Active сообщает, не завершён ли жест
func (d *DragSession) Active() bool {
	return d.active
}

// Cells возвращает текущий набор ячеек жеста
func (d *DragSession) Cells() []vec.Vec2 {
	return footprint.ShapeCells(d.shape, d.start, d.end, d.opts)
}

// Update переносит конец жеста в cell и возвращает превью каждой
// ячейки. Занятость не меняется.
func (d *DragSession) Update(cell vec.Vec2) ([]Preview, error) {
	if !d.active {
		return nil, fmt.Errorf("жест уже завершён")
	}
	d.end = d.clamp(cell)

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	cells := d.Cells()
	previews := make([]Preview, 0, len(cells))
	for _, c := range cells {
		cand, err := d.m.prepareLocked(d.requestAt(c))
		if err != nil {
			return nil, err
		}
		previews = append(previews, cand.preview(d.m.validateLocked(cand)))
	}
	return previews, nil
}

// clamp прижимает конец жеста к сетке, расширенной на размер объекта.
// Якорь дальше этой рамки не даёт ни одного места внутри сетки.
func (d *DragSession) clamp(cell vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: min(max(cell.X, -d.margin), d.spec.Width-1+d.margin),
		Y: min(max(cell.Y, -d.margin), d.spec.Length-1+d.margin),
	}
}

// Commit размещает объект в каждой ячейке жеста по порядку.
// Отклонённые ячейки пропускаются; их итоги тоже есть в результате.
func (d *DragSession) Commit() ([]Result, error) {
	if !d.active {
		return nil, fmt.Errorf("жест уже завершён")
	}
	d.active = false

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	cells := d.Cells()
	results := make([]Result, 0, len(cells))
	for _, c := range cells {
		res, err := d.m.placeLocked(d.requestAt(c))
		if err != nil && res.Decision.Allowed() {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Cancel завершает жест без изменений
func (d *DragSession) Cancel() {
	d.active = false
}

// requestAt переносит якорь базового запроса в ячейку
func (d *DragSession) requestAt(cell vec.Vec2) Request {
	req := d.base
	switch s := d.base.Placement.Shape.(type) {
	case buildable.AreaShape:
		req.Placement.Shape = buildable.AreaShape{Anchor: cell}
	case buildable.EdgeShape:
		req.Placement.Shape = buildable.EdgeShape{Anchor: cell, Flipped: s.Flipped}
	case buildable.CornerShape:
		req.Placement.Shape = buildable.CornerShape{Anchor: cell, Corner: s.Corner}
	case buildable.FreeShape:
		mapper := d.spec.Mapper()
		req.Placement.Shape = buildable.FreeShape{Position: mapper.CellCenter(cell, mapper.Height(s.Position))}
	}
	return req
}
