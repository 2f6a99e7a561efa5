package placement

import (
	"fmt"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// PointerHit – ячейка сетки под лучом курсора
type PointerHit struct {
	Grid           string
	Point          vec.Vec3Float
	Cell           vec.Vec2
	Layer          int
	Corner         grid.Corner
	CornerPosition vec.Vec3Float
	Edge           grid.Direction
}

// Pointer пускает луч в поверхность сцены и переводит точку попадания
// в ячейку, слой, ближайший угол и ближайшую сторону. Слой берётся из
// запроса или, при автоматической привязке, из высоты попадания.
// Второе значение false означает, что луч ни во что не попал.
func (m *Manager) Pointer(gridName string, layer int, origin, direction vec.Vec3Float, descriptorID string) (PointerHit, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.surface == nil {
		return PointerHit{}, false, fmt.Errorf("не задан оракул поверхностей")
	}
	inst, err := m.instanceLocked(gridName)
	if err != nil {
		return PointerHit{}, false, err
	}
	desc, err := m.descriptorLocked(descriptorID)
	if err != nil {
		return PointerHit{}, false, err
	}

	hit, ok := m.surface.Raycast(origin, direction, desc.SurfaceMask)
	if !ok {
		return PointerHit{}, false, nil
	}

	spec := inst.spec
	mapper := spec.Mapper()
	if desc.VerticalSnap == buildable.SnapAuto {
		layer = spec.LayerForHeight(mapper.Height(hit.Point), desc.SnapThresholdPercent)
	}
	if !spec.IsValidLayer(layer) {
		m.logger.Warn("Попадание на высоте %.2f вне слоёв сетки %s", mapper.Height(hit.Point), spec.Name)
		return PointerHit{}, false, fmt.Errorf("%w: %d", ErrInvalidVerticalLayer, layer)
	}

	cell := mapper.WorldToCell(hit.Point)
	cornerPos, corner := mapper.ClosestCorner(hit.Point, mapper.CellToWorld(cell, spec.LayerBase(layer)))
	return PointerHit{
		Grid:           spec.Name,
		Point:          hit.Point,
		Cell:           cell,
		Layer:          layer,
		Corner:         corner,
		CornerPosition: cornerPos,
		Edge:           mapper.ClosestEdge(hit.Point, cell),
	}, true, nil
}
