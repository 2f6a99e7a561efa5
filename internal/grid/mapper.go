package grid

import (
	"math"

	"github.com/annel0/gridkit/internal/vec"
)

// boundaryTolerance – относительная погрешность деления на размер
// ячейки, в пределах которой частное считается целым: 0.3/0.1 даёт
// 2.9999999999999996, но точка лежит на границе ячейки 3.
const boundaryTolerance = 1e-12

// floorIndex – индекс ячейки (или слоя) для частного q. Частное,
// отличающееся от целого только шумом округления, прижимается к этому
// целому; остальные округляются вниз.
func floorIndex(q float64) float64 {
	nearest := math.Round(q)
	if math.Abs(q-nearest) <= boundaryTolerance*math.Max(1, math.Abs(q)) {
		return nearest
	}
	return math.Floor(q)
}

// Mapper переводит мировые координаты в координаты ячеек и обратно.
// Не хранит состояния, только геометрию одной плоскости сетки.
type Mapper struct {
	Orientation Orientation
	Origin      vec.Vec3Float // мировая позиция нижнего угла ячейки (0,0)
	CellSize    float64
}

// NewMapper создаёт преобразователь координат
func NewMapper(o Orientation, origin vec.Vec3Float, cellSize float64) Mapper {
	return Mapper{Orientation: o, Origin: origin, CellSize: cellSize}
}

// ToPlane возвращает координаты точки в плоскости сетки относительно начала
func (m Mapper) ToPlane(p vec.Vec3Float) vec.Vec2Float {
	d := p.Sub(m.Origin)
	if m.Orientation == Vertical {
		return vec.Vec2Float{X: d.X, Y: d.Y}
	}
	return vec.Vec2Float{X: d.X, Y: d.Z}
}

// Height возвращает значение по "третьей" оси: Y для горизонтальной
// сетки, Z для вертикальной.
func (m Mapper) Height(p vec.Vec3Float) float64 {
	if m.Orientation == Vertical {
		return p.Z
	}
	return p.Y
}

// FromPlane собирает мировую точку из координат плоскости и высоты
func (m Mapper) FromPlane(plane vec.Vec2Float, height float64) vec.Vec3Float {
	if m.Orientation == Vertical {
		return vec.Vec3Float{X: m.Origin.X + plane.X, Y: m.Origin.Y + plane.Y, Z: height}
	}
	return vec.Vec3Float{X: m.Origin.X + plane.X, Y: height, Z: m.Origin.Z + plane.Y}
}

// WorldToCell возвращает ячейку, содержащую мировую точку
func (m Mapper) WorldToCell(p vec.Vec3Float) vec.Vec2 {
	plane := m.ToPlane(p)
	return vec.Vec2{
		X: int(floorIndex(plane.X / m.CellSize)),
		Y: int(floorIndex(plane.Y / m.CellSize)),
	}
}

// CellToWorld возвращает мировую позицию нижнего угла ячейки (не центра)
func (m Mapper) CellToWorld(cell vec.Vec2, height float64) vec.Vec3Float {
	return m.FromPlane(vec.FromVec2(cell).Mul(m.CellSize), height)
}

// CellCenter возвращает мировую позицию центра ячейки
func (m Mapper) CellCenter(cell vec.Vec2, height float64) vec.Vec3Float {
	half := m.CellSize / 2
	return m.FromPlane(vec.FromVec2(cell).Mul(m.CellSize).Add(vec.Vec2Float{X: half, Y: half}), height)
}

// closestCornerOrder – порядок проверки углов; при равных расстояниях
// побеждает первый.
var closestCornerOrder = [CornerCount]Corner{SouthWest, SouthEast, NorthWest, NorthEast}

// ClosestCorner возвращает ближайший к точке угол ячейки, нижний угол
// которой находится в cellWorld.
func (m Mapper) ClosestCorner(p, cellWorld vec.Vec3Float) (vec.Vec3Float, Corner) {
	point := m.ToPlane(p)
	base := m.ToPlane(cellWorld)
	height := m.Height(cellWorld)

	best := SouthWest
	bestDist := math.Inf(1)
	var bestPos vec.Vec2Float
	for _, c := range closestCornerOrder {
		pos := base.Add(c.Offset().Mul(m.CellSize))
		if d := pos.DistanceTo(point); d < bestDist {
			best, bestDist, bestPos = c, d, pos
		}
	}
	return m.FromPlane(bestPos, height), best
}

// ClosestEdge возвращает сторону ячейки, ближайшую к точке.
// Используется для выбора направления edge-объекта под курсором.
func (m Mapper) ClosestEdge(p vec.Vec3Float, cell vec.Vec2) Direction {
	local := m.ToPlane(p).Sub(vec.FromVec2(cell).Mul(m.CellSize)).Mul(1 / m.CellSize)
	distances := [DirectionCount]float64{
		North: 1 - local.Y,
		East:  1 - local.X,
		South: local.Y,
		West:  local.X,
	}
	best := North
	for d := North; d < DirectionCount; d++ {
		if distances[d] < distances[best] {
			best = d
		}
	}
	return best
}
