package footprint

import (
	"fmt"
	"strings"

	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// PlacementShape – форма многоклеточного размещения протягиванием
type PlacementShape uint8

const (
	ShapeSingle PlacementShape = iota
	ShapeBox
	ShapeWireBox
	ShapeFourDirectionWire
	ShapeLShaped
)

func (s PlacementShape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeBox:
		return "box"
	case ShapeWireBox:
		return "wire_box"
	case ShapeFourDirectionWire:
		return "four_direction_wire"
	case ShapeLShaped:
		return "l_shaped"
	default:
		return "unknown"
	}
}

// ParsePlacementShape разбирает строку конфигурации или запроса
func ParsePlacementShape(s string) (PlacementShape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return ShapeSingle, nil
	case "box":
		return ShapeBox, nil
	case "wire_box", "wirebox":
		return ShapeWireBox, nil
	case "four_direction_wire", "wire":
		return ShapeFourDirectionWire, nil
	case "l_shaped", "l":
		return ShapeLShaped, nil
	}
	return ShapeSingle, fmt.Errorf("неизвестная форма размещения: %q", s)
}

// ShapeOptions – параметры построения формы
type ShapeOptions struct {
	// Facing – основное направление объекта. North/South заполняют
	// прямоугольник строками, East/West – столбцами.
	Facing grid.Direction
	// EndpointsOnly оставляет только концевые ячейки формы
	EndpointsOnly bool
	// MaxCount ограничивает количество ячеек; 0 – без ограничения
	MaxCount int
}

// ShapeCells строит упорядоченный список ячеек формы от start до end.
// Не зависит от занятости: фильтрация выполняется валидатором. При
// MaxCount обход останавливается на первых MaxCount ячейках.
func ShapeCells(shape PlacementShape, start, end vec.Vec2, opts ShapeOptions) []vec.Vec2 {
	var cells []vec.Vec2
	switch shape {
	case ShapeBox:
		cells = boxWalk(start, end, opts.Facing, boxAll, opts.MaxCount)
	case ShapeWireBox:
		mode := boxBorder
		if opts.EndpointsOnly {
			mode = boxCorners
		}
		cells = boxWalk(start, end, opts.Facing, mode, opts.MaxCount)
	case ShapeFourDirectionWire:
		cells = fourDirectionWire(start, end, opts.EndpointsOnly, opts.MaxCount)
	case ShapeLShaped:
		cells = lShaped(start, end, opts.EndpointsOnly, opts.MaxCount)
	default:
		cells = []vec.Vec2{start}
	}
	if opts.MaxCount > 0 && len(cells) > opts.MaxCount {
		cells = cells[:opts.MaxCount]
	}
	return cells
}

// maxPrealloc ограничивает начальную ёмкость списка ячеек
const maxPrealloc = 4096

// collector собирает ячейки, пока не наберёт limit (0 – без ограничения)
type collector struct {
	cells []vec.Vec2
	limit int
}

func newCollector(expected, limit int) *collector {
	if limit > 0 && expected > limit {
		expected = limit
	}
	if expected < 0 || expected > maxPrealloc {
		expected = maxPrealloc
	}
	return &collector{cells: make([]vec.Vec2, 0, expected), limit: limit}
}

// add добавляет ячейку и сообщает, можно ли продолжать
func (c *collector) add(cell vec.Vec2) bool {
	c.cells = append(c.cells, cell)
	return c.limit <= 0 || len(c.cells) < c.limit
}

// walkStep – шаг обхода от start к end по одной оси; при совпадении
// координат шаг положительный.
func walkStep(from, to int) int {
	if to < from {
		return -1
	}
	return 1
}

type boxMode uint8

const (
	boxAll boxMode = iota
	boxBorder
	boxCorners
)

// boxWalk обходит прямоугольник от start к end. Для North/South внешний
// цикл идёт по строкам, для East/West – по столбцам. Внутренние строки
// границы и углов не перебираются целиком.
func boxWalk(start, end vec.Vec2, facing grid.Direction, mode boxMode, limit int) []vec.Vec2 {
	sx, sy := walkStep(start.X, end.X), walkStep(start.Y, end.Y)
	w, h := vec.Abs(end.X-start.X)+1, vec.Abs(end.Y-start.Y)+1

	outer, inner := h, w
	at := func(o, i int) vec.Vec2 { return vec.Vec2{X: start.X + i*sx, Y: start.Y + o*sy} }
	if !facing.IsNorthSouth() {
		outer, inner = w, h
		at = func(o, i int) vec.Vec2 { return vec.Vec2{X: start.X + o*sx, Y: start.Y + i*sy} }
	}

	expected := w * h
	if mode != boxAll {
		expected = 2*(w+h) - 4
	}
	c := newCollector(expected, limit)
	for o := 0; o < outer; o++ {
		boundary := o == 0 || o == outer-1
		switch {
		case mode == boxAll, mode == boxBorder && boundary:
			for i := 0; i < inner; i++ {
				if !c.add(at(o, i)) {
					return c.cells
				}
			}
		case mode == boxBorder, mode == boxCorners && boundary:
			if !c.add(at(o, 0)) {
				return c.cells
			}
			if inner > 1 && !c.add(at(o, inner-1)) {
				return c.cells
			}
		}
	}
	return c.cells
}

// Box возвращает все ячейки прямоугольника, начиная со start и двигаясь
// к end. Для North/South внешний цикл идёт по строкам, для East/West –
// по столбцам.
func Box(start, end vec.Vec2, facing grid.Direction) []vec.Vec2 {
	return boxWalk(start, end, facing, boxAll, 0)
}

// WireBox возвращает только граничные ячейки прямоугольника в порядке
// Box; при endpointsOnly – только его угловые ячейки.
func WireBox(start, end vec.Vec2, facing grid.Direction, endpointsOnly bool) []vec.Vec2 {
	if endpointsOnly {
		return boxWalk(start, end, facing, boxCorners, 0)
	}
	return boxWalk(start, end, facing, boxBorder, 0)
}

// FourDirectionWire возвращает прямую линию от start по оси с большим
// по модулю смещением (при равенстве – по X). Конец линии – проекция end
// на эту ось.
func FourDirectionWire(start, end vec.Vec2, endpointsOnly bool) []vec.Vec2 {
	return fourDirectionWire(start, end, endpointsOnly, 0)
}

func fourDirectionWire(start, end vec.Vec2, endpointsOnly bool, limit int) []vec.Vec2 {
	lineEnd := vec.Vec2{X: end.X, Y: start.Y}
	if vec.Abs(end.Y-start.Y) > vec.Abs(end.X-start.X) {
		lineEnd = vec.Vec2{X: start.X, Y: end.Y}
	}
	if endpointsOnly {
		return uniqueCells(start, lineEnd)
	}
	return line(start, lineEnd, limit)
}

// LShaped возвращает L-образную линию: основной отрезок по оси с
// большим смещением до точки излома, затем отрезок по оставшейся оси.
func LShaped(start, end vec.Vec2, endpointsOnly bool) []vec.Vec2 {
	return lShaped(start, end, endpointsOnly, 0)
}

func lShaped(start, end vec.Vec2, endpointsOnly bool, limit int) []vec.Vec2 {
	bend := vec.Vec2{X: end.X, Y: start.Y}
	if vec.Abs(end.Y-start.Y) > vec.Abs(end.X-start.X) {
		bend = vec.Vec2{X: start.X, Y: end.Y}
	}
	if endpointsOnly {
		return uniqueCells(start, bend, end)
	}
	cells := line(start, bend, limit)
	if limit > 0 && len(cells) >= limit {
		return cells
	}
	rest := 0
	if limit > 0 {
		rest = limit - len(cells) + 1
	}
	secondary := line(bend, end, rest)
	return append(cells, secondary[1:]...)
}

// line – ячейки отрезка по одной оси включительно, не больше limit
func line(from, to vec.Vec2, limit int) []vec.Vec2 {
	step := vec.Vec2{X: vec.Sign(to.X - from.X), Y: vec.Sign(to.Y - from.Y)}
	n := vec.Abs(to.X-from.X) + vec.Abs(to.Y-from.Y)
	c := newCollector(n+1, limit)
	for i := 0; i <= n; i++ {
		if !c.add(from.Add(step.Scale(i))) {
			break
		}
	}
	return c.cells
}

func uniqueCells(cells ...vec.Vec2) []vec.Vec2 {
	out := make([]vec.Vec2, 0, len(cells))
	seen := make(map[vec.Vec2]struct{}, len(cells))
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
