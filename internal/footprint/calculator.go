// Package footprint вычисляет места сетки, которые занимает объект.
// Все функции чистые: одинаковые аргументы всегда дают одинаковый,
// одинаково упорядоченный результат. Валидатор и транзакция вызывают
// их независимо и должны получить одно и то же.
package footprint

import (
	"fmt"
	"math"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// sizeEpsilon не даёт масштабу 2.0000000001 превратиться в три ячейки
const sizeEpsilon = 1e-9

// Footprint – результат расчёта: якорь, размер в ячейках после поворота
// и упорядоченный список занимаемых мест.
type Footprint struct {
	Kind   grid.ObjectKind
	Layer  int
	Anchor vec.Vec2 // первая ячейка в порядке обхода для edge, ячейка клика для остальных
	Size   vec.Vec2 // размер блока после поворота (для area), длина×1 для edge
	Slots  []grid.Slot
}

// Cells возвращает координаты ячеек без ключей направлений
func (f Footprint) Cells() []vec.Vec2 {
	cells := make([]vec.Vec2, len(f.Slots))
	for i, s := range f.Slots {
		cells[i] = s.Cell
	}
	return cells
}

// SizeInCells переводит мировой масштаб объекта в количество ячеек
// по осям плоскости сетки: ceil(scale / cellSize), минимум одна ячейка.
// Для горизонтальной сетки вторая ось – Z, для вертикальной – Y.
func SizeInCells(scale vec.Vec3Float, cellSize float64, o grid.Orientation) vec.Vec2 {
	second := scale.Z
	if o == grid.Vertical {
		second = scale.Y
	}
	return vec.Vec2{X: cellsFor(scale.X, cellSize), Y: cellsFor(second, cellSize)}
}

func cellsFor(length, cellSize float64) int {
	n := int(math.Ceil(length/cellSize - sizeEpsilon))
	if n < 1 {
		return 1
	}
	return n
}

// RotatedSize возвращает размер блока после поворота: East/West
// меняют ширину и высоту местами.
func RotatedSize(size vec.Vec2, d grid.Direction) vec.Vec2 {
	if d == grid.East || d == grid.West {
		return size.Swap()
	}
	return size
}

// RotationOffset возвращает смещение нижнего угла блока от ячейки-якоря
// в ячейках. Поворот выполняется вокруг угловой точки якоря, поэтому
// эта точка остаётся на месте, а блок смещается:
//
//	North → (0, 0)
//	East  → (-H, 0)
//	South → (-W, -H)
//	West  → (0, -W)
//
// где W×H – размер объекта до поворота.
func RotationOffset(size vec.Vec2, d grid.Direction) vec.Vec2 {
	switch d {
	case grid.East:
		return vec.Vec2{X: -size.Y, Y: 0}
	case grid.South:
		return vec.Vec2{X: -size.X, Y: -size.Y}
	case grid.West:
		return vec.Vec2{X: 0, Y: -size.X}
	}
	return vec.Vec2{}
}

// Input – всё, от чего зависит расчёт
type Input struct {
	Grid       grid.Spec
	Descriptor *buildable.Descriptor
	Placement  buildable.Placement
}

// Calculate вычисляет занимаемые места для размещения
func Calculate(in Input) (Footprint, error) {
	if in.Descriptor == nil {
		return Footprint{}, fmt.Errorf("не задан тип объекта")
	}
	if in.Placement.Shape == nil {
		return Footprint{}, fmt.Errorf("не задана форма размещения")
	}
	if in.Placement.Shape.Kind() != in.Descriptor.Kind {
		return Footprint{}, fmt.Errorf("форма %s не подходит объекту %s (%s)",
			in.Placement.Shape.Kind(), in.Descriptor.ID, in.Descriptor.Kind)
	}

	scale := in.Descriptor.ScaleFor(in.Placement.Variant)
	dir := in.Placement.Rotation.Direction()

	var fp Footprint
	switch shape := in.Placement.Shape.(type) {
	case buildable.AreaShape:
		size := SizeInCells(scale, in.Grid.CellSize, in.Grid.Orientation)
		fp = Area(shape.Anchor, size, dir)
	case buildable.EdgeShape:
		length := SizeInCells(scale, in.Grid.CellSize, in.Grid.Orientation).X
		fp = Edge(shape.Anchor, length, dir, shape.Flipped)
	case buildable.CornerShape:
		fp = Corner(shape.Anchor, shape.Corner)
	case buildable.FreeShape:
		fp = Free(in.Grid, shape.Position)
	default:
		return Footprint{}, fmt.Errorf("неизвестная форма размещения %T", shape)
	}
	fp.Layer = in.Placement.Layer
	return fp, nil
}

// Area вычисляет блок ячеек area-объекта. Порядок обхода: строки снизу
// вверх, внутри строки – слева направо.
func Area(anchor, size vec.Vec2, d grid.Direction) Footprint {
	rotated := RotatedSize(size, d)
	origin := anchor.Add(RotationOffset(size, d))

	slots := make([]grid.Slot, 0, rotated.Area())
	for y := 0; y < rotated.Y; y++ {
		for x := 0; x < rotated.X; x++ {
			slots = append(slots, grid.Slot{Cell: origin.Add(vec.Vec2{X: x, Y: y})})
		}
	}
	return Footprint{Kind: grid.KindArea, Anchor: anchor, Size: rotated, Slots: slots}
}

// Edge вычисляет полосу из length ячеек от якоря в направлении d.
// Каждое место помечено направлением d. При flipped тот же отрезок
// адресуется с другого конца: якорем становится последняя ячейка.
func Edge(anchor vec.Vec2, length int, d grid.Direction, flipped bool) Footprint {
	if length < 1 {
		length = 1
	}
	step := d.Step()
	slots := make([]grid.Slot, length)
	for i := 0; i < length; i++ {
		slots[i] = grid.Slot{Cell: anchor.Add(step.Scale(i)), Edge: d}
	}
	if flipped {
		for i, j := 0, len(slots)-1; i < j; i, j = i+1, j-1 {
			slots[i], slots[j] = slots[j], slots[i]
		}
	}

	size := vec.Vec2{X: length, Y: 1}
	if d.IsNorthSouth() {
		size = size.Swap()
	}
	return Footprint{Kind: grid.KindEdge, Anchor: slots[0].Cell, Size: size, Slots: slots}
}

// Corner – одно место: угол ячейки-якоря
func Corner(anchor vec.Vec2, c grid.Corner) Footprint {
	return Footprint{
		Kind:   grid.KindCorner,
		Anchor: anchor,
		Size:   vec.Vec2{X: 1, Y: 1},
		Slots:  []grid.Slot{{Cell: anchor, Corner: c}},
	}
}

// Free возвращает ячейку, содержащую позицию, или пустой список, если
// позиция вне сетки.
func Free(g grid.Spec, position vec.Vec3Float) Footprint {
	cell := g.Mapper().WorldToCell(position)
	fp := Footprint{Kind: grid.KindFree, Anchor: cell, Size: vec.Vec2{X: 1, Y: 1}}
	if g.IsWithinBounds(cell) {
		fp.Slots = []grid.Slot{{Cell: cell}}
	}
	return fp
}
