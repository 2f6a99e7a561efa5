package buildable

import (
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
	"github.com/google/uuid"
)

// ObjectID – стабильный идентификатор размещённого объекта
type ObjectID string

// NewObjectID генерирует новый идентификатор
func NewObjectID() ObjectID {
	return ObjectID(uuid.NewString())
}

// Shape – позиционные данные размещения, своя форма для каждого типа
// объекта. Реализации: AreaShape, EdgeShape, CornerShape, FreeShape.
type Shape interface {
	Kind() grid.ObjectKind
}

// AreaShape – блок ячеек, привязанный к ячейке-якорю
type AreaShape struct {
	Anchor vec.Vec2
}

// EdgeShape – полоса ячеек от якоря; Flipped адресует тот же отрезок
// с противоположного конца.
type EdgeShape struct {
	Anchor  vec.Vec2
	Flipped bool
}

// CornerShape – угол ячейки-якоря
type CornerShape struct {
	Anchor vec.Vec2
	Corner grid.Corner
}

// FreeShape – произвольная мировая позиция
type FreeShape struct {
	Position vec.Vec3Float
}

func (AreaShape) Kind() grid.ObjectKind   { return grid.KindArea }
func (EdgeShape) Kind() grid.ObjectKind   { return grid.KindEdge }
func (CornerShape) Kind() grid.ObjectKind { return grid.KindCorner }
func (FreeShape) Kind() grid.ObjectKind   { return grid.KindFree }

// Placement описывает, где и как стоит объект
type Placement struct {
	Grid     string
	Layer    int
	Shape    Shape
	Rotation Rotation
	Variant  int // 0 – базовый масштаб, N – Variants[N-1]
}

// Object – размещённый на сетке объект вместе с записанными ячейками.
// Footprint хранит ровно те места, которые были записаны при
// размещении: по ним объект и удаляется.
type Object struct {
	ID         ObjectID
	Descriptor *Descriptor
	Placement  Placement
	Footprint  []grid.Slot
}

// Clone возвращает копию объекта с собственным срезом ячеек
func (o *Object) Clone() *Object {
	c := *o
	c.Footprint = append([]grid.Slot(nil), o.Footprint...)
	return &c
}
