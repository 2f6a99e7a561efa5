package occupancy

import (
	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
)

// Record – состояние занятости одной ячейки одного слоя.
//
// Area – по одному объекту на категорию;
// Edges/Corners – по одной карте категорий на сторону/угол;
// Free – free-объекты, якорная ячейка которых совпадает с этой.
//
// Пустые карты всегда хранятся как nil, поэтому запись после
// размещения и удаления объекта равна исходной.
type Record struct {
	Area    map[string]buildable.ObjectID
	Edges   [grid.DirectionCount]map[string]buildable.ObjectID
	Corners [grid.CornerCount]map[string]buildable.ObjectID
	Free    []buildable.ObjectID
}

// Clone возвращает глубокую копию записи
func (r Record) Clone() Record {
	out := Record{Area: cloneMap(r.Area)}
	for i := range r.Edges {
		out.Edges[i] = cloneMap(r.Edges[i])
	}
	for i := range r.Corners {
		out.Corners[i] = cloneMap(r.Corners[i])
	}
	if len(r.Free) > 0 {
		out.Free = append([]buildable.ObjectID(nil), r.Free...)
	}
	return out
}

func cloneMap(m map[string]buildable.ObjectID) map[string]buildable.ObjectID {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]buildable.ObjectID, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsEmpty сообщает, что в ячейке ничего нет
func (r Record) IsEmpty() bool {
	if len(r.Area) > 0 || len(r.Free) > 0 {
		return false
	}
	for i := range r.Edges {
		if len(r.Edges[i]) > 0 {
			return false
		}
	}
	for i := range r.Corners {
		if len(r.Corners[i]) > 0 {
			return false
		}
	}
	return true
}

// slotMap возвращает указатель на карту, соответствующую месту
func (r *Record) slotMap(kind grid.ObjectKind, slot grid.Slot) *map[string]buildable.ObjectID {
	switch kind {
	case grid.KindArea:
		return &r.Area
	case grid.KindEdge:
		if slot.Edge < grid.DirectionCount {
			return &r.Edges[slot.Edge]
		}
	case grid.KindCorner:
		if slot.Corner < grid.CornerCount {
			return &r.Corners[slot.Corner]
		}
	}
	return nil
}

// Occupant возвращает объект, занимающий место категории.
// Free-объекты не исключают друг друга, для них всегда false.
func (r Record) Occupant(kind grid.ObjectKind, slot grid.Slot, category string) (buildable.ObjectID, bool) {
	m := r.slotMap(kind, slot)
	if m == nil || *m == nil {
		return "", false
	}
	id, ok := (*m)[category]
	return id, ok
}

// Insert записывает объект в место категории. Возвращает false, если
// место уже занято другим объектом.
func (r *Record) Insert(kind grid.ObjectKind, slot grid.Slot, category string, id buildable.ObjectID) bool {
	if kind == grid.KindFree {
		for _, existing := range r.Free {
			if existing == id {
				return true
			}
		}
		r.Free = append(r.Free, id)
		return true
	}

	m := r.slotMap(kind, slot)
	if m == nil {
		return false
	}
	if current, ok := (*m)[category]; ok {
		return current == id
	}
	if *m == nil {
		*m = make(map[string]buildable.ObjectID)
	}
	(*m)[category] = id
	return true
}

// Remove удаляет объект из места категории, только если место занято
// именно им. Возвращает, было ли что-то удалено.
func (r *Record) Remove(kind grid.ObjectKind, slot grid.Slot, category string, id buildable.ObjectID) bool {
	if kind == grid.KindFree {
		for i, existing := range r.Free {
			if existing == id {
				r.Free = append(r.Free[:i:i], r.Free[i+1:]...)
				if len(r.Free) == 0 {
					r.Free = nil
				}
				return true
			}
		}
		return false
	}

	m := r.slotMap(kind, slot)
	if m == nil || *m == nil {
		return false
	}
	if current, ok := (*m)[category]; !ok || current != id {
		return false
	}
	delete(*m, category)
	if len(*m) == 0 {
		*m = nil
	}
	return true
}

// Objects возвращает все объекты, упомянутые в записи, без повторов
func (r Record) Objects() []buildable.ObjectID {
	seen := make(map[buildable.ObjectID]struct{})
	var out []buildable.ObjectID
	add := func(id buildable.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range r.Area {
		add(id)
	}
	for i := range r.Edges {
		for _, id := range r.Edges[i] {
			add(id)
		}
	}
	for i := range r.Corners {
		for _, id := range r.Corners[i] {
			add(id)
		}
	}
	for _, id := range r.Free {
		add(id)
	}
	return out
}
