package placement

import (
	"fmt"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/footprint"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/occupancy"
	"github.com/annel0/gridkit/internal/vec"
)

// Result – итог транзакции
type Result struct {
	Success  bool
	Object   *buildable.Object
	Slots    []grid.Slot
	Replaced []buildable.ObjectID
	Decision Decision
}

// stagedKey – ячейка конкретного слоя конкретной сетки
type stagedKey struct {
	inst  *instance
	layer int
	cell  vec.Vec2
}

// staging накапливает изменённые копии записей. До commit ни одна
// ячейка не меняется, поэтому отказ посередине не требует отката.
type staging struct {
	records map[stagedKey]*occupancy.Record
	order   []stagedKey
}

func newStaging() *staging {
	return &staging{records: make(map[stagedKey]*occupancy.Record)}
}

func (s *staging) record(inst *instance, layer int, cell vec.Vec2) *occupancy.Record {
	key := stagedKey{inst: inst, layer: layer, cell: cell}
	if rec, ok := s.records[key]; ok {
		return rec
	}
	rec, _ := inst.stack.GetCellData(cell, layer)
	s.records[key] = &rec
	s.order = append(s.order, key)
	return &rec
}

func (s *staging) detach(inst *instance, obj *buildable.Object) {
	layer := obj.Placement.Layer
	for _, slot := range obj.Footprint {
		s.record(inst, layer, slot.Cell).Remove(obj.Descriptor.Kind, slot, obj.Descriptor.Category, obj.ID)
	}
}

func (s *staging) attach(inst *instance, obj *buildable.Object) error {
	layer := obj.Placement.Layer
	for _, slot := range obj.Footprint {
		rec := s.record(inst, layer, slot.Cell)
		if !rec.Insert(obj.Descriptor.Kind, slot, obj.Descriptor.Category, obj.ID) {
			return fmt.Errorf("ячейка %s слоя %d уже занята", slot.Cell, layer)
		}
	}
	return nil
}

func (s *staging) commit() error {
	for _, key := range s.order {
		if err := key.inst.stack.SetCellData(key.cell, key.layer, *s.records[key]); err != nil {
			return err
		}
	}
	return nil
}

// Place проверяет запрос и, если размещение разрешено, уничтожает
// заменяемые объекты и записывает новый объект во все места.
// Запрещённое размещение ничего не меняет.
func (m *Manager) Place(req Request) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.placeLocked(req)
}

func (m *Manager) placeLocked(req Request) (Result, error) {
	c, err := m.prepareLocked(req)
	if err != nil {
		return Result{}, err
	}
	dec := m.validateLocked(c)
	m.metrics.ObserveDecision(dec.Reason.String())
	if !dec.Allowed() {
		m.logger.Debug("Размещение %s на %s отклонено: %s (ячейка %s)",
			c.desc.ID, c.inst.spec.Name, dec.Reason, dec.Cell)
		return Result{Decision: dec}, dec.Err()
	}

	id := req.ObjectID
	if id == "" {
		id = buildable.NewObjectID()
	} else if _, exists := m.objects[id]; exists {
		return Result{Decision: dec}, fmt.Errorf("объект %s уже размещён", id)
	}

	// Заменяемость могла измениться между проверкой и вызовом
	replaced := make([]*buildable.Object, 0, len(dec.Replace))
	for _, rid := range dec.Replace {
		if !m.canReplaceLocked(rid) {
			rej := reject(Occupied, c.fp.Anchor)
			return Result{Decision: rej}, rej.Err()
		}
		replaced = append(replaced, m.objects[rid])
	}

	obj := &buildable.Object{
		ID:         id,
		Descriptor: c.desc,
		Placement:  c.req.Placement,
		Footprint:  append([]grid.Slot(nil), c.slots...),
	}

	st := newStaging()
	for _, r := range replaced {
		st.detach(m.grids[r.Placement.Grid], r)
	}
	if err := st.attach(c.inst, obj); err != nil {
		m.logger.Error("Размещение %s прервано: %v", id, err)
		return Result{Decision: dec}, fmt.Errorf("%w: %v", ErrTransactionRollback, err)
	}
	if err := st.commit(); err != nil {
		return Result{Decision: dec}, err
	}

	for _, r := range replaced {
		m.forgetLocked(r, CauseReplace)
	}
	m.objects[id] = obj
	m.applyHeatLocked(c.inst, obj, 1)
	m.metrics.ObservePlaced(c.desc.Kind.String())
	m.publishLocked(EventObjectPlaced, obj, CausePlace)

	return Result{
		Success:  true,
		Object:   obj.Clone(),
		Slots:    append([]grid.Slot(nil), obj.Footprint...),
		Replaced: dec.Replace,
		Decision: dec,
	}, nil
}

// Destroy снимает объект со всех мест. Повторный вызов и неизвестный
// объект возвращают false без изменений.
func (m *Manager) Destroy(id buildable.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return false
	}
	return m.destroyLocked(obj, CauseRemove)
}

// DestroyByUser уничтожает объект по запросу пользователя с учётом
// флага destructible и условий уничтожителя.
func (m *Manager) DestroyByUser(id buildable.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return false, nil
	}
	if !obj.Descriptor.Is(buildable.FlagDestructible) {
		return false, fmt.Errorf("%w: %s", ErrNotDestructible, id)
	}
	if m.destroyer != nil && !m.destroyer.CanDestroy(obj.Clone()) {
		return false, fmt.Errorf("%w: условия уничтожения не выполнены для %s", ErrNotDestructible, id)
	}
	return m.destroyLocked(obj, CauseUser), nil
}

func (m *Manager) destroyLocked(obj *buildable.Object, cause string) bool {
	st := newStaging()
	st.detach(m.grids[obj.Placement.Grid], obj)
	if err := st.commit(); err != nil {
		m.logger.Error("Уничтожение %s прервано: %v", obj.ID, err)
		return false
	}
	m.forgetLocked(obj, cause)
	return true
}

// forgetLocked завершает уничтожение после снятия объекта с сетки
func (m *Manager) forgetLocked(obj *buildable.Object, cause string) {
	delete(m.objects, obj.ID)
	m.applyHeatLocked(m.grids[obj.Placement.Grid], obj, -1)
	m.metrics.ObserveDestroyed(obj.Descriptor.Kind.String(), cause)
	if m.destroyer != nil {
		m.destroyer.OnDestroyed(obj.Clone())
	}
	m.publishLocked(EventObjectDestroyed, obj, cause)
}

// applyHeatLocked прибавляет (sign=1) или вычитает (sign=-1)
// пользовательские значения объекта в его ячейках
func (m *Manager) applyHeatLocked(inst *instance, obj *buildable.Object, sign float64) {
	if inst == nil || len(obj.Descriptor.CustomValues) == 0 || !inst.spec.IsValidLayer(obj.Placement.Layer) {
		return
	}
	heat := inst.heat[obj.Placement.Layer]
	seen := make(map[vec.Vec2]struct{}, len(obj.Footprint))
	for _, slot := range obj.Footprint {
		if _, dup := seen[slot.Cell]; dup {
			continue
		}
		seen[slot.Cell] = struct{}{}
		for name, value := range obj.Descriptor.CustomValues {
			heat.Add(name, slot.Cell, sign*value)
		}
	}
}

// Move переносит объект в новое положение. Пока идёт перемещение,
// заменяемые объекты считаются занятыми местами. При отказе объект
// остаётся на прежнем месте, возвращается ErrTransactionRollback.
func (m *Manager) Move(id buildable.ObjectID, target buildable.Placement) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(id, target, false)
}

// Reposition – Move без проверки дальности. Используется историей для
// возврата объекта в положение, которое уже было принято.
func (m *Manager) Reposition(id buildable.ObjectID, target buildable.Placement) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(id, target, true)
}

func (m *Manager) moveLocked(id buildable.ObjectID, target buildable.Placement, restore bool) (Result, error) {
	obj, ok := m.objects[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if !obj.Descriptor.Is(buildable.FlagMovable) {
		return Result{}, fmt.Errorf("%w: %s", ErrNotMovable, id)
	}

	m.moving = true
	defer func() { m.moving = false }()

	c, err := m.prepareLocked(Request{Descriptor: obj.Descriptor.ID, Placement: target, ObjectID: id, Restore: restore})
	if err != nil {
		m.metrics.ObserveMove(false)
		return Result{}, fmt.Errorf("%w: %v", ErrTransactionRollback, err)
	}
	c.self = id

	dec := m.validateLocked(c)
	m.metrics.ObserveDecision(dec.Reason.String())
	if !dec.Allowed() {
		m.metrics.ObserveMove(false)
		m.logger.Info("Перемещение %s отменено: %s (ячейка %s)", id, dec.Reason, dec.Cell)
		return Result{Decision: dec}, fmt.Errorf("%w: %w", ErrTransactionRollback, dec.Err())
	}

	moved := obj.Clone()
	moved.Placement = c.req.Placement
	moved.Footprint = append([]grid.Slot(nil), c.slots...)

	oldInst := m.grids[obj.Placement.Grid]
	st := newStaging()
	st.detach(oldInst, obj)
	if err := st.attach(c.inst, moved); err != nil {
		m.metrics.ObserveMove(false)
		return Result{Decision: dec}, fmt.Errorf("%w: %v", ErrTransactionRollback, err)
	}
	if err := st.commit(); err != nil {
		m.metrics.ObserveMove(false)
		return Result{Decision: dec}, err
	}

	m.applyHeatLocked(oldInst, obj, -1)
	m.applyHeatLocked(c.inst, moved, 1)
	m.objects[id] = moved
	m.metrics.ObserveMove(true)
	m.publishLocked(EventObjectMoved, moved, CauseMove)

	return Result{
		Success:  true,
		Object:   moved.Clone(),
		Slots:    append([]grid.Slot(nil), moved.Footprint...),
		Decision: dec,
	}, nil
}

// RotatedPlacement возвращает положение объекта, повёрнутое на один шаг
// вокруг того же якоря
func RotatedPlacement(obj *buildable.Object, clockwise bool) buildable.Placement {
	target := obj.Placement
	step := obj.Descriptor.FreeRotationStep
	if clockwise {
		target.Rotation = target.Rotation.Clockwise(step)
	} else {
		target.Rotation = target.Rotation.CounterClockwise(step)
	}
	return target
}

// FlippedPlacement возвращает положение edge-объекта, адресованное с
// противоположного конца
func FlippedPlacement(obj *buildable.Object) (buildable.Placement, error) {
	edge, ok := obj.Placement.Shape.(buildable.EdgeShape)
	if !ok {
		return buildable.Placement{}, fmt.Errorf("объект %s (%s) нельзя отразить", obj.ID, obj.Descriptor.Kind)
	}
	target := obj.Placement
	target.Shape = buildable.EdgeShape{Anchor: edge.Anchor, Flipped: !edge.Flipped}
	return target, nil
}

// Rotate поворачивает объект на один шаг вокруг того же якоря
func (m *Manager) Rotate(id buildable.ObjectID, clockwise bool) (Result, error) {
	obj, ok := m.Object(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	return m.Move(id, RotatedPlacement(obj, clockwise))
}

// Flip адресует edge-объект с противоположного конца
func (m *Manager) Flip(id buildable.ObjectID) (Result, error) {
	obj, ok := m.Object(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	target, err := FlippedPlacement(obj)
	if err != nil {
		return Result{}, err
	}
	return m.Move(id, target)
}

// PlaceAlongPath размещает free-объекты вдоль ломаной с шагом spacing.
// Отклонённые точки пропускаются, их итоги тоже попадают в результат.
// Путь длиннее maxPathObjects точек отклоняется целиком с
// footprint.ErrTooManySamples.
func (m *Manager) PlaceAlongPath(template Request, points []vec.Vec3Float, spacing float64) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	desc, err := m.descriptorLocked(template.Descriptor)
	if err != nil {
		return nil, err
	}
	if desc.Kind != grid.KindFree {
		return nil, fmt.Errorf("размещение вдоль пути доступно только free-объектам, %s – %s", desc.ID, desc.Kind)
	}

	positions, err := footprint.SamplePath(points, spacing, m.maxPathObjects)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(positions))
	for _, pos := range positions {
		req := template
		req.ObjectID = ""
		req.Placement.Shape = buildable.FreeShape{Position: pos}
		res, err := m.placeLocked(req)
		if err != nil && res.Decision.Allowed() {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
