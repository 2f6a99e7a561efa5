package placement

import (
	"fmt"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/footprint"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// Request – запрос на размещение объекта
type Request struct {
	Descriptor string
	Placement  buildable.Placement
	// ObjectID – идентификатор нового объекта; пустой означает сгенерировать
	ObjectID buildable.ObjectID
	// Restore – повтор уже принятого действия (отмена и повтор истории):
	// дальность до игрока не проверяется.
	Restore bool
}

// Preview – результат проверки без изменения состояния
type Preview struct {
	Request   Request
	Footprint footprint.Footprint
	// Slots – места в границах сетки, которые будут заняты
	Slots []grid.Slot
	// Position – мировая позиция, по которой проверяется дальность
	Position vec.Vec3Float
	Decision Decision
}

// candidate – подготовленный к проверке запрос
type candidate struct {
	req      Request
	inst     *instance
	desc     *buildable.Descriptor
	fp       footprint.Footprint
	slots    []grid.Slot
	position vec.Vec3Float
	// self – перемещаемый объект, его собственные места не считаются занятыми
	self buildable.ObjectID
}

// Preview вычисляет занимаемые места и итог проверки. Состояние не
// меняется.
func (m *Manager) Preview(req Request) (Preview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.prepareLocked(req)
	if err != nil {
		return Preview{}, err
	}
	dec := m.validateLocked(c)
	return c.preview(dec), nil
}

// Validate возвращает только итог проверки
func (m *Manager) Validate(req Request) (Decision, error) {
	p, err := m.Preview(req)
	if err != nil {
		return Decision{}, err
	}
	return p.Decision, nil
}

func (c *candidate) preview(dec Decision) Preview {
	return Preview{
		Request:   c.req,
		Footprint: c.fp,
		Slots:     append([]grid.Slot(nil), c.slots...),
		Position:  c.position,
		Decision:  dec,
	}
}

// prepareLocked находит сетку и тип объекта и вычисляет занимаемые места
func (m *Manager) prepareLocked(req Request) (*candidate, error) {
	inst, err := m.instanceLocked(req.Placement.Grid)
	if err != nil {
		return nil, err
	}
	desc, err := m.descriptorLocked(req.Descriptor)
	if err != nil {
		return nil, err
	}
	if req.Placement.Rotation.Type != desc.RotationType {
		return nil, fmt.Errorf("%w: %s ожидает %s, получено %s",
			ErrRotationMismatch, desc.ID, desc.RotationType, req.Placement.Rotation.Type)
	}
	req.Placement.Grid = inst.spec.Name

	fp, err := footprint.Calculate(footprint.Input{
		Grid:       inst.spec,
		Descriptor: desc,
		Placement:  req.Placement,
	})
	if err != nil {
		return nil, err
	}

	c := &candidate{req: req, inst: inst, desc: desc, fp: fp}
	for _, slot := range fp.Slots {
		if inst.spec.IsWithinBounds(slot.Cell) {
			c.slots = append(c.slots, slot)
		}
	}
	c.position = candidatePosition(inst.spec, fp, req.Placement)
	return c, nil
}

// candidatePosition – мировая точка размещения для проверки дальности
func candidatePosition(g grid.Spec, fp footprint.Footprint, p buildable.Placement) vec.Vec3Float {
	if free, ok := p.Shape.(buildable.FreeShape); ok {
		return free.Position
	}
	mapper := g.Mapper()
	height := g.LayerBase(p.Layer)
	if len(fp.Slots) == 0 {
		return mapper.CellCenter(fp.Anchor, height)
	}

	first := fp.Slots[0]
	switch fp.Kind {
	case grid.KindArea:
		half := mapper.CellSize / 2
		center := vec.FromVec2(first.Cell).Mul(mapper.CellSize).
			Add(vec.FromVec2(fp.Size).Mul(half))
		return mapper.FromPlane(center, height)
	case grid.KindEdge:
		last := fp.Slots[len(fp.Slots)-1]
		return mapper.CellCenter(first.Cell, height).Lerp(mapper.CellCenter(last.Cell, height), 0.5)
	case grid.KindCorner:
		corner := vec.FromVec2(first.Cell).Add(first.Corner.Offset()).Mul(mapper.CellSize)
		return mapper.FromPlane(corner, height)
	}
	return mapper.CellCenter(first.Cell, height)
}

// validateLocked проверяет размещение в фиксированном порядке:
// слой, границы, занятость, зоны, дальность. Первое нарушение
// прекращает проверку.
func (m *Manager) validateLocked(c *candidate) Decision {
	spec := c.inst.spec
	layer := c.req.Placement.Layer
	if !spec.IsValidLayer(layer) {
		m.logger.Warn("Слой %d недопустим для сетки %s (слоёв %d)", layer, spec.Name, spec.Layers)
		return reject(InvalidVerticalLayer, c.fp.Anchor)
	}

	if dec, ok := m.checkBounds(c); !ok {
		return dec
	}

	dec, ok := m.checkOccupancy(c)
	if !ok {
		return dec
	}

	if rej, ok := m.checkAreas(c); !ok {
		return rej
	}

	if !c.req.Restore && m.distance != nil && !m.distance.Unrestricted() &&
		!m.distance.IsWithinPlacementDistance(c.position) {
		return reject(TooFar, c.fp.Anchor)
	}
	return dec
}

// checkBounds: area и free объекты должны целиком лежать в сетке,
// edge и corner отклоняются, только если вне сетки все места.
func (m *Manager) checkBounds(c *candidate) (Decision, bool) {
	switch c.fp.Kind {
	case grid.KindArea, grid.KindFree:
		if len(c.fp.Slots) == 0 {
			return reject(OutOfBounds, c.fp.Anchor), false
		}
		for _, slot := range c.fp.Slots {
			if !c.inst.spec.IsWithinBounds(slot.Cell) {
				return reject(OutOfBounds, slot.Cell), false
			}
		}
	default:
		if len(c.slots) == 0 {
			return reject(OutOfBounds, c.fp.Anchor), false
		}
	}
	return Decision{}, true
}

// checkOccupancy ищет занятые места. Занятое место допустимо, если
// его объект заменяемый, уничтожитель задан и не идёт перемещение.
func (m *Manager) checkOccupancy(c *candidate) (Decision, bool) {
	var dec Decision
	if c.fp.Kind == grid.KindFree {
		return dec, true
	}

	seen := make(map[buildable.ObjectID]struct{})
	for _, slot := range c.slots {
		rec, _ := c.inst.stack.GetCellData(slot.Cell, c.req.Placement.Layer)
		occupant, ok := rec.Occupant(c.fp.Kind, slot, c.desc.Category)
		if !ok || occupant == c.self {
			continue
		}
		if !m.canReplaceLocked(occupant) {
			return reject(Occupied, slot.Cell), false
		}
		if _, dup := seen[occupant]; !dup {
			seen[occupant] = struct{}{}
			dec.Replace = append(dec.Replace, occupant)
		}
	}
	return dec, true
}

func (m *Manager) canReplaceLocked(id buildable.ObjectID) bool {
	obj, ok := m.objects[id]
	if !ok {
		return false
	}
	return obj.Descriptor.Is(buildable.FlagReplaceable) && m.destroyer != nil && !m.moving
}

// checkAreas: базовая разрешающая зона снимает все ограничения,
// базовая запрещающая запрещает всё. Иначе каждое место проверяется
// отдельно: разрешение зоной сильнее запрета.
func (m *Manager) checkAreas(c *candidate) (Decision, bool) {
	if m.areas == nil {
		return Decision{}, true
	}
	spec := c.inst.spec
	if m.areas.IsEnabledByBasicArea(spec, c.desc) {
		return Decision{}, true
	}
	if m.areas.IsDisabledByBasicArea(spec, c.desc) {
		return reject(AreaDisabled, c.fp.Anchor), false
	}
	for _, slot := range c.slots {
		if m.areas.IsEnabledByArea(spec, c.desc, slot) {
			continue
		}
		if m.areas.IsDisabledByArea(spec, c.desc, slot) {
			return reject(AreaDisabled, slot.Cell), false
		}
	}
	return Decision{}, true
}
