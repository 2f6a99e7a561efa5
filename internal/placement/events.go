package placement

import (
	"context"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/eventbus"
	"github.com/annel0/gridkit/internal/grid"
)

// Типы событий, публикуемых менеджером
const (
	EventObjectPlaced    = "object.placed"
	EventObjectDestroyed = "object.destroyed"
	EventObjectMoved     = "object.moved"
)

// Причины изменений
const (
	CausePlace   = "place"
	CauseUser    = "user"
	CauseReplace = "replace"
	CauseRemove  = "remove"
	CauseMove    = "move"
)

// ObjectEvent – полезная нагрузка событий об объектах
type ObjectEvent struct {
	ObjectID   buildable.ObjectID `json:"object_id"`
	Descriptor string             `json:"descriptor"`
	Grid       string             `json:"grid"`
	Layer      int                `json:"layer"`
	Slots      []grid.Slot        `json:"slots"`
	Cause      string             `json:"cause"`
}

func (m *Manager) publishLocked(eventType string, obj *buildable.Object, cause string) {
	bus := m.bus
	if bus == nil {
		bus = eventbus.Global()
	}
	if bus == nil {
		return
	}
	payload := ObjectEvent{
		ObjectID:   obj.ID,
		Descriptor: obj.Descriptor.ID,
		Grid:       obj.Placement.Grid,
		Layer:      obj.Placement.Layer,
		Slots:      append([]grid.Slot(nil), obj.Footprint...),
		Cause:      cause,
	}
	ev := eventbus.NewEnvelope("placement", eventType, eventbus.PriorityNormal, payload)
	if err := bus.Publish(context.Background(), ev); err != nil {
		m.logger.Warn("Не удалось опубликовать %s для %s: %v", eventType, obj.ID, err)
	}
}
