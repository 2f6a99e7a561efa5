// Package history хранит отменяемые действия над сеткой.
package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/logging"
	"github.com/annel0/gridkit/internal/placement"
)

var (
	ErrNothingToUndo = errors.New("нечего отменять")
	ErrNothingToRedo = errors.New("нечего повторять")
)

// Placer – операции размещения, через которые история применяет и
// откатывает действия. Отмена и повтор не проверяют дальность: они
// возвращают уже принятые положения через Request.Restore и Reposition.
type Placer interface {
	Preview(req placement.Request) (placement.Preview, error)
	Place(req placement.Request) (placement.Result, error)
	Destroy(id buildable.ObjectID) bool
	DestroyByUser(id buildable.ObjectID) (bool, error)
	Move(id buildable.ObjectID, target buildable.Placement) (placement.Result, error)
	Reposition(id buildable.ObjectID, target buildable.Placement) (placement.Result, error)
	Object(id buildable.ObjectID) (*buildable.Object, bool)
}

// Command – отменяемое действие
type Command interface {
	Undo(p Placer) error
	Redo(p Placer) error
	String() string
}

func requestFor(obj *buildable.Object) placement.Request {
	return placement.Request{Descriptor: obj.Descriptor.ID, Placement: obj.Placement, ObjectID: obj.ID, Restore: true}
}

// restore размещает объект заново с тем же ID
func restore(p Placer, obj *buildable.Object) error {
	if _, err := p.Place(requestFor(obj)); err != nil {
		return fmt.Errorf("не удалось восстановить %s: %w", obj.ID, err)
	}
	return nil
}

type placeCommand struct {
	req      placement.Request
	replaced []*buildable.Object
}

func (c *placeCommand) Undo(p Placer) error {
	p.Destroy(c.req.ObjectID)
	for _, obj := range c.replaced {
		if err := restore(p, obj); err != nil {
			return err
		}
	}
	return nil
}

func (c *placeCommand) Redo(p Placer) error {
	req := c.req
	req.Restore = true
	_, err := p.Place(req)
	return err
}

func (c *placeCommand) String() string {
	return fmt.Sprintf("place %s (%s)", c.req.ObjectID, c.req.Descriptor)
}

type destroyCommand struct {
	obj *buildable.Object
}

func (c *destroyCommand) Undo(p Placer) error {
	return restore(p, c.obj)
}

func (c *destroyCommand) Redo(p Placer) error {
	if !p.Destroy(c.obj.ID) {
		return fmt.Errorf("объект %s уже уничтожен", c.obj.ID)
	}
	return nil
}

func (c *destroyCommand) String() string {
	return fmt.Sprintf("destroy %s (%s)", c.obj.ID, c.obj.Descriptor.ID)
}

type moveCommand struct {
	id       buildable.ObjectID
	from, to buildable.Placement
}

func (c *moveCommand) Undo(p Placer) error {
	_, err := p.Reposition(c.id, c.from)
	return err
}

func (c *moveCommand) Redo(p Placer) error {
	_, err := p.Reposition(c.id, c.to)
	return err
}

func (c *moveCommand) String() string {
	return fmt.Sprintf("move %s", c.id)
}

// History – стек отмены поверх Placer. Новое действие очищает стек
// повтора. Limit ограничивает глубину отмены (0 – без ограничения).
type History struct {
	placer Placer
	limit  int
	undo   []Command
	redo   []Command
	logger *logging.Logger
	mu     sync.Mutex
}

// New создаёт историю
func New(p Placer, limit int) *History {
	return &History{placer: p, limit: limit, logger: logging.GetHistoryLogger()}
}

func (h *History) push(c Command) {
	h.undo = append(h.undo, c)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	h.logger.Debug("Записано действие: %s", c)
}

// Place размещает объект и запоминает действие вместе с вытесненными
// объектами
func (h *History) Place(req placement.Request) (placement.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var replaced []*buildable.Object
	if preview, err := h.placer.Preview(req); err == nil {
		for _, id := range preview.Decision.Replace {
			if obj, ok := h.placer.Object(id); ok {
				replaced = append(replaced, obj)
			}
		}
	}

	res, err := h.placer.Place(req)
	if err != nil || !res.Success {
		return res, err
	}
	req.ObjectID = res.Object.ID
	req.Placement = res.Object.Placement
	h.push(&placeCommand{req: req, replaced: replaced})
	return res, nil
}

// Destroy уничтожает объект и запоминает его для отмены
func (h *History) Destroy(id buildable.ObjectID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.placer.Object(id)
	if !ok || !h.placer.Destroy(id) {
		return false
	}
	h.push(&destroyCommand{obj: obj})
	return true
}

// DestroyByUser уничтожает объект по запросу пользователя; отказ
// уничтожителя не попадает в историю
func (h *History) DestroyByUser(id buildable.ObjectID) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.placer.Object(id)
	if !ok {
		return false, nil
	}
	destroyed, err := h.placer.DestroyByUser(id)
	if err != nil || !destroyed {
		return destroyed, err
	}
	h.push(&destroyCommand{obj: obj})
	return true, nil
}

// Move перемещает объект и запоминает прежнее положение
func (h *History) Move(id buildable.ObjectID, target buildable.Placement) (placement.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.placer.Object(id)
	if !ok {
		return placement.Result{}, fmt.Errorf("%w: %s", placement.ErrUnknownObject, id)
	}
	res, err := h.placer.Move(id, target)
	if err != nil {
		return res, err
	}
	h.push(&moveCommand{id: id, from: obj.Placement, to: res.Object.Placement})
	return res, nil
}

// Rotate поворачивает объект на один шаг как отменяемое перемещение
func (h *History) Rotate(id buildable.ObjectID, clockwise bool) (placement.Result, error) {
	obj, ok := h.placer.Object(id)
	if !ok {
		return placement.Result{}, fmt.Errorf("%w: %s", placement.ErrUnknownObject, id)
	}
	return h.Move(id, placement.RotatedPlacement(obj, clockwise))
}

// Flip отражает edge-объект как отменяемое перемещение
func (h *History) Flip(id buildable.ObjectID) (placement.Result, error) {
	obj, ok := h.placer.Object(id)
	if !ok {
		return placement.Result{}, fmt.Errorf("%w: %s", placement.ErrUnknownObject, id)
	}
	target, err := placement.FlippedPlacement(obj)
	if err != nil {
		return placement.Result{}, err
	}
	return h.Move(id, target)
}

// Undo отменяет последнее действие. При ошибке действие остаётся в стеке.
func (h *History) Undo() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	c := h.undo[len(h.undo)-1]
	if err := c.Undo(h.placer); err != nil {
		h.logger.Warn("Отмена %s не удалась: %v", c, err)
		return err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, c)
	return nil
}

// Redo повторяет последнее отменённое действие
func (h *History) Redo() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	c := h.redo[len(h.redo)-1]
	if err := c.Redo(h.placer); err != nil {
		h.logger.Warn("Повтор %s не удался: %v", c, err)
		return err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, c)
	return nil
}

// CanUndo сообщает, есть ли что отменять
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo сообщает, есть ли что повторять
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Clear очищает оба стека
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo, h.redo = nil, nil
}
