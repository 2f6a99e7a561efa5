package placement

import (
	"errors"
	"fmt"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/vec"
)

var (
	ErrOutOfBounds          = errors.New("размещение вне границ сетки")
	ErrOccupied             = errors.New("место занято незаменяемым объектом")
	ErrAreaDisabled         = errors.New("размещение запрещено зоной")
	ErrTooFar               = errors.New("позиция слишком далеко")
	ErrInvalidVerticalLayer = errors.New("недопустимый вертикальный слой")
	ErrTransactionRollback  = errors.New("транзакция отменена")
	ErrUnknownGrid          = errors.New("неизвестная сетка")
	ErrUnknownDescriptor    = errors.New("неизвестный тип объекта")
	ErrUnknownObject        = errors.New("неизвестный объект")
	ErrNotFinalized         = errors.New("менеджер сеток не финализирован")
	ErrNotDestructible      = errors.New("объект нельзя уничтожить")
	ErrNotMovable           = errors.New("объект нельзя переместить")
	ErrRotationMismatch     = errors.New("поворот не соответствует типу объекта")
)

// Reason – итог проверки размещения
type Reason uint8

const (
	Allowed Reason = iota
	OutOfBounds
	Occupied
	AreaDisabled
	TooFar
	InvalidVerticalLayer
)

var reasonNames = [...]string{
	Allowed:              "allowed",
	OutOfBounds:          "out_of_bounds",
	Occupied:             "occupied",
	AreaDisabled:         "area_disabled",
	TooFar:               "too_far",
	InvalidVerticalLayer: "invalid_vertical_layer",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", r)
}

var reasonErrors = [...]error{
	OutOfBounds:          ErrOutOfBounds,
	Occupied:             ErrOccupied,
	AreaDisabled:         ErrAreaDisabled,
	TooFar:               ErrTooFar,
	InvalidVerticalLayer: ErrInvalidVerticalLayer,
}

// Decision – результат проверки. Проверка останавливается на первом
// нарушении; Cell указывает ячейку, на которой это произошло.
type Decision struct {
	Reason Reason
	Cell   vec.Vec2
	// Replace – заменяемые объекты, которые будут уничтожены при размещении
	Replace []buildable.ObjectID
}

// Allowed сообщает, разрешено ли размещение
func (d Decision) Allowed() bool {
	return d.Reason == Allowed
}

// Err возвращает sentinel-ошибку причины отказа или nil
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	if int(d.Reason) < len(reasonErrors) && reasonErrors[d.Reason] != nil {
		return fmt.Errorf("%w: ячейка %s", reasonErrors[d.Reason], d.Cell)
	}
	return fmt.Errorf("отказ в размещении: %s", d.Reason)
}

func reject(reason Reason, cell vec.Vec2) Decision {
	return Decision{Reason: reason, Cell: cell}
}
