package buildable

import (
	"fmt"
	"math"
	"strings"

	"github.com/annel0/gridkit/internal/grid"
)

// RotationType определяет, как вращается объект данного типа
type RotationType uint8

const (
	FourDirectional  RotationType = iota // N/E/S/W
	EightDirectional                     // N/NE/E/SE/S/SW/W/NW
	FreeRotation                         // произвольный угол
)

func (t RotationType) String() string {
	switch t {
	case FourDirectional:
		return "four_direction"
	case EightDirectional:
		return "eight_direction"
	case FreeRotation:
		return "free"
	default:
		return "unknown"
	}
}

// ParseRotationType разбирает строку конфигурации
func ParseRotationType(s string) (RotationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "four", "four_direction":
		return FourDirectional, nil
	case "eight", "eight_direction":
		return EightDirectional, nil
	case "free":
		return FreeRotation, nil
	}
	return FourDirectional, fmt.Errorf("неизвестный тип вращения: %q", s)
}

// UnmarshalYAML позволяет задавать тип вращения строкой
func (t *RotationType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseRotationType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EightDirection – направление с шагом 45°
type EightDirection uint8

const (
	EightNorth EightDirection = iota
	EightNorthEast
	EightEast
	EightSouthEast
	EightSouth
	EightSouthWest
	EightWest
	EightNorthWest

	eightDirectionCount
)

// Rotation хранит ровно одно активное представление вращения,
// выбранное типом вращения объекта.
type Rotation struct {
	Type  RotationType
	Four  grid.Direction // для FourDirectional
	Eight EightDirection // для EightDirectional
	Angle float64        // для FreeRotation, градусы в [0, 360)
}

// FourRotation создаёт вращение по четырём направлениям
func FourRotation(d grid.Direction) Rotation {
	return Rotation{Type: FourDirectional, Four: d % grid.DirectionCount}
}

// EightRotation создаёт вращение по восьми направлениям
func EightRotation(d EightDirection) Rotation {
	return Rotation{Type: EightDirectional, Eight: d % eightDirectionCount}
}

// AngleRotation создаёт свободное вращение
func AngleRotation(deg float64) Rotation {
	return Rotation{Type: FreeRotation, Angle: normalizeAngle(deg)}
}

// DefaultRotation возвращает нулевое вращение заданного типа
func DefaultRotation(t RotationType) Rotation {
	return Rotation{Type: t}
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Degrees возвращает угол поворота по часовой стрелке
func (r Rotation) Degrees() float64 {
	switch r.Type {
	case EightDirectional:
		return float64(r.Eight) * 45
	case FreeRotation:
		return r.Angle
	default:
		return float64(r.Four) * 90
	}
}

// Direction возвращает ближайшее из четырёх направлений.
// Именно оно определяет занимаемые ячейки area/edge-объектов.
func (r Rotation) Direction() grid.Direction {
	if r.Type == FourDirectional {
		return r.Four
	}
	quarter := int(math.Floor(normalizeAngle(r.Degrees()+45) / 90))
	return grid.Direction(quarter % int(grid.DirectionCount))
}

// Clockwise поворачивает на один шаг по часовой стрелке.
// Для свободного вращения шаг задаётся в градусах.
func (r Rotation) Clockwise(step float64) Rotation {
	switch r.Type {
	case EightDirectional:
		return EightRotation(r.Eight + 1)
	case FreeRotation:
		return AngleRotation(r.Angle + step)
	default:
		return FourRotation(r.Four.Clockwise())
	}
}

// CounterClockwise поворачивает на один шаг против часовой стрелки
func (r Rotation) CounterClockwise(step float64) Rotation {
	switch r.Type {
	case EightDirectional:
		return EightRotation(r.Eight + eightDirectionCount - 1)
	case FreeRotation:
		return AngleRotation(r.Angle - step)
	default:
		return FourRotation(r.Four.CounterClockwise())
	}
}

func (r Rotation) String() string {
	switch r.Type {
	case EightDirectional:
		return fmt.Sprintf("eight(%d)", r.Eight)
	case FreeRotation:
		return fmt.Sprintf("free(%.1f)", r.Angle)
	default:
		return r.Four.String()
	}
}
