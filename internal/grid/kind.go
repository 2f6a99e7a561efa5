package grid

import (
	"fmt"
	"strings"

	"github.com/annel0/gridkit/internal/vec"
)

// ObjectKind – топология строительного объекта. От неё зависят
// расчёт занимаемых ячеек и ключ в записи занятости.
type ObjectKind uint8

const (
	KindArea   ObjectKind = iota // прямоугольный блок целых ячеек
	KindEdge                     // полоса вдоль ребра ячейки
	KindCorner                   // угол ячейки
	KindFree                     // произвольная позиция внутри ячейки
)

func (k ObjectKind) String() string {
	switch k {
	case KindArea:
		return "area"
	case KindEdge:
		return "edge"
	case KindCorner:
		return "corner"
	case KindFree:
		return "free"
	default:
		return "unknown"
	}
}

// ParseObjectKind разбирает строку конфигурации
func ParseObjectKind(s string) (ObjectKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "area", "grid":
		return KindArea, nil
	case "edge":
		return KindEdge, nil
	case "corner":
		return KindCorner, nil
	case "free":
		return KindFree, nil
	}
	return KindArea, fmt.Errorf("неизвестный тип объекта: %q", s)
}

// UnmarshalYAML позволяет задавать тип строкой в YAML
func (k *ObjectKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseObjectKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Slot адресует одно место в записи занятости: ячейку и, для
// edge/corner-объектов, сторону или угол этой ячейки.
type Slot struct {
	Cell   vec.Vec2
	Edge   Direction
	Corner Corner
}
