package grid

import (
	"fmt"
	"strings"
)

// Orientation определяет, какие мировые оси образуют плоскость сетки.
//
// Horizontal – плоскость XZ, высота по Y;
// Vertical   – плоскость XY, глубина по Z.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// ParseOrientation разбирает строку конфигурации ("horizontal"/"xz", "vertical"/"xy")
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal", "xz":
		return Horizontal, nil
	case "vertical", "xy":
		return Vertical, nil
	}
	return Horizontal, fmt.Errorf("неизвестная ориентация сетки: %q", s)
}

// UnmarshalYAML позволяет задавать ориентацию строкой в YAML
func (o *Orientation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseOrientation(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
