package buildable

import (
	"fmt"
	"strings"

	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// Flags – набор флагов поведения типа объекта
type Flags uint8

const (
	FlagReplaceable  Flags = 1 << iota // может быть вытеснен при размещении другого объекта
	FlagDestructible                   // может быть уничтожен пользователем
	FlagMovable                        // может быть перемещён
	FlagSelectable                     // может быть выделен
)

var flagNames = map[string]Flags{
	"replaceable":  FlagReplaceable,
	"destructible": FlagDestructible,
	"movable":      FlagMovable,
	"selectable":   FlagSelectable,
}

// Has проверяет наличие флага
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// UnmarshalYAML разбирает список флагов: [replaceable, movable]
func (f *Flags) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var names []string
	if err := unmarshal(&names); err != nil {
		return err
	}
	var out Flags
	for _, name := range names {
		flag, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("неизвестный флаг объекта: %q", name)
		}
		out |= flag
	}
	*f = out
	return nil
}

// SnapPolicy определяет выбор вертикального слоя при размещении
type SnapPolicy uint8

const (
	// SnapLocked оставляет слой, выбранный вызывающим кодом
	SnapLocked SnapPolicy = iota
	// SnapAuto выбирает слой по высоте поверхности с учётом порога
	SnapAuto
)

// UnmarshalYAML разбирает "locked"/"auto"
func (p *SnapPolicy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "locked":
		*p = SnapLocked
	case "auto":
		*p = SnapAuto
	default:
		return fmt.Errorf("неизвестная политика вертикальной привязки: %q", s)
	}
	return nil
}

// Variant – вариант объекта со своим масштабом
type Variant struct {
	Name  string        `yaml:"name"`
	Scale vec.Vec3Float `yaml:"scale"`
}

// Descriptor – внешняя конфигурация типа строительного объекта
type Descriptor struct {
	ID                   string             `yaml:"id"`
	Kind                 grid.ObjectKind    `yaml:"kind"`
	Category             string             `yaml:"category"`
	Scale                vec.Vec3Float      `yaml:"scale"`
	RotationType         RotationType       `yaml:"rotation"`
	FreeRotationStep     float64            `yaml:"free_rotation_step"`
	Flags                Flags              `yaml:"flags"`
	SurfaceMask          uint32             `yaml:"surface_mask"`
	VerticalSnap         SnapPolicy         `yaml:"vertical_snap"`
	SnapThresholdPercent float64            `yaml:"snap_threshold_percent"`
	CustomValues         map[string]float64 `yaml:"custom_values"`
	Variants             []Variant          `yaml:"variants"`
}

// Validate проверяет описание типа объекта
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("у типа объекта не задан id")
	}
	if d.Category == "" {
		return fmt.Errorf("тип %s: не задана категория", d.ID)
	}
	if (d.Kind == grid.KindArea || d.Kind == grid.KindEdge) && d.RotationType != FourDirectional {
		return fmt.Errorf("тип %s: %s-объекты вращаются только по четырём направлениям", d.ID, d.Kind)
	}
	if (d.Kind == grid.KindArea || d.Kind == grid.KindEdge) && d.Scale.X <= 0 {
		return fmt.Errorf("тип %s: масштаб по X должен быть положительным", d.ID)
	}
	if d.SnapThresholdPercent < 0 || d.SnapThresholdPercent > 100 {
		return fmt.Errorf("тип %s: порог привязки вне диапазона 0..100", d.ID)
	}
	return nil
}

// ScaleFor возвращает масштаб с учётом варианта. Неизвестный вариант
// даёт базовый масштаб.
func (d *Descriptor) ScaleFor(variant int) vec.Vec3Float {
	if variant > 0 && variant <= len(d.Variants) {
		return d.Variants[variant-1].Scale
	}
	return d.Scale
}

// Is проверяет флаг поведения
func (d *Descriptor) Is(flag Flags) bool {
	return d.Flags.Has(flag)
}
