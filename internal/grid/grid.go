package grid

import (
	"fmt"

	"github.com/annel0/gridkit/internal/vec"
)

// Spec описывает одну логическую сетку: плоскость, размеры и стопку
// вертикальных слоёв одинаковой ширины и длины.
type Spec struct {
	Name        string        `yaml:"name"`
	Orientation Orientation   `yaml:"orientation"`
	Origin      vec.Vec3Float `yaml:"origin"`
	Width       int           `yaml:"width"`
	Length      int           `yaml:"length"`
	CellSize    float64       `yaml:"cell_size"`
	Layers      int           `yaml:"layers"`
	LayerHeight float64       `yaml:"layer_height"`
}

// Validate проверяет корректность описания сетки
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("у сетки не задано имя")
	}
	if s.Width <= 0 || s.Length <= 0 {
		return fmt.Errorf("сетка %s: размеры должны быть положительными (%dx%d)", s.Name, s.Width, s.Length)
	}
	if s.CellSize <= 0 {
		return fmt.Errorf("сетка %s: размер ячейки должен быть положительным", s.Name)
	}
	if s.Layers <= 0 {
		return fmt.Errorf("сетка %s: нужен хотя бы один слой", s.Name)
	}
	if s.Layers > 1 && s.LayerHeight <= 0 {
		return fmt.Errorf("сетка %s: для нескольких слоёв нужна положительная высота слоя", s.Name)
	}
	return nil
}

// IsWithinBounds проверяет, попадает ли ячейка в сетку
func (s Spec) IsWithinBounds(cell vec.Vec2) bool {
	return cell.X >= 0 && cell.X < s.Width && cell.Y >= 0 && cell.Y < s.Length
}

// IsValidLayer проверяет индекс вертикального слоя
func (s Spec) IsValidLayer(layer int) bool {
	return layer >= 0 && layer < s.Layers
}

// LayerBase возвращает значение высоты (по третьей оси), с которого
// начинается слой.
func (s Spec) LayerBase(layer int) float64 {
	return s.Mapper().Height(s.Origin) + float64(layer)*s.LayerHeight
}

// Mapper возвращает преобразователь координат этой сетки
func (s Spec) Mapper() Mapper {
	return NewMapper(s.Orientation, s.Origin, s.CellSize)
}

// LayerForHeight определяет слой по высоте точки. Если точка поднялась
// над основанием слоя не меньше чем на thresholdPercent процентов его
// высоты, она относится к следующему слою. Результат не ограничивается
// количеством слоёв: проверку выполняет вызывающий код.
func (s Spec) LayerForHeight(height, thresholdPercent float64) int {
	if s.LayerHeight <= 0 {
		return 0
	}
	relative := (height - s.LayerBase(0)) / s.LayerHeight
	layer := floorIndex(relative)
	if thresholdPercent > 0 && relative-layer >= thresholdPercent/100 {
		layer++
	}
	if layer < 0 {
		return 0
	}
	return int(layer)
}
