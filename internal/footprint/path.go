package footprint

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/gridkit/internal/vec"
)

// ErrTooManySamples – раскладка вдоль пути дала бы больше точек, чем разрешено
var ErrTooManySamples = errors.New("слишком много точек на пути")

// SamplePath возвращает точки ломаной через каждые spacing единиц длины
// дуги, начиная с первой точки. Используется для раскладки
// free-объектов вдоль сплайна. При limit > 0 путь, дающий больше limit
// точек, отклоняется до построения.
func SamplePath(points []vec.Vec3Float, spacing float64, limit int) ([]vec.Vec3Float, error) {
	if len(points) == 0 || spacing <= 0 {
		return nil, nil
	}

	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].DistanceTo(points[i])
	}
	expected := total/spacing + 1
	if math.IsNaN(expected) || math.IsInf(expected, 0) {
		return nil, fmt.Errorf("%w: длина пути %v", ErrTooManySamples, total)
	}
	if limit > 0 && expected > float64(limit)+sizeEpsilon {
		return nil, fmt.Errorf("%w: %.0f > %d", ErrTooManySamples, math.Floor(expected), limit)
	}

	capacity := int(expected)
	if capacity > maxPrealloc {
		capacity = maxPrealloc
	}
	out := make([]vec.Vec3Float, 0, capacity)
	out = append(out, points[0])
	carried := 0.0 // длина, пройденная после последней точки
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		segment := a.DistanceTo(b)
		if segment == 0 {
			continue
		}
		pos := spacing - carried
		for pos <= segment+sizeEpsilon {
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
			out = append(out, a.Lerp(b, pos/segment))
			pos += spacing
		}
		carried = segment - (pos - spacing)
	}
	return out, nil
}
