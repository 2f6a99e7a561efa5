package physics

import (
	"math"

	"github.com/annel0/gridkit/internal/vec"
)

// Box представляет осевой прямоугольный коллайдер сцены: платформу,
// крышу, перекрытие. Layer – битовая маска поверхности.
type Box struct {
	Min   vec.Vec3Float
	Max   vec.Vec3Float
	Layer uint32
}

// NewBox создаёт коллайдер по центру и полному размеру
func NewBox(center, size vec.Vec3Float, layer uint32) Box {
	half := size.Mul(0.5)
	return Box{Min: center.Sub(half), Max: center.Add(half), Layer: layer}
}

// IsPointInside проверяет, находится ли точка внутри коллайдера
func (b Box) IsPointInside(p vec.Vec3Float) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// CheckBoxCollision проверяет пересечение двух коллайдеров
func CheckBoxCollision(a, b Box) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X &&
		a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y &&
		a.Min.Z < b.Max.Z && a.Max.Z > b.Min.Z
}

// IntersectRay возвращает расстояние вдоль луча до входа в коллайдер и
// нормаль грани входа. Луч, начинающийся внутри, попадает при t=0.
func (b Box) IntersectRay(origin, dir vec.Vec3Float) (float64, vec.Vec3Float, bool) {
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	tMin, tMax := 0.0, math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			// Луч параллелен паре граней
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, vec.Vec3Float{}, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tMin {
			tMin, axis, sign = t1, i, s
		}
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, vec.Vec3Float{}, false
		}
	}

	var normal vec.Vec3Float
	switch axis {
	case 0:
		normal.X = sign
	case 1:
		normal.Y = sign
	case 2:
		normal.Z = sign
	}
	return tMin, normal, true
}
