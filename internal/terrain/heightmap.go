// Package terrain – поверхность сцены для лучей курсора: рельеф из
// шума Перлина и коллайдеры-платформы над ним.
package terrain

import (
	"github.com/annel0/gridkit/internal/vec"
	"github.com/aquilax/go-perlin"
)

// GroundLayer – битовая маска поверхности рельефа
const GroundLayer uint32 = 1

// Config – параметры рельефа
type Config struct {
	Seed       int64   `yaml:"seed"`
	BaseHeight float64 `yaml:"base_height"`
	Amplitude  float64 `yaml:"amplitude"`
	Frequency  float64 `yaml:"frequency"`
	Alpha      float64 `yaml:"alpha"`   // сглаживание шума
	Beta       float64 `yaml:"beta"`    // частота шума
	Octaves    int32   `yaml:"octaves"` // количество октав
	// Step – шаг марширования луча, MaxDistance – его предел
	Step        float64 `yaml:"step"`
	MaxDistance float64 `yaml:"max_distance"`
}

// withDefaults подставляет значения по умолчанию
func (c Config) withDefaults() Config {
	if c.Alpha == 0 {
		c.Alpha = 2.0
	}
	if c.Beta == 0 {
		c.Beta = 2.0
	}
	if c.Octaves == 0 {
		c.Octaves = 3
	}
	if c.Frequency == 0 {
		c.Frequency = 0.05
	}
	if c.Step <= 0 {
		c.Step = 0.25
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = 500
	}
	return c
}

// Heightmap – рельеф y = BaseHeight + Amplitude * noise(x, z)
type Heightmap struct {
	cfg   Config
	noise *perlin.Perlin
}

// NewHeightmap создаёт рельеф
func NewHeightmap(cfg Config) *Heightmap {
	cfg = cfg.withDefaults()
	return &Heightmap{
		cfg:   cfg,
		noise: perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed),
	}
}

// HeightAt возвращает высоту рельефа в точке (x, z)
func (h *Heightmap) HeightAt(x, z float64) float64 {
	if h.cfg.Amplitude == 0 {
		return h.cfg.BaseHeight
	}
	// Шум от -1 до 1 переводим в 0..1
	n := (h.noise.Noise2D(x*h.cfg.Frequency, z*h.cfg.Frequency) + 1.0) / 2.0
	return h.cfg.BaseHeight + h.cfg.Amplitude*n
}

// Normal оценивает нормаль рельефа конечными разностями
func (h *Heightmap) Normal(x, z float64) vec.Vec3Float {
	const e = 0.01
	dx := h.HeightAt(x+e, z) - h.HeightAt(x-e, z)
	dz := h.HeightAt(x, z+e) - h.HeightAt(x, z-e)
	return vec.Vec3Float{X: -dx, Y: 2 * e, Z: -dz}.Normalized()
}

func (h *Heightmap) below(p vec.Vec3Float) bool {
	return p.Y <= h.HeightAt(p.X, p.Z)
}

// intersect марширует по лучу шагом Step и уточняет точку входа
// делением отрезка пополам. Возвращает расстояние вдоль луча.
func (h *Heightmap) intersect(origin, dir vec.Vec3Float) (float64, bool) {
	dir = dir.Normalized()
	if dir.Length() == 0 {
		return 0, false
	}
	if h.below(origin) {
		return 0, true
	}

	prev := 0.0
	for t := h.cfg.Step; t <= h.cfg.MaxDistance; t += h.cfg.Step {
		if !h.below(origin.Add(dir.Mul(t))) {
			prev = t
			continue
		}
		lo, hi := prev, t
		for i := 0; i < 24; i++ {
			mid := (lo + hi) / 2
			if h.below(origin.Add(dir.Mul(mid))) {
				hi = mid
			} else {
				lo = mid
			}
		}
		return hi, true
	}
	return 0, false
}
