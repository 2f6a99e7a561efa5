package terrain

import (
	"math"
	"sync"

	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/physics"
	"github.com/annel0/gridkit/internal/placement"
	"github.com/annel0/gridkit/internal/vec"
)

// StructureLayer – слой коллайдеров построек и вертикальных сеток
const StructureLayer uint32 = 2

// Scene объединяет рельеф и коллайдеры и отвечает на лучи курсора
type Scene struct {
	ground *Heightmap
	boxes  []physics.Box
	mu     sync.RWMutex
}

// NewScene создаёт сцену. ground может быть nil – тогда луч попадает
// только в коллайдеры.
func NewScene(ground *Heightmap) *Scene {
	return &Scene{ground: ground}
}

// AddBox добавляет коллайдер
func (s *Scene) AddBox(b physics.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = append(s.boxes, b)
}

// AddGridSurface добавляет тонкий коллайдер в плоскости вертикальной
// сетки. Горизонтальные сетки лежат на рельефе, для них ничего не
// добавляется.
func (s *Scene) AddGridSurface(spec grid.Spec) bool {
	if spec.Orientation != grid.Vertical {
		return false
	}
	w := float64(spec.Width) * spec.CellSize
	h := float64(spec.Length) * spec.CellSize
	center := spec.Origin.Add(vec.Vec3Float{X: w / 2, Y: h / 2})
	s.AddBox(physics.NewBox(center, vec.Vec3Float{X: w, Y: h, Z: 0.1}, StructureLayer))
	return true
}

func maskAllows(mask, layer uint32) bool {
	return mask == 0 || mask&layer != 0
}

// Raycast возвращает ближайшее попадание луча в поверхность из маски.
// Нулевая маска разрешает все поверхности.
func (s *Scene) Raycast(origin, direction vec.Vec3Float, mask uint32) (placement.RaycastHit, bool) {
	dir := direction.Normalized()
	if dir.Length() == 0 {
		return placement.RaycastHit{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	best := math.Inf(1)
	var hit placement.RaycastHit
	if s.ground != nil && maskAllows(mask, GroundLayer) {
		if t, ok := s.ground.intersect(origin, dir); ok {
			p := origin.Add(dir.Mul(t))
			best = t
			hit = placement.RaycastHit{Point: p, Normal: s.ground.Normal(p.X, p.Z), Layer: GroundLayer}
		}
	}
	for _, b := range s.boxes {
		if !maskAllows(mask, b.Layer) {
			continue
		}
		if t, normal, ok := b.IntersectRay(origin, dir); ok && t < best {
			best = t
			hit = placement.RaycastHit{Point: origin.Add(dir.Mul(t)), Normal: normal, Layer: b.Layer}
		}
	}
	return hit, !math.IsInf(best, 1)
}
