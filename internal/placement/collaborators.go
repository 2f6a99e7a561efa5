package placement

import (
	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// RaycastHit – точка попадания луча в поверхность
type RaycastHit struct {
	Point  vec.Vec3Float
	Normal vec.Vec3Float
	// Layer – битовая маска поверхности, в которую попал луч
	Layer uint32
}

// SurfaceQuery – оракул поверхностей сцены. Маска ограничивает
// поверхности, в которые может попасть луч.
type SurfaceQuery interface {
	Raycast(origin, direction vec.Vec3Float, mask uint32) (RaycastHit, bool)
}

// AreaModifierQuery – разрешающие и запрещающие зоны. Базовые зоны
// действуют на всю сетку, обычные – на отдельные места.
type AreaModifierQuery interface {
	IsEnabledByBasicArea(g grid.Spec, d *buildable.Descriptor) bool
	IsDisabledByBasicArea(g grid.Spec, d *buildable.Descriptor) bool
	IsEnabledByArea(g grid.Spec, d *buildable.Descriptor, slot grid.Slot) bool
	IsDisabledByArea(g grid.Spec, d *buildable.Descriptor, slot grid.Slot) bool
}

// DistanceChecker ограничивает дальность размещения от наблюдателя
type DistanceChecker interface {
	// Unrestricted – проверка отключена (свободная камера)
	Unrestricted() bool
	IsWithinPlacementDistance(position vec.Vec3Float) bool
}

// Destroyer уничтожает объекты по запросу пользователя и при замене.
// Пока Destroyer не задан, заменяемые объекты считаются занятым местом.
type Destroyer interface {
	// CanDestroy проверяет пользовательские условия уничтожения
	CanDestroy(obj *buildable.Object) bool
	// OnDestroyed вызывается после снятия объекта с сетки
	OnDestroyed(obj *buildable.Object)
}

// DestroyerFunc – Destroyer из одной функции условия
type DestroyerFunc func(obj *buildable.Object) bool

func (f DestroyerFunc) CanDestroy(obj *buildable.Object) bool { return f(obj) }
func (f DestroyerFunc) OnDestroyed(*buildable.Object)         {}
