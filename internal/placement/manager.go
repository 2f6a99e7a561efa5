// Package placement проверяет и выполняет размещение объектов на сетках.
//
// Manager владеет сетками, размещёнными объектами и внешними
// оракулами. Все операции сериализуются одним мьютексом: проверка и
// запись выполняются атомарно относительно других вызовов.
package placement

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/eventbus"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/heatmap"
	"github.com/annel0/gridkit/internal/logging"
	"github.com/annel0/gridkit/internal/observability"
	"github.com/annel0/gridkit/internal/occupancy"
	"github.com/annel0/gridkit/internal/vec"
)

// instance – сетка с занятостью и тепловыми картами по слоям
type instance struct {
	spec  grid.Spec
	stack *occupancy.Stack
	heat  []*heatmap.Map
}

func newInstance(spec grid.Spec) *instance {
	inst := &instance{
		spec:  spec,
		stack: occupancy.NewStack(spec.Width, spec.Length, spec.Layers),
		heat:  make([]*heatmap.Map, spec.Layers),
	}
	for i := range inst.heat {
		inst.heat[i] = heatmap.New(spec.Width, spec.Length)
	}
	return inst
}

// DefaultMaxPathObjects – предел точек одной раскладки вдоль пути
const DefaultMaxPathObjects = 1024

// Option настраивает Manager
type Option func(*Manager)

// WithSurface задаёт оракул поверхностей
func WithSurface(s SurfaceQuery) Option { return func(m *Manager) { m.surface = s } }

// WithAreaModifiers задаёт зоны
func WithAreaModifiers(a AreaModifierQuery) Option { return func(m *Manager) { m.areas = a } }

// WithDistanceChecker задаёт ограничитель дальности
func WithDistanceChecker(d DistanceChecker) Option { return func(m *Manager) { m.distance = d } }

// WithDestroyer задаёт уничтожитель объектов
func WithDestroyer(d Destroyer) Option { return func(m *Manager) { m.destroyer = d } }

// WithEventBus задаёт шину событий
func WithEventBus(b eventbus.EventBus) Option { return func(m *Manager) { m.bus = b } }

// WithMetrics задаёт prometheus-метрики
func WithMetrics(pm *observability.PlacementMetrics) Option {
	return func(m *Manager) { m.metrics = pm }
}

// WithLogger задаёт логгер
func WithLogger(l *logging.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithMaxPathObjects ограничивает число объектов в PlaceAlongPath; 0 – без предела
func WithMaxPathObjects(n int) Option { return func(m *Manager) { m.maxPathObjects = n } }

// Manager – реестр сеток и размещённых объектов
type Manager struct {
	registry *buildable.Registry

	pending   []grid.Spec
	grids     map[string]*instance
	order     []string
	active    string
	finalized bool

	objects        map[buildable.ObjectID]*buildable.Object
	moving         bool
	maxPathObjects int

	surface   SurfaceQuery
	areas     AreaModifierQuery
	distance  DistanceChecker
	destroyer Destroyer
	bus       eventbus.EventBus
	metrics   *observability.PlacementMetrics
	logger    *logging.Logger

	mu sync.Mutex
}

// NewManager создаёт менеджер поверх реестра типов объектов
func NewManager(registry *buildable.Registry, opts ...Option) *Manager {
	if registry == nil {
		registry = buildable.NewRegistry()
	}
	m := &Manager{
		registry:       registry,
		grids:          make(map[string]*instance),
		objects:        make(map[buildable.ObjectID]*buildable.Object),
		maxPathObjects: DefaultMaxPathObjects,
		logger:         logging.GetPlacementLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry возвращает реестр типов объектов
func (m *Manager) Registry() *buildable.Registry {
	return m.registry
}

// RegisterGrid добавляет сетку. До Finalize сетка только запоминается,
// после – сразу становится доступной.
func (m *Manager) RegisterGrid(spec grid.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasGrid(spec.Name) {
		return fmt.Errorf("сетка %q уже зарегистрирована", spec.Name)
	}
	if !m.finalized {
		m.pending = append(m.pending, spec)
		return nil
	}
	m.addGrid(spec)
	return nil
}

func (m *Manager) hasGrid(name string) bool {
	if _, ok := m.grids[name]; ok {
		return true
	}
	for _, p := range m.pending {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (m *Manager) addGrid(spec grid.Spec) {
	m.grids[spec.Name] = newInstance(spec)
	m.order = append(m.order, spec.Name)
	if m.active == "" {
		m.active = spec.Name
	}
	m.logger.Info("Сетка %s готова: %dx%d, слоёв %d, ячейка %.2f",
		spec.Name, spec.Width, spec.Length, spec.Layers, spec.CellSize)
}

// Finalize создаёт занятость для всех зарегистрированных сеток.
// Повторный вызов ничего не делает.
func (m *Manager) Finalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return nil
	}
	if len(m.pending) == 0 {
		return fmt.Errorf("нет ни одной сетки")
	}
	for _, spec := range m.pending {
		m.addGrid(spec)
	}
	m.pending = nil
	m.finalized = true
	return nil
}

// SetActiveGrid выбирает сетку по умолчанию
func (m *Manager) SetActiveGrid(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.instanceLocked(name); err != nil {
		return err
	}
	m.active = name
	return nil
}

// ActiveGrid возвращает имя сетки по умолчанию
func (m *Manager) ActiveGrid() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Grid возвращает описание сетки
func (m *Manager) Grid(name string) (grid.Spec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instanceLocked(name)
	if err != nil {
		return grid.Spec{}, err
	}
	return inst.spec, nil
}

// Grids возвращает описания сеток в порядке регистрации
func (m *Manager) Grids() []grid.Spec {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]grid.Spec, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.grids[name].spec)
	}
	return out
}

// GridAt возвращает первую сетку, в границы которой попадает точка
func (m *Manager) GridAt(p vec.Vec3Float) (grid.Spec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.order {
		spec := m.grids[name].spec
		if spec.IsWithinBounds(spec.Mapper().WorldToCell(p)) {
			return spec, true
		}
	}
	return grid.Spec{}, false
}

// instanceLocked ищет сетку; пустое имя означает активную сетку
func (m *Manager) instanceLocked(name string) (*instance, error) {
	if !m.finalized {
		return nil, ErrNotFinalized
	}
	if name == "" {
		name = m.active
	}
	inst, ok := m.grids[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrid, name)
	}
	return inst, nil
}

// CellData возвращает копию записи ячейки
func (m *Manager) CellData(gridName string, layer int, cell vec.Vec2) (occupancy.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instanceLocked(gridName)
	if err != nil {
		return occupancy.Record{}, err
	}
	if !inst.spec.IsValidLayer(layer) {
		return occupancy.Record{}, fmt.Errorf("%w: %d", ErrInvalidVerticalLayer, layer)
	}
	rec, ok := inst.stack.GetCellData(cell, layer)
	if !ok {
		return occupancy.Record{}, fmt.Errorf("%w: ячейка %s", ErrOutOfBounds, cell)
	}
	return rec, nil
}

// Object возвращает копию размещённого объекта
func (m *Manager) Object(id buildable.ObjectID) (*buildable.Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return nil, false
	}
	return obj.Clone(), true
}

// Objects возвращает копии всех объектов, упорядоченные по ID
func (m *Manager) Objects() []*buildable.Object {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*buildable.Object, 0, len(m.objects))
	for _, obj := range m.objects {
		out = append(out, obj.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HeatMap возвращает тепловую карту слоя сетки
func (m *Manager) HeatMap(gridName string, layer int) (*heatmap.Map, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instanceLocked(gridName)
	if err != nil {
		return nil, err
	}
	if !inst.spec.IsValidLayer(layer) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVerticalLayer, layer)
	}
	return inst.heat[layer], nil
}

// descriptorLocked ищет тип объекта в реестре
func (m *Manager) descriptorLocked(id string) (*buildable.Descriptor, error) {
	d, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDescriptor, id)
	}
	return d, nil
}
