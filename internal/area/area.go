// Package area описывает разрешающие и запрещающие зоны размещения.
package area

import (
	"fmt"
	"strings"
	"sync"

	"github.com/annel0/gridkit/internal/buildable"
	"github.com/annel0/gridkit/internal/grid"
	"github.com/annel0/gridkit/internal/vec"
)

// Mode – действие зоны
type Mode uint8

const (
	Enable Mode = iota
	Disable
)

func (m Mode) String() string {
	if m == Disable {
		return "disable"
	}
	return "enable"
}

// UnmarshalYAML разбирает "enable"/"disable"
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enable", "allow":
		*m = Enable
	case "disable", "deny":
		*m = Disable
	default:
		return fmt.Errorf("неизвестный режим зоны %q", s)
	}
	return nil
}

// Modifier – зона. Basic-зона действует на всю сетку, обычная – на
// прямоугольник ячеек [Min, Max] включительно. Пустые списки фильтров
// означают "любой".
type Modifier struct {
	Name        string   `yaml:"name"`
	Grid        string   `yaml:"grid"`
	Mode        Mode     `yaml:"mode"`
	Basic       bool     `yaml:"basic"`
	Min         vec.Vec2 `yaml:"min"`
	Max         vec.Vec2 `yaml:"max"`
	Descriptors []string `yaml:"descriptors"`
	Categories  []string `yaml:"categories"`
	// Edges и Corners сужают действие зоны для edge- и corner-объектов
	Edges   []string `yaml:"edges"`
	Corners []string `yaml:"corners"`

	edges   map[grid.Direction]struct{}
	corners map[grid.Corner]struct{}
}

// compile проверяет зону и разбирает направления
func (m *Modifier) compile() error {
	if m.Name == "" {
		return fmt.Errorf("у зоны не задано имя")
	}
	if !m.Basic && (m.Max.X < m.Min.X || m.Max.Y < m.Min.Y) {
		return fmt.Errorf("зона %s: max %s меньше min %s", m.Name, m.Max, m.Min)
	}
	m.edges = nil
	for _, s := range m.Edges {
		d, err := grid.ParseDirection(s)
		if err != nil {
			return fmt.Errorf("зона %s: %w", m.Name, err)
		}
		if m.edges == nil {
			m.edges = make(map[grid.Direction]struct{})
		}
		m.edges[d] = struct{}{}
	}
	m.corners = nil
	for _, s := range m.Corners {
		c, err := grid.ParseCorner(s)
		if err != nil {
			return fmt.Errorf("зона %s: %w", m.Name, err)
		}
		if m.corners == nil {
			m.corners = make(map[grid.Corner]struct{})
		}
		m.corners[c] = struct{}{}
	}
	return nil
}

func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// applies проверяет фильтры сетки и типа объекта
func (m *Modifier) applies(g grid.Spec, d *buildable.Descriptor) bool {
	return (m.Grid == "" || m.Grid == g.Name) &&
		contains(m.Descriptors, d.ID) &&
		contains(m.Categories, d.Category)
}

// covers проверяет, попадает ли место в зону
func (m *Modifier) covers(d *buildable.Descriptor, slot grid.Slot) bool {
	c := slot.Cell
	if c.X < m.Min.X || c.X > m.Max.X || c.Y < m.Min.Y || c.Y > m.Max.Y {
		return false
	}
	switch d.Kind {
	case grid.KindEdge:
		if m.edges != nil {
			_, ok := m.edges[slot.Edge]
			return ok
		}
	case grid.KindCorner:
		if m.corners != nil {
			_, ok := m.corners[slot.Corner]
			return ok
		}
	}
	return true
}

// Set – набор зон, безопасный для конкурентного доступа
type Set struct {
	modifiers []*Modifier
	mu        sync.RWMutex
}

// NewSet создаёт набор из заданных зон
func NewSet(mods ...Modifier) (*Set, error) {
	s := &Set{}
	for _, m := range mods {
		if err := s.Add(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add добавляет зону; имя должно быть уникальным
func (s *Set) Add(m Modifier) error {
	if err := m.compile(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.modifiers {
		if existing.Name == m.Name {
			return fmt.Errorf("зона %s уже существует", m.Name)
		}
	}
	s.modifiers = append(s.modifiers, &m)
	return nil
}

// Remove удаляет зону по имени
func (s *Set) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.modifiers {
		if m.Name == name {
			s.modifiers = append(s.modifiers[:i], s.modifiers[i+1:]...)
			return true
		}
	}
	return false
}

// Len возвращает количество зон
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.modifiers)
}

func (s *Set) any(fn func(m *Modifier) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.modifiers {
		if fn(m) {
			return true
		}
	}
	return false
}

func (s *Set) IsEnabledByBasicArea(g grid.Spec, d *buildable.Descriptor) bool {
	return s.any(func(m *Modifier) bool {
		return m.Basic && m.Mode == Enable && m.applies(g, d)
	})
}

func (s *Set) IsDisabledByBasicArea(g grid.Spec, d *buildable.Descriptor) bool {
	return s.any(func(m *Modifier) bool {
		return m.Basic && m.Mode == Disable && m.applies(g, d)
	})
}

func (s *Set) IsEnabledByArea(g grid.Spec, d *buildable.Descriptor, slot grid.Slot) bool {
	return s.any(func(m *Modifier) bool {
		return !m.Basic && m.Mode == Enable && m.applies(g, d) && m.covers(d, slot)
	})
}

func (s *Set) IsDisabledByArea(g grid.Spec, d *buildable.Descriptor, slot grid.Slot) bool {
	return s.any(func(m *Modifier) bool {
		return !m.Basic && m.Mode == Disable && m.applies(g, d) && m.covers(d, slot)
	})
}
