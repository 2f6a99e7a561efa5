// Package heatmap хранит пользовательские значения по ячейкам слоя,
// которые затем раскрашиваются внешним слоем визуализации.
package heatmap

import (
	"math"
	"sort"
	"sync"

	"github.com/annel0/gridkit/internal/vec"
)

// Map – именованные значения по ячейкам одного слоя
type Map struct {
	width  int
	length int
	values map[string][]float64
	mu     sync.RWMutex
}

// New создаёт пустую карту размером width×length
func New(width, length int) *Map {
	return &Map{width: width, length: length, values: make(map[string][]float64)}
}

func (m *Map) index(cell vec.Vec2) (int, bool) {
	if cell.X < 0 || cell.X >= m.width || cell.Y < 0 || cell.Y >= m.length {
		return 0, false
	}
	return cell.Y*m.width + cell.X, true
}

// Add прибавляет delta к значению name в ячейке. Ячейки вне карты игнорируются.
func (m *Map) Add(name string, cell vec.Vec2, delta float64) {
	i, ok := m.index(cell)
	if !ok || delta == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	layer, exists := m.values[name]
	if !exists {
		layer = make([]float64, m.width*m.length)
		m.values[name] = layer
	}
	layer[i] += delta
}

// Set задаёт значение напрямую
func (m *Map) Set(name string, cell vec.Vec2, value float64) {
	i, ok := m.index(cell)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	layer, exists := m.values[name]
	if !exists {
		layer = make([]float64, m.width*m.length)
		m.values[name] = layer
	}
	layer[i] = value
}

// Value возвращает значение name в ячейке (0, если не задано)
func (m *Map) Value(name string, cell vec.Vec2) float64 {
	i, ok := m.index(cell)
	if !ok {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if layer, exists := m.values[name]; exists {
		return layer[i]
	}
	return 0
}

// Names возвращает отсортированный список имён значений
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Range возвращает минимум и максимум значения name по всем ячейкам
func (m *Map) Range(name string) (min, max float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layer, exists := m.values[name]
	if !exists {
		return 0, 0
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range layer {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

// Normalized возвращает значения name в диапазоне [0,1] построчно
// (индекс y*width+x). При нулевом разбросе все значения равны 0.
func (m *Map) Normalized(name string) []float64 {
	min, max := m.Range(name)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]float64, m.width*m.length)
	layer, exists := m.values[name]
	if !exists || max == min {
		return out
	}
	for i, v := range layer {
		out[i] = (v - min) / (max - min)
	}
	return out
}
