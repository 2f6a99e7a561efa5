// Package occupancy хранит занятость ячеек по слоям сетки.
//
// Доступ строится по схеме копия-изменение-запись: GetCellData отдаёт
// копию, вызывающий код меняет её и фиксирует через SetCellData. Так
// многоклеточная транзакция может проверить все ячейки по снимку до
// первой записи.
package occupancy

import (
	"fmt"
	"sync"

	"github.com/annel0/gridkit/internal/vec"
)

// Grid – двумерный массив записей одного вертикального слоя
type Grid struct {
	width  int
	length int
	cells  []Record // cells[y*width+x]
	mu     sync.RWMutex
}

// NewGrid создаёт пустой слой размером width×length
func NewGrid(width, length int) *Grid {
	return &Grid{
		width:  width,
		length: length,
		cells:  make([]Record, width*length),
	}
}

// Width возвращает ширину слоя в ячейках
func (g *Grid) Width() int { return g.width }

// Length возвращает длину слоя в ячейках
func (g *Grid) Length() int { return g.length }

// IsWithinBounds проверяет, попадает ли ячейка в слой
func (g *Grid) IsWithinBounds(cell vec.Vec2) bool {
	return cell.X >= 0 && cell.X < g.width && cell.Y >= 0 && cell.Y < g.length
}

func (g *Grid) index(cell vec.Vec2) int {
	return cell.Y*g.width + cell.X
}

// GetCellData возвращает копию записи ячейки. Для ячейки вне слоя
// возвращается пустая запись и false.
func (g *Grid) GetCellData(cell vec.Vec2) (Record, bool) {
	if !g.IsWithinBounds(cell) {
		return Record{}, false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.cells[g.index(cell)].Clone(), true
}

// SetCellData целиком заменяет запись ячейки
func (g *Grid) SetCellData(cell vec.Vec2, r Record) error {
	if !g.IsWithinBounds(cell) {
		return fmt.Errorf("ячейка %v вне слоя %dx%d", cell, g.width, g.length)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.cells[g.index(cell)] = r.Clone()
	return nil
}

// ForEachOccupied вызывает fn для каждой непустой ячейки (с копией записи)
func (g *Grid) ForEachOccupied(fn func(cell vec.Vec2, r Record)) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for i := range g.cells {
		if g.cells[i].IsEmpty() {
			continue
		}
		fn(vec.Vec2{X: i % g.width, Y: i / g.width}, g.cells[i].Clone())
	}
}

// Stack – слои одной сетки одинакового размера
type Stack struct {
	layers []*Grid
}

// NewStack создаёт count пустых слоёв
func NewStack(width, length, count int) *Stack {
	s := &Stack{layers: make([]*Grid, count)}
	for i := range s.layers {
		s.layers[i] = NewGrid(width, length)
	}
	return s
}

// Count возвращает количество слоёв
func (s *Stack) Count() int { return len(s.layers) }

// Layer возвращает слой по индексу
func (s *Stack) Layer(layer int) (*Grid, bool) {
	if layer < 0 || layer >= len(s.layers) {
		return nil, false
	}
	return s.layers[layer], true
}

// GetCellData возвращает копию записи ячейки на слое
func (s *Stack) GetCellData(cell vec.Vec2, layer int) (Record, bool) {
	g, ok := s.Layer(layer)
	if !ok {
		return Record{}, false
	}
	return g.GetCellData(cell)
}

// SetCellData заменяет запись ячейки на слое
func (s *Stack) SetCellData(cell vec.Vec2, layer int, r Record) error {
	g, ok := s.Layer(layer)
	if !ok {
		return fmt.Errorf("слой %d вне диапазона 0..%d", layer, len(s.layers)-1)
	}
	return g.SetCellData(cell, r)
}
