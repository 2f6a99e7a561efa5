package grid

import (
	"fmt"
	"strings"

	"github.com/annel0/gridkit/internal/vec"
)

// Direction – одна из четырёх сторон ячейки. Для edge-объектов
// служит ключом в карте рёбер записи занятости.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West

	DirectionCount // всегда последний
)

var directionNames = [DirectionCount]string{"north", "east", "south", "west"}

func (d Direction) String() string {
	if d >= DirectionCount {
		return "unknown"
	}
	return directionNames[d]
}

// Step возвращает единичный шаг в координатах ячеек.
// North увеличивает row, East увеличивает col.
func (d Direction) Step() vec.Vec2 {
	switch d {
	case North:
		return vec.Vec2{X: 0, Y: 1}
	case East:
		return vec.Vec2{X: 1, Y: 0}
	case South:
		return vec.Vec2{X: 0, Y: -1}
	case West:
		return vec.Vec2{X: -1, Y: 0}
	}
	return vec.Vec2{}
}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	return (d + 2) % DirectionCount
}

// Clockwise возвращает следующее направление по часовой стрелке
func (d Direction) Clockwise() Direction {
	return (d + 1) % DirectionCount
}

// CounterClockwise возвращает предыдущее направление
func (d Direction) CounterClockwise() Direction {
	return (d + DirectionCount - 1) % DirectionCount
}

// IsNorthSouth сообщает, лежит ли направление на оси row
func (d Direction) IsNorthSouth() bool {
	return d == North || d == South
}

// ParseDirection разбирает "north"/"n" и т.п.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "north":
		return North, nil
	case "e", "east":
		return East, nil
	case "s", "south":
		return South, nil
	case "w", "west":
		return West, nil
	}
	return North, fmt.Errorf("неизвестное направление: %q", s)
}

// Corner – один из четырёх углов ячейки. Для corner-объектов
// служит ключом в карте углов записи занятости.
type Corner uint8

const (
	NorthEast Corner = iota
	SouthEast
	SouthWest
	NorthWest

	CornerCount // всегда последний
)

var cornerNames = [CornerCount]string{"north_east", "south_east", "south_west", "north_west"}

func (c Corner) String() string {
	if c >= CornerCount {
		return "unknown"
	}
	return cornerNames[c]
}

// Offset возвращает смещение угла от нижнего угла ячейки в долях ячейки
func (c Corner) Offset() vec.Vec2Float {
	switch c {
	case NorthEast:
		return vec.Vec2Float{X: 1, Y: 1}
	case SouthEast:
		return vec.Vec2Float{X: 1, Y: 0}
	case NorthWest:
		return vec.Vec2Float{X: 0, Y: 1}
	}
	return vec.Vec2Float{}
}

// ParseCorner разбирает "ne"/"north_east" и т.п.
func ParseCorner(s string) (Corner, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ne", "north_east", "northeast":
		return NorthEast, nil
	case "se", "south_east", "southeast":
		return SouthEast, nil
	case "", "sw", "south_west", "southwest":
		return SouthWest, nil
	case "nw", "north_west", "northwest":
		return NorthWest, nil
	}
	return SouthWest, fmt.Errorf("неизвестный угол: %q", s)
}
