package heatmap

import (
	"testing"

	"github.com/annel0/gridkit/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestMap_AddAndRange(t *testing.T) {
	m := New(3, 2)
	m.Add("defense", vec.Vec2{X: 0, Y: 0}, 2)
	m.Add("defense", vec.Vec2{X: 2, Y: 1}, 6)
	m.Add("defense", vec.Vec2{X: 9, Y: 9}, 100)

	assert.Equal(t, 2.0, m.Value("defense", vec.Vec2{X: 0, Y: 0}))
	assert.Equal(t, 0.0, m.Value("defense", vec.Vec2{X: 1, Y: 0}))
	assert.Equal(t, 0.0, m.Value("beauty", vec.Vec2{X: 0, Y: 0}))

	min, max := m.Range("defense")
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 6.0, max, "ячейки вне карты игнорируются")
	assert.Equal(t, []string{"defense"}, m.Names())
}

func TestMap_Normalized(t *testing.T) {
	m := New(2, 1)
	m.Set("v", vec.Vec2{X: 0}, 1)
	m.Set("v", vec.Vec2{X: 1}, 3)
	assert.Equal(t, []float64{0, 1}, m.Normalized("v"))

	flat := New(2, 1)
	flat.Set("v", vec.Vec2{X: 0}, 5)
	flat.Set("v", vec.Vec2{X: 1}, 5)
	assert.Equal(t, []float64{0, 0}, flat.Normalized("v"))
}

func TestMap_AddThenSubtract(t *testing.T) {
	m := New(1, 1)
	m.Add("v", vec.Vec2{}, 2.5)
	m.Add("v", vec.Vec2{}, -2.5)
	assert.Equal(t, 0.0, m.Value("v", vec.Vec2{}))
}
