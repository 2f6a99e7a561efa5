// Package camera ограничивает дальность размещения в зависимости от
// режима камеры.
package camera

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/annel0/gridkit/internal/vec"
)

// Mode – режим камеры
type Mode uint8

const (
	// TopDown меряет расстояние в горизонтальной плоскости от проекции камеры
	TopDown Mode = iota
	// ThirdPerson меряет расстояние от персонажа
	ThirdPerson
	// Free не ограничивает дальность
	Free
)

var modeNames = map[Mode]string{TopDown: "top_down", ThirdPerson: "third_person", Free: "free"}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", m)
}

// ParseMode разбирает имя режима
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == key {
			return m, nil
		}
	}
	return TopDown, fmt.Errorf("неизвестный режим камеры %q", s)
}

// UnmarshalYAML разбирает режим из строки
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Limiter проверяет, что точка размещения не дальше maxDistance от
// наблюдателя. Позиции обновляются каждый кадр из внешнего кода.
type Limiter struct {
	mode        Mode
	maxDistance float64
	camera      vec.Vec3Float
	target      vec.Vec3Float
	mu          sync.RWMutex
}

// NewLimiter создаёт ограничитель. maxDistance <= 0 снимает ограничение.
func NewLimiter(mode Mode, maxDistance float64) *Limiter {
	return &Limiter{mode: mode, maxDistance: maxDistance}
}

// SetMode переключает режим камеры
func (l *Limiter) SetMode(mode Mode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = mode
}

// SetCamera обновляет позицию камеры
func (l *Limiter) SetCamera(pos vec.Vec3Float) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.camera = pos
}

// SetTarget обновляет позицию персонажа
func (l *Limiter) SetTarget(pos vec.Vec3Float) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = pos
}

// Unrestricted сообщает, что проверка дальности отключена
func (l *Limiter) Unrestricted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode == Free || l.maxDistance <= 0
}

// Distance возвращает расстояние до точки по правилам текущего режима
func (l *Limiter) Distance(p vec.Vec3Float) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.mode {
	case ThirdPerson:
		return l.target.DistanceTo(p)
	case TopDown:
		return math.Hypot(p.X-l.camera.X, p.Z-l.camera.Z)
	}
	return 0
}

// IsWithinPlacementDistance проверяет дальность
func (l *Limiter) IsWithinPlacementDistance(p vec.Vec3Float) bool {
	if l.Unrestricted() {
		return true
	}
	return l.Distance(p) <= l.maxDistance
}
