package eventbus

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID        string            // Глобально уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания события (UTC).
	Source    string            // Имя компонента-источника.
	EventType string            // Тип события (object.placed, object.destroyed…).
	Priority  int               // PriorityLow … PriorityCritical.
	Payload   interface{}       // Типизированное событие.
	Metadata  map[string]string // Произвольные метаданные.
}

// Приоритеты событий. При заполненном буфере события ниже PriorityHigh
// отбрасываются, остальные ждут места.
const (
	PriorityLow      = 0
	PriorityNormal   = 3
	PriorityHigh     = 5
	PriorityCritical = 9
)

// NewEnvelope создаёт конверт с новым ID и текущим временем
func NewEnvelope(source, eventType string, priority int, payload interface{}) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Priority:  priority,
		Payload:   payload,
	}
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто – все типы.
	Sources []string // Если пусто – все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close()
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex // защищает closed
	subMu       sync.RWMutex // защищает subscribers и nextID
	subscribers []subscriber // в порядке подписки
	nextID      int
	published   atomic.Uint64
	consumed    atomic.Uint64
	dropped     atomic.Uint64
	buffer      chan *Envelope
	capacity    int
	closed      bool
	done        chan struct{}
}

type subscriber struct {
	id      int
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 256
	}
	mb := &memoryBus{
		buffer:   make(chan *Envelope, capacity),
		capacity: capacity,
		done:     make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	// Чтение под RLock не даёт Close закрыть буфер посреди отправки
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return nil
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	default:
		if ev.Priority < PriorityHigh {
			mb.dropped.Add(1)
			return nil
		}
		select {
		case mb.buffer <- ev:
			mb.published.Add(1)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.subMu.Lock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers = append(mb.subscribers, subscriber{id: id, filter: f, handler: h, ctx: cctx, cancel: cancel})
	mb.subMu.Unlock()

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close прекращает приём событий и дожидается разбора буфера
func (mb *memoryBus) Close() {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return
	}
	mb.closed = true
	mb.mu.Unlock()

	close(mb.buffer)
	<-mb.done
}

// dispatchLoop рассылает события в порядке публикации, подписчикам – в
// порядке подписки.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.subMu.RLock()
		subs := slices.Clone(mb.subscribers)
		mb.subMu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			select {
			case <-sub.ctx.Done():
				continue
			default:
			}
			sub.handler(sub.ctx, ev)
			mb.consumed.Add(1)
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		return len(arr) == 0 || slices.Contains(arr, val)
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.subMu.Lock()
	defer s.bus.subMu.Unlock()
	s.bus.subscribers = slices.DeleteFunc(s.bus.subscribers, func(sub subscriber) bool {
		if sub.id != s.id {
			return false
		}
		sub.cancel()
		return true
	})
}
