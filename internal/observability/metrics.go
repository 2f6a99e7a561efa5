package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PlacementMetrics – счётчики подсистемы размещения.
//
// Метрики:
// * gridkit_placement_decisions_total{reason} – итоги проверок
// * gridkit_objects_placed_total{kind} – успешные размещения
// * gridkit_objects_destroyed_total{kind,cause} – уничтожения
// * gridkit_object_moves_total{result} – перемещения (ok/rollback)
// * gridkit_objects_live – число размещённых объектов
//
// Все методы безопасны для nil-получателя.
type PlacementMetrics struct {
	decisions *prometheus.CounterVec
	placed    *prometheus.CounterVec
	destroyed *prometheus.CounterVec
	moves     *prometheus.CounterVec
	live      prometheus.Gauge
}

// NewPlacementMetrics создаёт метрики и регистрирует их в reg.
// При reg == nil используется дефолтный регистр.
func NewPlacementMetrics(reg prometheus.Registerer) *PlacementMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	pm := &PlacementMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridkit",
			Name:      "placement_decisions_total",
			Help:      "Итоги проверок размещения по причинам.",
		}, []string{"reason"}),
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridkit",
			Name:      "objects_placed_total",
			Help:      "Число размещённых объектов.",
		}, []string{"kind"}),
		destroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridkit",
			Name:      "objects_destroyed_total",
			Help:      "Число уничтоженных объектов.",
		}, []string{"kind", "cause"}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridkit",
			Name:      "object_moves_total",
			Help:      "Перемещения объектов по результату.",
		}, []string{"result"}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridkit",
			Name:      "objects_live",
			Help:      "Текущее число размещённых объектов.",
		}),
	}

	reg.MustRegister(pm.decisions, pm.placed, pm.destroyed, pm.moves, pm.live)
	return pm
}

// ObserveDecision учитывает итог проверки
func (pm *PlacementMetrics) ObserveDecision(reason string) {
	if pm == nil {
		return
	}
	pm.decisions.WithLabelValues(reason).Inc()
}

// ObservePlaced учитывает успешное размещение
func (pm *PlacementMetrics) ObservePlaced(kind string) {
	if pm == nil {
		return
	}
	pm.placed.WithLabelValues(kind).Inc()
	pm.live.Inc()
}

// ObserveDestroyed учитывает уничтожение объекта
func (pm *PlacementMetrics) ObserveDestroyed(kind, cause string) {
	if pm == nil {
		return
	}
	pm.destroyed.WithLabelValues(kind, cause).Inc()
	pm.live.Dec()
}

// ObserveMove учитывает перемещение
func (pm *PlacementMetrics) ObserveMove(ok bool) {
	if pm == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rollback"
	}
	pm.moves.WithLabelValues(result).Inc()
}
