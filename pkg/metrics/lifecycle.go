package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts order transitions and stock ledger movements.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	movements   *prometheus.CounterVec
	created     prometheus.Counter
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions applied, by from/to status.",
	}, []string{"from", "to"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock ledger movements recorded, by movement type.",
	}, []string{"type"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created through checkout.",
	})
	reg.MustRegister(transitions, movements, created)
	return &LifecycleMetrics{
		transitions: transitions,
		movements:   movements,
		created:     created,
	}
}

// IncTransition counts one applied status transition.
func (m *LifecycleMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncMovement counts one recorded stock movement.
func (m *LifecycleMetrics) IncMovement(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncOrderCreated counts one successful checkout.
func (m *LifecycleMetrics) IncOrderCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
