package metrics

import (
	"net/http"
	"time"

	"github.com/jhoicas/pharmacy-register/internal/application/register"
	"github.com/jhoicas/pharmacy-register/internal/domain"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ register.Metrics = (*Registry)(nil)

// Registry métricas Prometheus del registro de controlados sobre un registry propio.
type Registry struct {
	reg            *prometheus.Registry
	entries        *prometheus.CounterVec
	violations     *prometheus.CounterVec
	recalcDuration *prometheus.HistogramVec
	inconsistency  prometheus.Counter
}

// New registra los colectores bajo el namespace dado (ej. pharmacy_register).
func New(namespace string) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_recorded_total",
			Help:      "Asientos del registro persistidos, por tipo de movimiento.",
		}, []string{"transaction_type"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compliance_violations_total",
			Help:      "Violaciones de cumplimiento que rechazaron un asiento, por regla.",
		}, []string{"kind"}),
		recalcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recalculation_duration_seconds",
			Help:      "Duración del mantenimiento del saldo corrido.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"strategy"}),
		inconsistency: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recalculation_inconsistencies_total",
			Help:      "Verificaciones de saldo fallidas (transacción revertida).",
		}),
	}
	r.reg.MustRegister(
		r.entries, r.violations, r.recalcDuration, r.inconsistency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) EntryRecorded(txType entity.TransactionType) {
	r.entries.WithLabelValues(string(txType)).Inc()
}

func (r *Registry) ViolationsRejected(violations []domain.Violation) {
	for _, v := range violations {
		r.violations.WithLabelValues(string(v.Kind)).Inc()
	}
}

func (r *Registry) Recalculated(strategy register.Strategy, elapsed time.Duration) {
	r.recalcDuration.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
}

func (r *Registry) Inconsistency() {
	r.inconsistency.Inc()
}

// Handler expone el registry en formato de texto Prometheus (montado en /metrics).
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer acceso al registry para tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
