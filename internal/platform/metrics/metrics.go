package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the core financial-operation counters. The forensic hub and
// policy dispatcher register their own metrics next to their logic.
type Metrics struct {
	MintsTotal     prometheus.Counter
	BurnsTotal     prometheus.Counter
	TransfersTotal prometheus.Counter
	RejectedTotal  *prometheus.CounterVec
	Halted         prometheus.Gauge
}

// New creates and registers all core Prometheus metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinelguard_mints_total",
			Help: "Total successful mint operations",
		}),
		BurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinelguard_burns_total",
			Help: "Total successful burn operations",
		}),
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinelguard_transfers_total",
			Help: "Total successful transfer operations",
		}),
		RejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinelguard_operations_rejected_total",
			Help: "Rejected value-moving operations by error code",
		}, []string{"code"}),
		Halted: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentinelguard_emergency_halt",
			Help: "1 while the emergency halt is active",
		}),
	}
}
