package forensic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	monitoringRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinelguard_forensic_records_total",
		Help: "Forensic records accepted by the hub, by severity",
	}, []string{"severity"})

	monitoringSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinelguard_forensic_suppressed_total",
		Help: "Forensic entries dropped by the hub, by reason",
	}, []string{"reason"})

	monitoringRiskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinelguard_forensic_risk_score",
		Help:    "Risk scores of accepted forensic records",
		Buckets: []float64{10, 25, 40, 55, 80, 95, 100},
	})

	monitoringSwallowed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinelguard_forensic_failures_swallowed_total",
		Help: "Hub failures swallowed at producer call sites",
	})
)
