package qa

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	asksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuskqa_asks_total",
		Help: "Completed asks by answer path (grounded, fallback)",
	}, []string{"path"})

	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuskqa_validation_failures_total",
		Help: "Rejected model drafts by error kind",
	}, []string{"kind"})

	fallbackStrategies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuskqa_fallback_strategy_total",
		Help: "Fallback answers by strategy that produced them",
	}, []string{"strategy"})

	webLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuskqa_web_lookups_total",
		Help: "General-knowledge lookups by result (hit, miss, error)",
	}, []string{"result"})

	evidenceSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tuskqa_evidence_items",
		Help:    "Evidence items selected per ask",
		Buckets: []float64{0, 1, 3, 6, 9, 12, 24},
	})
)
