package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuskqa_llm_calls_total",
		Help: "LLM executions by outcome (ok, exhausted, abandoned)",
	}, []string{"outcome"})

	llmAttemptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuskqa_llm_attempt_failures_total",
		Help: "Failed LLM attempts by class (timeout, transport)",
	}, []string{"class"})

	llmCallLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tuskqa_llm_call_latency_seconds",
		Help:    "Wall time of an LLM execution including retries",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
	})
)
