package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitka_llm_generation_attempts_total",
		Help: "Backend generation attempts by backend and status",
	}, []string{"backend", "status"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitka_llm_generation_duration_seconds",
		Help:    "Wall time of one backend generation attempt",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"backend"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitka_llm_fallbacks_total",
		Help: "Backend-to-backend fallback transitions",
	}, []string{"from", "to"})
)
