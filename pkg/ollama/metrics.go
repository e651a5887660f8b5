package ollama

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "talentvec_llm_request_duration_seconds",
	Help:    "Duration of LLM API calls by endpoint.",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
}, []string{"endpoint"})
