package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Generations
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_generations_total",
			Help: "Generation requests by task and terminal result",
		},
		[]string{"task", "result"}, // result: done|failed
	)
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nova_generation_duration_seconds",
			Help:    "Histogram of successful generation durations",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s..64s
		},
	)

	// LLM backend
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_llm_requests_total",
			Help: "Backend calls by model",
		},
		[]string{"model"},
	)

	// Output validation
	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_validation_runs_total",
			Help: "Output shape validation runs by task and result",
		},
		[]string{"task", "result"}, // result: pass|fail
	)
	RepairAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_repair_attempts_total",
			Help: "Bounded repair round trips by task",
		},
		[]string{"task"},
	)

	// Credits
	CreditsSpent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_credits_spent_total",
			Help: "Credits settled on successful generations, by task",
		},
		[]string{"task"},
	)
	CreditsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_credits_granted_total",
			Help: "Credits added via payment confirmation, by pack",
		},
		[]string{"pack"},
	)

	// Store ops
	DBOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_db_ops_total",
			Help: "Document store operations performed",
		},
		[]string{"collection", "op"}, // op: find|find_one|insert|update|replace|upsert|count|aggregate
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationDurationSeconds,
		LLMRequests,
		ValidationRuns,
		RepairAttempts,
		CreditsSpent,
		CreditsGranted,
		DBOps,
		Errors,
	)
}

func IncGeneration(task, result string) {
	Generations.WithLabelValues(task, result).Inc()
}

func ObserveGenerationDuration(d time.Duration) {
	GenerationDurationSeconds.Observe(d.Seconds())
}

func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

func IncValidationRun(task, result string) {
	ValidationRuns.WithLabelValues(task, result).Inc()
}

func IncRepairAttempt(task string) {
	RepairAttempts.WithLabelValues(task).Inc()
}

func AddCreditsSpent(task string, n int) {
	CreditsSpent.WithLabelValues(task).Add(float64(n))
}

func AddCreditsGranted(pack string, n int) {
	CreditsGranted.WithLabelValues(pack).Add(float64(n))
}

func IncDBOp(collection, op string) {
	DBOps.WithLabelValues(collection, op).Inc()
}

func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
