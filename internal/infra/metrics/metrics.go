// Package metrics provides Prometheus metrics for the MRC service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mrc"

var (
	// RequestsTotal counts questions by terminal pipeline stage.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of questions by outcome",
		},
		[]string{"outcome"},
	)

	// StageDuration measures time spent in each pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// CandidatePassages observes candidate set sizes before reranking.
	CandidatePassages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_passages",
			Help:      "Distribution of candidate passage counts",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	// AnswersReturned observes the number of answers per response.
	AnswersReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answers_returned",
			Help:      "Distribution of answers returned per question",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
	)

	// ErrorsTotal counts collaborator failures by stage.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of pipeline errors",
		},
		[]string{"stage"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordStage records the duration of one pipeline stage.
func RecordStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordOutcome records a finished question.
func RecordOutcome(outcome string, candidates, answers int) {
	RequestsTotal.WithLabelValues(outcome).Inc()
	CandidatePassages.Observe(float64(candidates))
	AnswersReturned.Observe(float64(answers))
}

// RecordError records a failed collaborator call.
func RecordError(stage string) {
	ErrorsTotal.WithLabelValues(stage).Inc()
	RequestsTotal.WithLabelValues("error").Inc()
}

// RecordRateLimited records a rejected request.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
