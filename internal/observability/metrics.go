package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	assignmentRoundsTotal  *prometheus.CounterVec
	gradingTasksCreated    prometheus.Counter
	gradesRecordedTotal    *prometheus.CounterVec
	aggregateRecomputes    prometheus.Counter
	requestLatencySeconds  *prometheus.HistogramVec
	requestsTotal          *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the grading workflow.
func RegisterMetrics() {
	registerOnce.Do(func() {
		assignmentRoundsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_assignment_rounds_total",
			Help: "Total number of peer-assignment rounds, by outcome.",
		}, []string{"outcome"})

		gradingTasksCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peergrade_grading_tasks_created_total",
			Help: "Total number of grading tasks persisted.",
		})

		gradesRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_grades_recorded_total",
			Help: "Total number of peer grades recorded, by task kind.",
		}, []string{"kind"})

		aggregateRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peergrade_aggregate_recomputes_total",
			Help: "Total number of aggregate grade recomputations.",
		})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peergrade_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergrade_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(assignmentRoundsTotal, gradingTasksCreated,
			gradesRecordedTotal, aggregateRecomputes, requestLatencySeconds, requestsTotal)
	})
}

// AssignmentRounds exposes the counter for assignment rounds.
func AssignmentRounds() *prometheus.CounterVec {
	RegisterMetrics()
	return assignmentRoundsTotal
}

// GradingTasksCreated exposes the counter for persisted grading tasks.
func GradingTasksCreated() prometheus.Counter {
	RegisterMetrics()
	return gradingTasksCreated
}

// GradesRecorded exposes the counter for recorded peer grades.
func GradesRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesRecordedTotal
}

// AggregateRecomputes exposes the counter for aggregate recomputations.
func AggregateRecomputes() prometheus.Counter {
	RegisterMetrics()
	return aggregateRecomputes
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}
