package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the roster module: person and duty
// creation counts, insertion latency, and guard rejections.
type Metrics struct {
	PeopleCreated       prometheus.Counter
	DutiesInserted      prometheus.Counter
	InvariantViolations prometheus.Counter
	InsertDutyDuration  prometheus.Histogram
}

// New creates a Metrics instance with all roster module metrics registered.
func New() *Metrics {
	return &Metrics{
		PeopleCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roster_people_created_total",
			Help: "Total number of persons registered",
		}),
		DutiesInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roster_duties_inserted_total",
			Help: "Total number of duty segments inserted",
		}),
		InvariantViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roster_invariant_violations_total",
			Help: "Commits rejected because a snapshot would lose its last duty segment",
		}),
		InsertDutyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_insert_duty_duration_seconds",
			Help:    "Duration of InsertDuty operations (reconcile + commit path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementPeopleCreated() { m.PeopleCreated.Inc() }

func (m *Metrics) IncrementDutiesInserted() { m.DutiesInserted.Inc() }

func (m *Metrics) IncrementInvariantViolations() { m.InvariantViolations.Inc() }

// ObserveInsertDuty records the duration of an InsertDuty call.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveInsertDuty(start time.Time) {
	m.InsertDutyDuration.Observe(time.Since(start).Seconds())
}
