// Package metrics records docqa pipeline metrics with Prometheus. docqa is a
// batch CLI, so metrics are exported as a node_exporter textfile rather than
// served over HTTP.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/54b3r/docqa-go/internal/chain"
)

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid_argument"
	OutcomeRemote    = "remote_error"
	OutcomeMalformed = "malformed_response"
	OutcomeIndex     = "index_error"
	OutcomeError     = "error"
)

// Observer implements chain.Observer. Create it with [New]; it is safe for
// concurrent use.
type Observer struct {
	// stageRunsTotal counts stage runs partitioned by stage and outcome.
	stageRunsTotal *prometheus.CounterVec

	// stageDurationSeconds records the wall-clock duration of each stage run.
	stageDurationSeconds *prometheus.HistogramVec

	// indexDocuments is the number of documents in the index after the last
	// ingestion.
	indexDocuments prometheus.Gauge

	// answerSources records how many sources each final answer cited.
	answerSources prometheus.Histogram
}

// New registers the docqa metrics against reg. Pass a fresh
// prometheus.NewRegistry() in tests to keep them hermetic.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)

	return &Observer{
		stageRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "stage",
			Name:      "runs_total",
			Help:      "Total number of pipeline stage runs, partitioned by stage and outcome.",
		}, []string{"stage", "outcome"}),

		stageDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of pipeline stage runs.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		indexDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "docqa",
			Subsystem: "index",
			Name:      "documents",
			Help:      "Number of documents in the index after the last ingestion.",
		}),

		answerSources: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "answer",
			Name:      "sources",
			Help:      "Number of sources cited per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}),
	}
}

// ObserveStage implements chain.Observer.
func (o *Observer) ObserveStage(stage string, elapsed time.Duration, err error) {
	o.stageRunsTotal.WithLabelValues(stage, Outcome(err)).Inc()
	o.stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SetIndexDocuments records the size of the index.
func (o *Observer) SetIndexDocuments(n int) {
	o.indexDocuments.Set(float64(n))
}

// ObserveAnswer records the number of sources an answer cited.
func (o *Observer) ObserveAnswer(sources int) {
	o.answerSources.Observe(float64(sources))
}

// Outcome maps a stage error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, chain.ErrInvalidArgument):
		return OutcomeInvalid
	case errors.Is(err, chain.ErrRemoteService):
		return OutcomeRemote
	case errors.Is(err, chain.ErrMalformedResponse):
		return OutcomeMalformed
	case errors.Is(err, chain.ErrIndexAccess):
		return OutcomeIndex
	default:
		return OutcomeError
	}
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
