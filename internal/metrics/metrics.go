// Package metrics exposes gitcheckpoint's Prometheus instruments.
//
// Each Recorder owns its own registry, so tests and multiple monitors in one
// process never collide on collector registration.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

const namespace = "gitcheckpoint"

// Recorder collects counters for checkpoints, rollbacks, monitor cycles and
// validation runs.
type Recorder struct {
	registry *prometheus.Registry

	cycles              *prometheus.CounterVec
	checkpointsCreated  prometheus.Counter
	checkpointsSkipped  prometheus.Counter
	rollbacks           prometheus.Counter
	validationFailures  *prometheus.CounterVec
	validationDurations *prometheus.HistogramVec
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_cycles_total",
			Help:      "Monitor cycles by outcome.",
		}, []string{"outcome"}),
		checkpointsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_created_total",
			Help:      "Checkpoints committed and tagged.",
		}),
		checkpointsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_skipped_total",
			Help:      "Checkpoint requests skipped because the work tree was clean.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Rollbacks to a checkpoint tag.",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Failed validation stages.",
		}, []string{"stage"}),
		validationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Wall time of each validation stage.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
	}

	r.registry.MustRegister(
		r.cycles,
		r.checkpointsCreated,
		r.checkpointsSkipped,
		r.rollbacks,
		r.validationFailures,
		r.validationDurations,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// CycleCompleted counts one monitor cycle with the given outcome label.
func (r *Recorder) CycleCompleted(outcome string) {
	r.cycles.WithLabelValues(outcome).Inc()
}

// CheckpointCreated counts a new checkpoint.
func (r *Recorder) CheckpointCreated() {
	r.checkpointsCreated.Inc()
}

// CheckpointSkipped counts a checkpoint request on a clean tree.
func (r *Recorder) CheckpointSkipped() {
	r.checkpointsSkipped.Inc()
}

// RollbackPerformed counts a completed rollback.
func (r *Recorder) RollbackPerformed() {
	r.rollbacks.Inc()
}

// ObserveValidation records a stage's duration and, when it failed, a failure.
func (r *Recorder) ObserveValidation(stage string, d time.Duration, ok bool) {
	r.validationDurations.WithLabelValues(stage).Observe(d.Seconds())
	if !ok {
		r.validationFailures.WithLabelValues(stage).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "metrics server on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to stop metrics server")
		}
		<-errCh
		return nil
	}
}
