// Package metrics records export counters on a private Prometheus registry.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hpo"

// Recorder holds the export metrics.
type Recorder struct {
	reg *prometheus.Registry

	annotationsLoaded prometheus.Counter
	termsEmitted      prometheus.Counter
	termsAnnotated    prometheus.Counter
	xrefsDropped      *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		annotationsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_loaded_total",
			Help:      "Annotation records read from phenotype_to_genes.txt.",
		}),
		termsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terms_emitted_total",
			Help:      "Enriched term records produced.",
		}),
		termsAnnotated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terms_annotated_total",
			Help:      "Enriched term records carrying at least one annotation.",
		}),
		xrefsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xrefs_dropped_total",
			Help:      "Cross-references excluded from output.",
		}, []string{"reason"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// AddAnnotations counts loaded association rows.
func (r *Recorder) AddAnnotations(n int) {
	if r == nil {
		return
	}
	r.annotationsLoaded.Add(float64(n))
}

// TermEmitted counts one output record.
func (r *Recorder) TermEmitted(annotated bool) {
	if r == nil {
		return
	}
	r.termsEmitted.Inc()
	if annotated {
		r.termsAnnotated.Inc()
	}
}

// XrefDropped counts a cross-reference left out of a record.
func (r *Recorder) XrefDropped(reason string) {
	if r == nil {
		return
	}
	r.xrefsDropped.WithLabelValues(reason).Inc()
}

// ObserveStage records the time elapsed since start for stage.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
