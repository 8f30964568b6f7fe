// Package metrics exposes ledger and outbox counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/internal/services"
	"github.com/sanrakshak/herbtrace/usecase"
)

const namespace = "herbtrace"

type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	outbox      *prometheus.CounterVec
}

// New registers the collectors on a dedicated registry, together with the
// Go runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_transitions_total",
			Help:      "Committed batch mutations by operation and resulting status.",
		}, []string{"operation", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_rejections_total",
			Help:      "Collection events refused at intake, by reason.",
		}, []string{"reason"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_items_total",
			Help:      "Outbox delivery outcomes by item kind.",
		}, []string{"kind", "result"}),
	}
	r.registry.MustRegister(
		r.transitions,
		r.rejections,
		r.outbox,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveTransition(op domain.Operation, status domain.BatchStatus) {
	r.transitions.WithLabelValues(string(op), string(status)).Inc()
}

func (r *Recorder) ObserveRejection(reason domain.RejectionReason) {
	r.rejections.WithLabelValues(string(reason)).Inc()
}

func (r *Recorder) ObserveOutbox(kind, result string) {
	r.outbox.WithLabelValues(kind, result).Inc()
}

var (
	_ usecase.Metrics        = (*Recorder)(nil)
	_ services.OutboxMetrics = (*Recorder)(nil)
)
