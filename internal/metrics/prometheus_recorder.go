package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	opDuration       *prom.HistogramVec
	opResults        *prom.CounterVec
	lockWait         *prom.HistogramVec
	transitions      *prom.CounterVec
	fetchConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.opDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "cmsbridge",
			Name:      "operation_duration_seconds",
			Help:      "Duration of backend operations",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"})
		pr.opResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cmsbridge",
			Name:      "operation_results_total",
			Help:      "Operation results by outcome",
		}, []string{"operation", "result"})
		pr.lockWait = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "cmsbridge",
			Name:      "workflow_lock_wait_seconds",
			Help:      "Time spent waiting for the workflow lock",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"})
		pr.transitions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cmsbridge",
			Name:      "workflow_transitions_total",
			Help:      "Workflow status transitions by from/to status",
		}, []string{"from", "to"})
		pr.fetchConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "cmsbridge",
			Name:      "media_fetch_concurrency",
			Help:      "Configured ceiling for parallel media fetches",
		})
		reg.MustRegister(pr.opDuration, pr.opResults, pr.lockWait, pr.transitions, pr.fetchConcurrency)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveOperationDuration(op string, d time.Duration) {
	if p == nil || p.opDuration == nil {
		return
	}
	p.opDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOperationResult(op string, result ResultLabel) {
	if p == nil || p.opResults == nil {
		return
	}
	p.opResults.WithLabelValues(op, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveLockWait(op string, d time.Duration) {
	if p == nil || p.lockWait == nil {
		return
	}
	p.lockWait.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncWorkflowTransition(from, to string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(from, to).Inc()
}

func (p *PrometheusRecorder) SetMediaFetchConcurrency(n int) {
	if p == nil || p.fetchConcurrency == nil {
		return
	}
	p.fetchConcurrency.Set(float64(n))
}
