package metrics

import (
	"testing"
	"time"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveOperationDuration("listMedia", time.Second)
	r.IncOperationResult("listMedia", ResultSuccess)
	r.ObserveLockWait("updateWorkflowStatus", time.Millisecond)
	r.IncWorkflowTransition("draft", "pending_review")
	r.SetMediaFetchConcurrency(10)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveOperationDuration("listMedia", time.Second)
	p.IncOperationResult("listMedia", ResultFailure)
	p.ObserveLockWait("publishUnpublishedEntry", time.Millisecond)
	p.IncWorkflowTransition("draft", "pending_publish")
	p.SetMediaFetchConcurrency(5)
}
