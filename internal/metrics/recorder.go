package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// Recorder defines observability hooks for backend operations. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for
// nil receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveOperationDuration(op string, d time.Duration)
	IncOperationResult(op string, result ResultLabel)
	ObserveLockWait(op string, d time.Duration)
	IncWorkflowTransition(from, to string)
	SetMediaFetchConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveOperationDuration(string, time.Duration) {}
func (NoopRecorder) IncOperationResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveLockWait(string, time.Duration)          {}
func (NoopRecorder) IncWorkflowTransition(string, string)           {}
func (NoopRecorder) SetMediaFetchConcurrency(int)                   {}
