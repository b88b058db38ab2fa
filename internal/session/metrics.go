package session

// Metrics receives session lifecycle events; internal/telemetry supplies the
// Prometheus-backed implementation, kept as a small interface here so this
// package doesn't import internal/telemetry directly.
type Metrics interface {
	ObserveSessionDuration(seconds float64)
	IncURStatus(status string)
	IncUniformResourceInserted()
	ObserveCapturableExecDuration(seconds float64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSessionDuration(float64)         {}
func (noopMetrics) IncURStatus(string)                    {}
func (noopMetrics) IncUniformResourceInserted()            {}
func (noopMetrics) ObserveCapturableExecDuration(float64)  {}
