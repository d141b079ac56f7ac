package types

import "time"

// ErrorOrigin says which layer produced a failed output message.
type ErrorOrigin string

const (
	ErrorOriginCompute       ErrorOrigin = "compute"
	ErrorOriginSystem        ErrorOrigin = "system"
	ErrorOriginOrchestration ErrorOrigin = "orchestration"
)

// ComputeMeta is attached to every worker output message.
type ComputeMeta struct {
	StartTime       string  `json:"start_time"`
	DurationSeconds float64 `json:"duration_seconds"`
	RuntimeInfo     any     `json:"runtime_info,omitempty"`
}

// OutputMessage is what a worker returns for one input message. Exactly one
// of Result and Error is set, matching Success.
type OutputMessage[R any, K any] struct {
	ComputeMeta
	Success     bool         `json:"success"`
	Result      *R           `json:"result"`
	Error       []string     `json:"error"`
	ErrorOrigin *ErrorOrigin `json:"error_origin"`
	MessageKey  K            `json:"message_key"`
}

// NewSuccessMessage wraps a computed result.
func NewSuccessMessage[R any, K any](key K, result R, start time.Time, duration time.Duration) OutputMessage[R, K] {
	return OutputMessage[R, K]{
		ComputeMeta: newComputeMeta(start, duration),
		Success:     true,
		Result:      &result,
		MessageKey:  key,
	}
}

// NewErrorMessage wraps a failure. lines is usually a formatted traceback.
func NewErrorMessage[R any, K any](key K, origin ErrorOrigin, lines []string, start time.Time, duration time.Duration) OutputMessage[R, K] {
	if lines == nil {
		lines = []string{}
	}
	return OutputMessage[R, K]{
		ComputeMeta: newComputeMeta(start, duration),
		Success:     false,
		Error:       lines,
		ErrorOrigin: &origin,
		MessageKey:  key,
	}
}

func newComputeMeta(start time.Time, duration time.Duration) ComputeMeta {
	return ComputeMeta{
		StartTime:       start.UTC().Format(time.RFC3339Nano),
		DurationSeconds: duration.Seconds(),
	}
}

// OrchestratorInput fans one item property out over a collection while the
// remaining worker input stays common to every item.
type OrchestratorInput[I any, C any] struct {
	ItemPropertyName string       `json:"itemPropertyName"`
	ItemCollection   map[string]I `json:"itemCollection"`
	CommonInput      C            `json:"commonInput"`
}

// OrchestratorOutputEntry is the per-item result, keyed by item key in
// OrchestratorOutput.
type OrchestratorOutputEntry[R any, K any] struct {
	OrchestrationStartTimestamp *float64 `json:"orchestrationStartTimestamp,omitempty"`
	WorkerRoundtripSeconds      *float64 `json:"workerRoundtripSeconds,omitempty"`
	OutputMessage[R, K]
}

type OrchestratorOutput[R any, K any] map[string]OrchestratorOutputEntry[R, K]
