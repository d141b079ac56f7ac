// Package compute wraps a single unit of work so that its result or failure
// is always reported as a timed output message.
package compute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"strings"
	"time"

	"github.com/metabolize/werkit/pkg/types"
)

// Func performs the computation for one input message.
type Func[R any] func(ctx context.Context) (R, error)

// Destination receives every output message a Manager produces.
type Destination[R any, K any] interface {
	Send(ctx context.Context, key K, msg types.OutputMessage[R, K]) error
}

// PanicError is reported when the computation panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Options configure a Manager.
type Options[R any, K any] struct {
	Destination Destination[R, K]
	RuntimeInfo any
	// PropagateErrors makes Run return the computation error in addition
	// to the error message. Useful during development.
	PropagateErrors bool
	// TimePrecision is the number of decimal places kept in
	// duration_seconds. Zero means 2.
	TimePrecision int
}

type Manager[R any, K any] struct {
	opts   Options[R, K]
	logger *slog.Logger
	now    func() time.Time
}

func NewManager[R any, K any](opts Options[R, K]) *Manager[R, K] {
	if opts.TimePrecision <= 0 {
		opts.TimePrecision = 2
	}
	return &Manager[R, K]{opts: opts, now: time.Now}
}

func (m *Manager[R, K]) SetLogger(logger *slog.Logger) {
	m.logger = logger
}

// Run executes fn and returns its output message. A failing or panicking
// computation yields an error message with origin "compute"; the returned
// error is then nil unless PropagateErrors is set. Delivery failures are
// always returned.
func (m *Manager[R, K]) Run(ctx context.Context, key K, fn Func[R]) (types.OutputMessage[R, K], error) {
	start := m.now()
	result, runErr := invoke(ctx, fn)
	duration := m.round(m.now().Sub(start))

	var msg types.OutputMessage[R, K]
	if runErr != nil {
		msg = types.NewErrorMessage[R, K](key, types.ErrorOriginCompute, errorLines(runErr), start, duration)
		m.logInfo("compute_failed", "message_key", key, "duration", formatDuration(duration), "error", runErr)
	} else {
		msg = types.NewSuccessMessage(key, result, start, duration)
		m.logInfo("compute_completed", "message_key", key, "duration", formatDuration(duration))
	}
	msg.RuntimeInfo = m.opts.RuntimeInfo

	if runErr != nil && m.opts.PropagateErrors {
		return msg, runErr
	}

	if m.opts.Destination != nil {
		if err := m.opts.Destination.Send(ctx, key, msg); err != nil {
			return msg, fmt.Errorf("send output message: %w", err)
		}
	}
	return msg, nil
}

func invoke[R any](ctx context.Context, fn Func[R]) (result R, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

func (m *Manager[R, K]) round(d time.Duration) time.Duration {
	unit := time.Duration(float64(time.Second) / math.Pow10(m.opts.TimePrecision))
	if unit <= 0 {
		return d
	}
	return d.Round(unit)
}

// errorLines renders err one line per entry, each ending in a newline, with
// the panic stack appended when there is one.
func errorLines(err error) []string {
	text := err.Error()
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		text += "\n" + string(panicErr.Stack)
	}
	lines := strings.SplitAfter(strings.TrimRight(text, "\n")+"\n", "\n")
	return lines[:len(lines)-1]
}

// formatDuration renders d as "N sec" or "M min, N sec".
func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	seconds := (d - time.Duration(minutes)*time.Minute).Seconds()
	if minutes > 0 {
		return fmt.Sprintf("%d min, %g sec", minutes, seconds)
	}
	return fmt.Sprintf("%g sec", seconds)
}

func (m *Manager[R, K]) logInfo(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Info(msg, args...)
}
