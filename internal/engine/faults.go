package engine

import "errors"

// Fault kinds. Every fault recorded in the tally wraps one of these, so
// callers can classify failures with errors.Is.
var (
	// ErrTransport covers abnormal termination of a range fetch and
	// short or empty response bodies.
	ErrTransport = errors.New("transport fault")

	// ErrStall is raised by the per-fetch inactivity watchdog.
	ErrStall = errors.New("fetch stalled")

	// ErrBackpressure is raised when the supervisor cannot obtain a
	// buffer or enqueue a segment within the fetch timeout.
	ErrBackpressure = errors.New("backpressure timeout")

	// ErrSink is raised when a sink write fails, e.g. when the reader
	// of a pipe goes away.
	ErrSink = errors.New("sink write failed")

	// ErrCredential is raised when no usable credential snapshot can be
	// produced when one is required.
	ErrCredential = errors.New("credential fault")

	// ErrOutOfOrder means a segment reached the sequencer out of planner
	// order. This cannot happen; it is treated as fatal.
	ErrOutOfOrder = errors.New("segment out of order")

	// ErrAborted marks work cancelled because the transfer already
	// carries a fault.
	ErrAborted = errors.New("transfer aborted")
)

// faultKind maps a fault to its metrics label.
func faultKind(err error) string {
	switch {
	case errors.Is(err, ErrStall):
		return "stall"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrBackpressure):
		return "backpressure"
	case errors.Is(err, ErrSink):
		return "sink"
	case errors.Is(err, ErrCredential):
		return "credential"
	case errors.Is(err, ErrOutOfOrder):
		return "invariant"
	case errors.Is(err, ErrAborted):
		return "aborted"
	default:
		return "other"
	}
}
