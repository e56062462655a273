package engine

import (
	"fmt"
	"io"
	"time"

	"github.com/chanzuckerberg/s3mi/internal/metrics"
)

// sequence is the single consumer of the ordered queue. It emits
// segments to the sink strictly in planner order: for each segment it
// waits for the fetch to complete, writes the bytes in one call, and
// returns the buffer to the pool. Whatever path it exits by, every
// segment still in the queue is cancelled and reclaimed.
func (e *Engine) sequence(queue <-chan *segment, sink io.Writer) (err error) {
	defer func() {
		for seg := range queue {
			e.abortSegment(seg)
		}
	}()

	var next int64
	for seg := range queue {
		if seg.index != next {
			f := fmt.Errorf("%w: got segment %d, want %d", ErrOutOfOrder, seg.index, next)
			e.tally.fault(f)
			e.abortSegment(seg)
			return f
		}
		next++

		if werr := e.awaitSegment(seg); werr != nil {
			e.reclaim(seg)
			return werr
		}

		// A fault elsewhere aborts the run before this segment is
		// emitted, even though its own fetch succeeded.
		if e.tally.aborted() {
			e.reclaim(seg)
			return fmt.Errorf("%w: before emitting segment %d", ErrAborted, seg.index)
		}

		start := time.Now()
		if _, werr := sink.Write(seg.data); werr != nil {
			f := fmt.Errorf("%w: segment %d: %v", ErrSink, seg.index, werr)
			e.tally.fault(f)
			e.reclaim(seg)
			return f
		}

		e.log.Debug("segment emitted", "segment", seg.index, "bytes", len(seg.data))
		if m := metrics.Get(); m != nil {
			m.BytesWritten.Add(float64(len(seg.data)))
			m.EmitDuration.Observe(time.Since(start).Seconds())
		}

		e.reclaim(seg)
	}

	return nil
}

// awaitSegment waits for the segment's fetch to finish, polling the
// error tally so a fault anywhere aborts the wait. The total wait is
// bounded by the fetch timeout; exceeding it kills the worker and counts
// a fault.
func (e *Engine) awaitSegment(seg *segment) error {
	poll := e.cfg.FetchTimeout / 20
	if poll < 5*time.Millisecond {
		poll = 5 * time.Millisecond
	}
	if poll > 500*time.Millisecond {
		poll = 500 * time.Millisecond
	}

	t := time.NewTicker(poll)
	defer t.Stop()
	deadline := time.Now().Add(e.cfg.FetchTimeout)

	for {
		select {
		case <-seg.done:
			return seg.err
		case <-t.C:
			if e.tally.aborted() {
				f := fmt.Errorf("%w: segment %d terminated", ErrAborted, seg.index)
				e.tally.fault(f)
				seg.cancel()
				<-seg.done
				return f
			}
			if time.Now().After(deadline) {
				// Record the stall before killing the worker so the
				// transfer's first error names the stall, not the
				// worker's cancelled read.
				f := fmt.Errorf("%w: segment %d not fetched within %s",
					ErrStall, seg.index, e.cfg.FetchTimeout)
				e.tally.fault(f)
				seg.cancel()
				<-seg.done
				return f
			}
		}
	}
}

// abortSegment kills a segment's worker and reclaims its buffer.
func (e *Engine) abortSegment(seg *segment) {
	seg.cancel()
	<-seg.done
	e.reclaim(seg)
}

// reclaim returns the segment's buffer to the pool. Called exactly once
// per segment, only after the worker has signalled done.
func (e *Engine) reclaim(seg *segment) {
	e.pool.put(seg.buf)
	if m := metrics.Get(); m != nil {
		m.BufferedSegments.Dec()
	}
}
