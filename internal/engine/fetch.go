package engine

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/chanzuckerberg/s3mi/internal/creds"
	"github.com/chanzuckerberg/s3mi/internal/metrics"
)

// fetchSegment runs one range fetch to completion. It owns the segment
// buffer until done is closed, releases its concurrency-gate permit
// exactly once, and records any failure in the tally.
func (e *Engine) fetchSegment(ctx context.Context, seg *segment, snap creds.Snapshot) {
	defer e.gate.Release(1)
	defer close(seg.done)

	if m := metrics.Get(); m != nil {
		m.InFlightFetches.Inc()
		defer m.InFlightFetches.Dec()
	}

	start := time.Now()
	err := e.fetchInto(ctx, seg, snap)
	elapsed := time.Since(start)

	if err != nil {
		seg.err = err
		e.tally.fault(err)
		e.log.Warn("segment fetch failed",
			"segment", seg.index,
			"range_first", seg.first,
			"range_last", seg.last,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		if m := metrics.Get(); m != nil {
			m.SegmentsFailed.Inc()
		}
		return
	}

	e.log.Debug("segment fetched",
		"segment", seg.index,
		"bytes", seg.length(),
		"duration_ms", elapsed.Milliseconds(),
	)
	if m := metrics.Get(); m != nil {
		m.SegmentsFetched.Inc()
		m.BytesFetched.Add(float64(seg.length()))
		m.FetchDuration.Observe(elapsed.Seconds())
	}
}

// fetchInto executes the ranged GET and reads the body into the segment
// buffer, guarded by the inactivity watchdog. An empty or short body is
// a failure: byte counts are trusted over transport status.
func (e *Engine) fetchInto(ctx context.Context, seg *segment, snap creds.Snapshot) error {
	body, err := e.src.OpenRange(ctx, snap, seg.first, seg.last)
	if err != nil {
		return fmt.Errorf("%w: segment %d: open range %d-%d: %v",
			ErrTransport, seg.index, seg.first, seg.last, err)
	}
	defer body.Close()

	var progress atomic.Int64
	var stalled atomic.Bool
	stop := make(chan struct{})
	defer close(stop)
	go e.watchdog(ctx, seg.cancel, &progress, &stalled, stop)

	data := seg.buf[:seg.length()]
	read := 0
	for read < len(data) {
		n, rerr := body.Read(data[read:])
		read += n
		progress.Store(int64(read))

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if stalled.Load() {
				return fmt.Errorf("%w: segment %d: no progress within %s",
					ErrStall, seg.index, e.cfg.FetchTimeout)
			}
			return fmt.Errorf("%w: segment %d: %v", ErrTransport, seg.index, rerr)
		}
	}

	if int64(read) != seg.length() {
		return fmt.Errorf("%w: segment %d: short response: got %d bytes, want %d",
			ErrTransport, seg.index, read, seg.length())
	}

	seg.data = data
	return nil
}

// watchdog cancels the fetch when the byte counter stops advancing for
// the full inactivity timeout. It polls rather than re-arming a timer on
// every read so the hot read loop stays timer-free.
func (e *Engine) watchdog(ctx context.Context, cancel context.CancelFunc, progress *atomic.Int64, stalled *atomic.Bool, stop <-chan struct{}) {
	poll := e.cfg.FetchTimeout / 10
	if poll < 5*time.Millisecond {
		poll = 5 * time.Millisecond
	}
	if poll > time.Second {
		poll = time.Second
	}

	t := time.NewTicker(poll)
	defer t.Stop()

	last := progress.Load()
	lastChange := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			cur := progress.Load()
			if cur != last {
				last = cur
				lastChange = time.Now()
				continue
			}
			if time.Since(lastChange) >= e.cfg.FetchTimeout {
				stalled.Store(true)
				cancel()
				return
			}
		}
	}
}
