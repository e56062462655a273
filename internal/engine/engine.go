// Package engine implements the parallel ranged-fetch pipeline and
// ordered-reassembly core: many concurrent byte-range fetches feeding a
// single sequencer that emits the object to a non-seekable sink in
// strict offset order, under a concurrency cap and a memory cap.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/chanzuckerberg/s3mi/internal/creds"
	"github.com/chanzuckerberg/s3mi/internal/logging"
	"github.com/chanzuckerberg/s3mi/internal/metrics"
)

// Version information (set via ldflags)
var (
	Version = "v0.9.0"
	GitSHA  = "unknown"
)

// Source issues one inclusive byte-range GET per call, using the given
// credential snapshot for that call only.
type Source interface {
	OpenRange(ctx context.Context, snap creds.Snapshot, first, last int64) (io.ReadCloser, error)
}

// Config bounds one transfer.
type Config struct {
	// SegmentSize is the number of bytes per range request.
	SegmentSize int64

	// Concurrency caps in-flight fetches.
	Concurrency int

	// MaxBuffered caps segments resident in memory; worst-case resident
	// bytes are MaxBuffered * SegmentSize.
	MaxBuffered int

	// FetchTimeout bounds per-fetch inactivity, the supervisor's
	// enqueue wait, and the sequencer's wait on any one segment.
	FetchTimeout time.Duration
}

// Job identifies the object to transfer. Size is looked up once by the
// caller and passed in; the engine never asks the store for metadata.
type Job struct {
	Bucket string
	Key    string
	Size   int64
}

// Engine drives one transfer. It is not safe for concurrent Runs; the
// caller runs one transfer per engine instance.
type Engine struct {
	src   Source
	creds *creds.Cache
	cfg   Config

	tally *tally
	gate  *semaphore.Weighted
	pool  *bufferPool

	transferID string
	log        *slog.Logger
}

// New creates an engine. The configuration must already be validated and
// auto-tuned; all caps must be positive.
func New(src Source, cache *creds.Cache, cfg Config) (*Engine, error) {
	if cfg.SegmentSize <= 0 {
		return nil, fmt.Errorf("engine: segment size must be positive, got %d", cfg.SegmentSize)
	}
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("engine: concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.MaxBuffered <= 0 {
		return nil, fmt.Errorf("engine: max buffered must be positive, got %d", cfg.MaxBuffered)
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("engine: fetch timeout must be positive, got %s", cfg.FetchTimeout)
	}

	id := logging.NewTransferID()
	return &Engine{
		src:        src,
		creds:      cache,
		cfg:        cfg,
		transferID: id,
		log:        logging.Component("engine").With("transfer_id", id),
	}, nil
}

// Run transfers the whole object to the sink. It returns nil only after
// all job.Size bytes were delivered in order; any fault aborts the run
// and surfaces as a non-nil error. Nothing is retried: one run is one
// attempt.
func (e *Engine) Run(ctx context.Context, job Job, sink io.Writer) error {
	if job.Size < 0 {
		return fmt.Errorf("engine: negative object size %d", job.Size)
	}
	if job.Size == 0 {
		e.log.Info("object is empty, nothing to transfer", "bucket", job.Bucket, "key", job.Key)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Never allocate more than the object holds: a small object gets
	// one segment sized to it, not a full-size slab.
	segSize := e.cfg.SegmentSize
	if segSize > job.Size {
		segSize = job.Size
	}

	e.tally = &tally{}
	e.gate = semaphore.NewWeighted(int64(e.cfg.Concurrency))
	e.pool = newBufferPool(e.cfg.MaxBuffered, segSize)

	p := newPlanner(job.Size, segSize)
	e.log.Info("starting transfer",
		"bucket", job.Bucket,
		"key", job.Key,
		"size", job.Size,
		"segments", p.count(),
		"segment_size", segSize,
		"concurrency", e.cfg.Concurrency,
		"max_buffered", e.cfg.MaxBuffered,
	)

	queue := newOrderedQueue(e.cfg.MaxBuffered)
	seqDone := make(chan error, 1)
	go func() {
		seqDone <- e.sequence(queue.ch, sink)
	}()

	e.supervise(ctx, p, queue)
	queue.close()
	<-seqDone

	if n := e.tally.count(); n > 0 {
		first := e.tally.err()
		e.log.Error("transfer aborted", "faults", n, "error", first)
		return fmt.Errorf("transfer of %s/%s aborted after %d fault(s): %w",
			job.Bucket, job.Key, n, first)
	}

	e.log.Info("transfer complete", "bytes", job.Size, "segments", p.count())
	return nil
}

// supervise walks the plan, spawning one fetch worker per segment under
// gate and pool backpressure and handing segments to the sequencer in
// order. It stops issuing work on the first fault; all faults it hits
// itself are recorded in the tally before returning.
func (e *Engine) supervise(ctx context.Context, p *planner, queue *orderedQueue) {
	for {
		r, ok := p.next()
		if !ok {
			return
		}

		if e.tally.aborted() {
			e.log.Warn("stopping supervisor: transfer aborted", "next_segment", r.index)
			return
		}

		snap := e.creds.Current(ctx)

		if err := e.gate.Acquire(ctx, 1); err != nil {
			e.tally.fault(fmt.Errorf("acquire fetch slot for segment %d: %w", r.index, err))
			return
		}

		buf, err := e.pool.acquire(ctx, e.cfg.FetchTimeout)
		if err != nil {
			e.gate.Release(1)
			e.tally.fault(err)
			return
		}

		fctx, fcancel := context.WithCancel(ctx)
		seg := &segment{
			index:  r.index,
			first:  r.first,
			last:   r.last,
			buf:    buf,
			done:   make(chan struct{}),
			cancel: fcancel,
		}

		if m := metrics.Get(); m != nil {
			m.BufferedSegments.Inc()
		}
		go e.fetchSegment(fctx, seg, snap)

		if err := queue.enqueue(ctx, seg, e.cfg.FetchTimeout); err != nil {
			// The worker owns the buffer until done; kill it, then
			// reclaim here since the sequencer will never see it.
			fcancel()
			<-seg.done
			e.reclaim(seg)
			e.tally.fault(err)
			return
		}
	}
}
