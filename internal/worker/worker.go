// Package worker runs grid decoding on a dedicated goroutine and hands the
// newest result back to the UI loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/internal/decode"
)

// ErrWorkerExited is returned once by Poll after the worker goroutine has
// stopped and every pending result was consumed.
var ErrWorkerExited = errors.New("decode worker exited")

// Request is a grid snapshot owned by the worker once submitted.
type Request struct {
	Seq  uint64
	Grid codes.Grid
}

// Result is either Samples or Failure.
type Result interface {
	Seq() uint64
	result()
}

// Samples carries a stitched buffer at the native rate. Unchanged marks a
// request for the grid that is already playing; PCM is nil then.
type Samples struct {
	Sequence  uint64
	Grid      codes.Grid
	PCM       []float32
	Cached    bool
	Unchanged bool
	Elapsed   time.Duration
}

// Failure carries a non-fatal decode error.
type Failure struct {
	Sequence uint64
	Grid     codes.Grid
	Err      error
}

func (s Samples) Seq() uint64 { return s.Sequence }
func (f Failure) Seq() uint64 { return f.Sequence }
func (Samples) result() {}
func (Failure) result() {}

func (f Failure) Error() string { return f.Err.Error() }

// Options configures a Worker.
type Options struct {
	Logger *zap.Logger
	Model  *decode.Model
	Cache  *decode.Cache // optional
}

// Worker owns one decode goroutine. Submit and Poll never block; both must be
// called from the same goroutine (the UI loop).
type Worker struct {
	logger *zap.Logger
	model  *decode.Model
	cache  *decode.Cache

	in   chan Request
	out  chan Samples
	fail chan Failure
	quit chan struct{}
	done chan struct{}

	seq      atomic.Uint64
	started  atomic.Bool
	stopOnce sync.Once
	reported bool
}

// New prepares a worker; call Start to launch its goroutine.
func New(opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		logger: logger,
		model:  opts.Model,
		cache:  opts.Cache,
		in:     make(chan Request, 1),
		out:    make(chan Samples, 1),
		fail:   make(chan Failure, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start builds a worker and launches it.
func Start(opts Options) *Worker {
	w := New(opts)
	w.Start()
	return w
}

// Start launches the decode goroutine. Later calls are no-ops.
func (w *Worker) Start() {
	if w.started.CompareAndSwap(false, true) {
		go w.run()
	}
}

// Submit hands a snapshot of g to the worker, replacing any request it has
// not picked up yet, and returns the request's sequence number.
func (w *Worker) Submit(g codes.Grid) uint64 {
	req := Request{Seq: w.seq.Add(1), Grid: g.Clone()}
	replace(w.in, req)
	return req.Seq
}

// Poll returns the newest unread result, or nil when there is none.
// Samples and Failures are held in separate slots so a failure never hides
// an unread buffer; when both are pending the Samples comes first.
func (w *Worker) Poll() (Result, error) {
	select {
	case s := <-w.out:
		return s, nil
	default:
	}
	select {
	case f := <-w.fail:
		return f, nil
	default:
	}
	select {
	case <-w.done:
		if !w.reported {
			w.reported = true
			return nil, ErrWorkerExited
		}
	default:
	}
	return nil, nil
}

// Done is closed when the decode goroutine has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Stop signals the goroutine and waits for it. A decode in progress runs to
// completion first.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
	if w.started.Load() {
		<-w.done
	}
}

func (w *Worker) run() {
	defer close(w.done)

	dec, err := w.model.Get()
	if err != nil {
		replace(w.fail, Failure{Err: err})
		return
	}
	stitcher := decode.NewStitcher(dec)
	w.logger.Info("Decode worker started")

	var (
		last    codes.Grid
		hasLast bool
	)
	for {
		select {
		case <-w.quit:
			w.logger.Info("Decode worker stopping")
			return
		case req := <-w.in:
			if hasLast && req.Grid.Equal(last) {
				w.logger.Debug("Grid unchanged, skipping decode", zap.Uint64("seq", req.Seq))
				w.acknowledge(req)
				continue
			}
			switch res := w.process(stitcher, req).(type) {
			case Samples:
				last, hasLast = res.Grid, true
				replace(w.out, res)
			case Failure:
				replace(w.fail, res)
			}
		}
	}
}

func (w *Worker) process(stitcher *decode.Stitcher, req Request) Result {
	if pcm, ok := w.cache.Get(req.Grid); ok {
		return Samples{Sequence: req.Seq, Grid: req.Grid, PCM: pcm, Cached: true}
	}

	start := time.Now()
	// Stop does not cancel an in-flight decode.
	pcm, err := stitcher.Decode(context.Background(), req.Grid)
	elapsed := time.Since(start)
	if err != nil {
		w.logger.Warn("Decode failed",
			zap.Uint64("seq", req.Seq),
			zap.String("grid", req.Grid.String()),
			zap.Error(err))
		return Failure{Sequence: req.Seq, Grid: req.Grid, Err: fmt.Errorf("decode %dx%d grid: %w",
			req.Grid.Layers(), req.Grid.Fragments(), err)}
	}

	w.cache.Add(req.Grid, pcm)
	w.logger.Debug("Decoded grid",
		zap.Uint64("seq", req.Seq),
		zap.Int("samples", len(pcm)),
		zap.Duration("elapsed", elapsed))
	return Samples{Sequence: req.Seq, Grid: req.Grid, PCM: pcm, Elapsed: elapsed}
}

// acknowledge answers a request for the grid that is already current. An
// unread buffer for that grid is re-posted under the new sequence number
// instead of being replaced by an empty acknowledgement.
func (w *Worker) acknowledge(req Request) {
	ack := Samples{Sequence: req.Seq, Grid: req.Grid, Unchanged: true}
	select {
	case pending := <-w.out:
		if !pending.Unchanged {
			pending.Sequence = req.Seq
			ack = pending
		}
	default:
	}
	replace(w.out, ack)
}

// replace performs a latest-wins send on a capacity-1 channel with a single
// sender: an unread value is discarded first.
func replace[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
