package worker

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/dialect"
	"github.com/gstvribs/ng-packagr/pipeline"
)

// State of the endpoint's job machine. Transitions are strictly linear; on
// render or optimize failure the machine moves to StateErrored instead of
// advancing, and the reply/signal/close sequence still runs.
type State int32

const (
	StateIdle State = iota
	StateRendering
	StateOptimizing
	StatePosting
	StateSignaled
	StateClosed
	StateErrored
)

var stateNames = []string{"idle", "rendering", "optimizing", "posting", "signaled", "closed", "errored"}

func (s State) String() string {
	if s < StateIdle || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Endpoint executes exactly one job and is never reused. It owns the reply
// channel endpoint (closing it after signaling) but only borrows the
// completion cell.
type Endpoint struct {
	renderer *dialect.Renderer
	pipeline *pipeline.Pipeline
	log      *zap.Logger

	state atomic.Int32
}

// NewEndpoint creates a single-use job endpoint over the given renderer and
// optimization pipeline.
func NewEndpoint(renderer *dialect.Renderer, pipe *pipeline.Pipeline, log *zap.Logger) *Endpoint {
	if log == nil {
		log = zap.NewNop()
	}
	return &Endpoint{renderer: renderer, pipeline: pipe, log: log.Named("job")}
}

// State returns the current protocol state.
func (e *Endpoint) State() State {
	return State(e.state.Load())
}

func (e *Endpoint) setState(s State) {
	e.state.Store(int32(s))
}

// Run executes the job to completion or failure: render, optimize, post the
// reply, increment the completion cell, close the reply channel. Every path
// through Run - success, render/optimize failure, protocol violation - posts
// exactly one reply and increments the cell exactly once; a path that skips
// the signal would leave the host blocked forever.
//
// The reply channel must be allocated by the host with capacity for one
// reply. There is no cancellation once rendering has started; ctx only stops
// work between phases and inside collaborating engines.
func (e *Endpoint) Run(ctx context.Context, job Job, replies chan<- Reply, done *Cell) {
	log := e.log.With(zap.Stringer("id", job.ID), zap.String("file", job.FilePath))

	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRendering)) {
		log.Error("Endpoint reused, one job per worker lifetime")
		e.conclude(Reply{Err: protocolError("endpoint already used (state %s)", e.State())}, replies, done, log)
		return
	}

	if err := validate(job); err != nil {
		log.Error("Malformed job message", zap.Error(err))
		e.setState(StateErrored)
		e.conclude(Reply{Err: err}, replies, done, log)
		return
	}

	log.Info("Job starting")
	start := time.Now()

	rendered, err := e.renderer.Render(ctx, job.FilePath, job.BasePath, job.StyleIncludePaths)
	if err != nil {
		log.Error("Render failed", zap.Error(err))
		e.setState(StateErrored)
		e.conclude(Reply{Err: err}, replies, done, log)
		return
	}

	e.setState(StateOptimizing)
	result, err := e.pipeline.Optimize(ctx, job.FilePath, rendered, job.BrowserslistData, job.CSSURL)
	if err != nil {
		log.Error("Optimization failed", zap.Error(err))
		e.setState(StateErrored)
		e.conclude(Reply{Err: err}, replies, done, log)
		return
	}

	e.setState(StatePosting)
	log.Info("Job completed", zap.Duration("elapsed", time.Since(start)), zap.Int("warnings", len(result.Warnings)))
	e.conclude(Reply{CSS: result.CSS, Warnings: result.Warnings}, replies, done, log)
}

// conclude performs the two-phase commit shared by all exit paths: publish
// the reply, then publish completion. The order must never flip - a waiter
// woken by the cell is entitled to find the reply already buffered. The
// errored terminal state is preserved; otherwise the machine moves through
// Signaled to Closed.
func (e *Endpoint) conclude(reply Reply, replies chan<- Reply, done *Cell, log *zap.Logger) {
	select {
	case replies <- reply:
	default:
		// host broke the transport contract (no buffer space); drop the
		// reply rather than deadlock, the waiter is still woken below
		log.Error("Reply channel not writable, dropping reply")
	}

	if e.State() != StateErrored {
		e.setState(StateSignaled)
	}
	done.Add(1)

	close(replies)
	if e.State() != StateErrored {
		e.setState(StateClosed)
	}
}

func validate(job Job) error {
	if len(job.FilePath) == 0 {
		return protocolError("job without file path")
	}
	if !filepath.IsAbs(job.FilePath) {
		return protocolError("job file path is not absolute (%s)", job.FilePath)
	}
	return nil
}
