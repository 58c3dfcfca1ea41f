package worker

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gstvribs/ng-packagr/dialect"
	"github.com/gstvribs/ng-packagr/pipeline"
)

// Processor is the host side of the job protocol. For every job it lends a
// fresh completion cell and reply channel to a new single-use endpoint,
// blocks until the endpoint signals, then collects the posted reply. One
// worker per job; the endpoint goroutine ends with the job.
type Processor struct {
	renderer *dialect.Renderer
	pipeline *pipeline.Pipeline
	log      *zap.Logger
}

// NewProcessor creates a stylesheet processor over resolved engines.
func NewProcessor(renderer *dialect.Renderer, pipe *pipeline.Pipeline, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{renderer: renderer, pipeline: pipe, log: log}
}

// Process compiles one stylesheet synchronously from the caller's point of
// view. The wait on the completion cell is a true block; by the time it
// returns the reply is guaranteed to be buffered.
func (p *Processor) Process(ctx context.Context, job Job) (*Reply, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	done := NewCell()
	replies := make(chan Reply, 1)

	endpoint := NewEndpoint(p.renderer, p.pipeline, p.log)
	go endpoint.Run(ctx, job, replies, done)

	done.Wait(0)

	reply, ok := <-replies
	if !ok {
		// signaled without posting - fatal protocol bug in the endpoint
		return nil, protocolError("completion signaled with no reply posted")
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &reply, nil
}
