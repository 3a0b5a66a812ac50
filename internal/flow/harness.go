package flow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapse-ai/research-platform/internal/model"
	"github.com/synapse-ai/research-platform/internal/router"
	"github.com/synapse-ai/research-platform/pkg/logger"
)

// FailureKind tags why a flow run failed.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureClassification FailureKind = "classification"
	FailureCollaborator   FailureKind = "collaborator"
	FailureTimeout        FailureKind = "timeout"
	FailureCanceled       FailureKind = "canceled"
	FailureInternal       FailureKind = "internal"
)

// Outcome is the tagged result of a submitted run: either a terminal state or
// a structured failure. Nothing above the harness sees an unstructured crash.
type Outcome struct {
	State *RunState
	Kind  FailureKind
	Err   error
}

// Success reports whether the run reached a terminal response.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Runner executes one flow run.
type Runner interface {
	Run(ctx context.Context, userMessage string, prior model.History) (*RunState, error)
}

type job struct {
	ctx     context.Context
	message string
	history model.History
	out     chan Outcome
}

// Harness runs flow invocations on a bounded worker pool so one slow
// collaborator call cannot block acceptance of new requests. Each run gets an
// explicit deadline; submission blocks the caller until the worker finishes.
type Harness struct {
	runner  Runner
	timeout time.Duration
	jobs    chan job
	wg      sync.WaitGroup
	once    sync.Once
	logger  *logger.Logger
}

// NewHarness creates a harness and starts its workers.
func NewHarness(runner Runner, workers int, timeout time.Duration, log *logger.Logger) *Harness {
	if workers <= 0 {
		workers = 4
	}

	h := &Harness{
		runner:  runner,
		timeout: timeout,
		jobs:    make(chan job),
		logger:  log,
	}

	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go h.worker()
	}

	log.Info("execution harness started",
		zap.Int("workers", workers),
		zap.Duration("run_timeout", timeout),
	)
	return h
}

// Submit hands the message to a worker and blocks until the run completes.
// Cancelling the context before a worker picks the job up abandons the
// submission; once a worker has it, the context still bounds the run itself.
func (h *Harness) Submit(ctx context.Context, message string, history model.History) Outcome {
	j := job{
		ctx:     ctx,
		message: message,
		history: history,
		out:     make(chan Outcome, 1),
	}

	select {
	case h.jobs <- j:
	case <-ctx.Done():
		return failure(nil, ctx.Err())
	}

	return <-j.out
}

// Close stops accepting work and waits for in-flight runs to finish.
func (h *Harness) Close() {
	h.once.Do(func() {
		close(h.jobs)
	})
	h.wg.Wait()
}

func (h *Harness) worker() {
	defer h.wg.Done()
	for j := range h.jobs {
		j.out <- h.execute(j)
	}
}

// execute runs one job with a deadline, converting every error and panic into
// a tagged failure at the worker boundary.
func (h *Harness) execute(j job) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("flow run panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			out = Outcome{
				Kind: FailureInternal,
				Err:  fmt.Errorf("flow run panicked: %v", r),
			}
		}
	}()

	runCtx := j.ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(j.ctx, h.timeout)
		defer cancel()
	}

	state, err := h.runner.Run(runCtx, j.message, j.history)
	if err != nil {
		return failure(state, err)
	}
	return Outcome{State: state}
}

// failure classifies an error into a failure kind. Deadline expiry is
// reported distinctly from other collaborator failures.
func failure(state *RunState, err error) Outcome {
	kind := FailureCollaborator
	switch {
	case errors.Is(err, router.ErrClassification):
		kind = FailureClassification
	case errors.Is(err, context.DeadlineExceeded):
		kind = FailureTimeout
	case errors.Is(err, context.Canceled):
		kind = FailureCanceled
	}
	return Outcome{State: state, Kind: kind, Err: err}
}
