package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/task"
)

// Pool runs a fixed number of workers against the broker channel. Each worker
// processes one delivery at a time to completion: look the job up in the
// registry, execute it, publish the result for request-response jobs, then
// ack. Workers share no in-memory state; anything shared lives in the domain
// store behind its own unique constraints.
type Pool struct {
	channel  broker.Channel
	registry *task.Registry
	size     int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a worker pool of the given size.
func NewPool(channel broker.Channel, registry *task.Registry, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		channel:  channel,
		registry: registry,
		size:     size,
	}
}

// Start begins consuming from the broker channel.
func (p *Pool) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	deliveries, err := p.channel.Consume(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("Starting worker pool", "workers", p.size, "jobs", p.registry.Names())

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(runCtx, i, deliveries)
	}

	return nil
}

// Stop cancels the consume loop and waits for in-flight jobs, bounded by ctx.
func (p *Pool) Stop(ctx context.Context) {
	slog.Info("Stopping worker pool")

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker pool stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for in-flight jobs to complete")
	}
}

// worker is one execution context: sequential, independent of its siblings.
func (p *Pool) worker(ctx context.Context, id int, deliveries <-chan broker.Delivery) {
	defer p.wg.Done()

	slog.Debug("Worker started", "worker_id", id)

	for delivery := range deliveries {
		p.process(ctx, id, delivery)
	}

	slog.Debug("Worker stopped", "worker_id", id)
}

// process executes one delivery end to end.
func (p *Pool) process(ctx context.Context, id int, delivery broker.Delivery) {
	env := delivery.Envelope

	slog.Info("Processing job",
		"worker_id", id,
		"job", env.Name,
		"mode", env.Mode,
		"correlation_id", env.CorrelationID,
	)

	start := time.Now()
	result := p.execute(ctx, env)
	duration := time.Since(start)

	switch env.Mode {
	case broker.ModeRequest:
		if err := p.channel.PublishResult(ctx, result); err != nil {
			// The caller will time out; the job itself already ran.
			slog.Error("Failed to publish result",
				"worker_id", id,
				"job", env.Name,
				"correlation_id", env.CorrelationID,
				"error", err,
			)
		}
	default:
		// Fire-and-forget: the outcome is observable only here.
		if result.Status == broker.StatusFailure {
			slog.Warn("Notification job failed",
				"worker_id", id,
				"job", env.Name,
				"error_kind", result.ErrorKind,
				"message", result.Message,
			)
		}
	}

	if err := delivery.Ack(ctx); err != nil {
		slog.Error("Failed to ack delivery",
			"worker_id", id,
			"job", env.Name,
			"error", err,
		)
	}

	slog.Info("Job completed",
		"worker_id", id,
		"job", env.Name,
		"status", result.Status,
		"duration_ms", duration.Milliseconds(),
		"correlation_id", env.CorrelationID,
	)
}

// execute dispatches the envelope and captures every failure, including
// panics, as a structured failure outcome rather than crashing the worker.
func (p *Pool) execute(ctx context.Context, env broker.Envelope) (result broker.Result) {
	result = broker.Result{
		CorrelationID: env.CorrelationID,
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Handler panicked", "job", env.Name, "panic", r)
			result.Status = broker.StatusFailure
			result.ErrorKind = string(task.KindInternal)
			result.Message = fmt.Sprintf("handler panicked: %v", r)
			result.CompletedAt = time.Now().UTC()
		}
	}()

	payload, err := p.registry.Dispatch(ctx, env.Name, env.Args)
	result.CompletedAt = time.Now().UTC()

	if err != nil {
		result.Status = broker.StatusFailure
		if f, ok := task.AsFailure(err); ok {
			result.ErrorKind = string(f.Kind)
			result.Message = f.Message
		} else {
			result.ErrorKind = string(task.KindInternal)
			result.Message = err.Error()
		}
		return result
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		result.Status = broker.StatusFailure
		result.ErrorKind = string(task.KindInternal)
		result.Message = fmt.Sprintf("failed to encode payload: %v", err)
		return result
	}

	result.Status = broker.StatusSuccess
	result.Payload = raw
	return result
}
