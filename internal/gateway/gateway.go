package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/task"
	"github.com/google/uuid"
)

// Gateway is the caller side of the task-queue RPC bridge. Call publishes a
// request-response envelope and blocks for the matching result; Notify
// publishes a fire-and-forget envelope and returns immediately. One Gateway
// wraps the process-wide broker channel and is safe for concurrent use.
type Gateway struct {
	channel broker.Channel
}

// New creates a gateway over the given broker channel.
func New(channel broker.Channel) *Gateway {
	return &Gateway{channel: channel}
}

// Call enqueues the named job and parks the caller until a result matching
// the generated correlation ID arrives or the deadline elapses.
//
// Outcomes: the success payload is returned as delivered; a handler failure
// comes back as *task.Failure; a publish failure surfaces immediately as
// broker.ErrUnavailable without waiting; an elapsed deadline surfaces as
// broker.ErrTimeout, which the caller must treat as "may or may not have
// completed". The gateway never retries on its own.
func (g *Gateway) Call(ctx context.Context, name string, args interface{}, deadline time.Duration) (json.RawMessage, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments for %s: %w", name, err)
	}

	correlationID := uuid.New().String()
	env := broker.Envelope{
		Name:          name,
		Args:          raw,
		CorrelationID: correlationID,
		Mode:          broker.ModeRequest,
		EnqueuedAt:    time.Now().UTC(),
	}

	if err := g.channel.Publish(ctx, env); err != nil {
		slog.Error("Failed to publish job",
			"job", name,
			"correlation_id", correlationID,
			"error", err,
		)
		return nil, fmt.Errorf("publish %s: %w", name, err)
	}

	slog.Debug("Job published, awaiting result",
		"job", name,
		"correlation_id", correlationID,
		"deadline", deadline,
	)

	res, err := g.channel.AwaitResult(ctx, correlationID, deadline)
	if err != nil {
		if errors.Is(err, broker.ErrTimeout) {
			slog.Warn("Job timed out; it may still execute",
				"job", name,
				"correlation_id", correlationID,
				"deadline", deadline,
			)
		}
		return nil, fmt.Errorf("await %s: %w", name, err)
	}

	if res.Status == broker.StatusFailure {
		return nil, &task.Failure{
			Kind:    task.Kind(res.ErrorKind),
			Message: res.Message,
		}
	}

	return res.Payload, nil
}

// Notify publishes a fire-and-forget job and returns without waiting for
// delivery or execution. Publish failures are logged, never surfaced: a
// best-effort notice is not worth failing the caller over.
func (g *Gateway) Notify(name string, args interface{}) {
	raw, err := json.Marshal(args)
	if err != nil {
		slog.Error("Failed to encode notification arguments", "job", name, "error", err)
		return
	}

	env := broker.Envelope{
		Name:       name,
		Args:       raw,
		Mode:       broker.ModeNotify,
		EnqueuedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := g.channel.Publish(ctx, env); err != nil {
			slog.Error("Failed to publish notification", "job", name, "error", err)
			return
		}

		slog.Debug("Notification published", "job", name)
	}()
}
