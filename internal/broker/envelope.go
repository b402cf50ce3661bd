package broker

import (
	"context"
	"encoding/json"
	"time"
)

// Mode selects how a job's outcome travels back to the caller.
type Mode string

const (
	// ModeRequest jobs carry a correlation ID; the caller blocks for a Result.
	ModeRequest Mode = "request"
	// ModeNotify jobs are fire-and-forget; the outcome is logged and discarded.
	ModeNotify Mode = "notify"
)

// Envelope is the wire form of a job handed to the broker. The job name is
// stable across versions: renaming it breaks all in-flight callers.
type Envelope struct {
	Name          string          `json:"name"`
	Args          json.RawMessage `json:"args"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Mode          Mode            `json:"mode"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
}

// Result statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Result is the outcome of one request-response job, keyed by correlation ID.
// A request envelope yields at most one Result; a worker crash before publish
// yields none and the caller times out.
type Result struct {
	CorrelationID string          `json:"correlation_id"`
	Status        string          `json:"status"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ErrorKind     string          `json:"error_kind,omitempty"`
	Message       string          `json:"message,omitempty"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// Delivery is one envelope claimed by a worker. Ack must be called after
// processing; an unacked delivery is redelivered, so handlers see at-least-once
// execution.
type Delivery struct {
	Envelope Envelope
	Ack      func(ctx context.Context) error
}

// Channel is the transport carrying job envelopes from callers to workers and
// results back. Implementations provide at-least-once delivery with per-job
// acknowledgement; they do not provide exactly-once processing or ordering
// between independently published jobs.
type Channel interface {
	// Publish enqueues an envelope for delivery to one available worker.
	Publish(ctx context.Context, env Envelope) error

	// Consume returns a stream of deliveries. The stream closes when ctx is
	// cancelled or the channel is closed.
	Consume(ctx context.Context) (<-chan Delivery, error)

	// PublishResult makes a result available to the waiter registered under
	// its correlation ID.
	PublishResult(ctx context.Context, res Result) error

	// AwaitResult parks the caller until a result matching correlationID
	// arrives or the deadline elapses, returning ErrTimeout in the latter
	// case. It never busy-polls.
	AwaitResult(ctx context.Context, correlationID string, deadline time.Duration) (Result, error)

	// Close drains and releases the transport.
	Close(ctx context.Context) error
}
