package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Channel for tests and single-process development.
// It keeps the transport contract of the Redis channel: envelopes are claimed
// by exactly one consumer, results are matched by correlation ID, and
// AwaitResult parks the caller until delivery or deadline.
type Memory struct {
	queue chan Envelope
	done  chan struct{}

	// Bounds how long a result with no waiter (the caller already timed out)
	// keeps its slot alive, mirroring the Redis channel's result TTL.
	resultTTL time.Duration

	mu      sync.Mutex
	waiters map[string]chan Result
	closed  bool
}

// NewMemory creates an in-process broker channel with the given queue depth.
func NewMemory(depth int) *Memory {
	return &Memory{
		queue:     make(chan Envelope, depth),
		done:      make(chan struct{}),
		resultTTL: 2 * time.Minute,
		waiters:   make(map[string]chan Result),
	}
}

// Publish enqueues the envelope for one consumer.
func (m *Memory) Publish(ctx context.Context, env Envelope) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: channel closed", ErrUnavailable)
	}

	select {
	case m.queue <- env:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	default:
		return fmt.Errorf("%w: queue full", ErrUnavailable)
	}
}

// Consume returns a stream of deliveries. Acks are no-ops: the in-process
// queue hands each envelope to exactly one consumer and never redelivers.
func (m *Memory) Consume(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case env := <-m.queue:
				d := Delivery{
					Envelope: env,
					Ack:      func(context.Context) error { return nil },
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			case <-ctx.Done():
				return
			case <-m.done:
				return
			}
		}
	}()

	return out, nil
}

// PublishResult resolves the waiter slot for the result's correlation ID. The
// slot is buffered so a result published before anyone waits is not lost; a
// slot this side creates expires after the result TTL, so results nobody ever
// collects do not accumulate.
func (m *Memory) PublishResult(ctx context.Context, res Result) error {
	m.mu.Lock()
	slot, ok := m.waiters[res.CorrelationID]
	if !ok {
		slot = make(chan Result, 1)
		m.waiters[res.CorrelationID] = slot
		correlationID := res.CorrelationID
		time.AfterFunc(m.resultTTL, func() { m.expire(correlationID, slot) })
	}
	m.mu.Unlock()

	select {
	case slot <- res:
	default:
		// A second result for the same correlation ID (redelivered job); the
		// first one wins.
	}
	return nil
}

// AwaitResult parks until the slot resolves or the deadline elapses.
func (m *Memory) AwaitResult(ctx context.Context, correlationID string, deadline time.Duration) (Result, error) {
	slot := m.slot(correlationID)
	defer m.release(correlationID)

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-slot:
		return res, nil
	case <-timer.C:
		return Result{}, ErrTimeout
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// Ping reports channel liveness.
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("%w: channel closed", ErrUnavailable)
	}
	return nil
}

// Close stops all consumers and rejects further publishes.
func (m *Memory) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory) slot(correlationID string) chan Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.waiters[correlationID]
	if !ok {
		slot = make(chan Result, 1)
		m.waiters[correlationID] = slot
	}
	return slot
}

func (m *Memory) release(correlationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.waiters, correlationID)
}

// expire drops an orphaned result slot, but only if the map still holds the
// same slot; a waiter may have consumed and released it already.
func (m *Memory) expire(correlationID string, slot chan Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.waiters[correlationID]; ok && cur == slot {
		delete(m.waiters, correlationID)
	}
}
