package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMemoryPublishConsumeAck(t *testing.T) {
	m := NewMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := m.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	env := Envelope{Name: "cases.get_detail", Args: json.RawMessage(`{}`), Mode: ModeRequest, CorrelationID: "c1"}
	if err := m.Publish(ctx, env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case d := <-deliveries:
		if d.Envelope.Name != "cases.get_detail" || d.Envelope.CorrelationID != "c1" {
			t.Fatalf("unexpected envelope %+v", d.Envelope)
		}
		if err := d.Ack(ctx); err != nil {
			t.Fatalf("ack: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestMemoryAwaitResultTimesOut(t *testing.T) {
	m := NewMemory(1)

	start := time.Now()
	_, err := m.AwaitResult(context.Background(), "nobody", 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatal("returned before deadline")
	}
}

func TestMemoryResultBeforeWaitIsNotLost(t *testing.T) {
	m := NewMemory(1)
	ctx := context.Background()

	res := Result{CorrelationID: "early", Status: StatusSuccess, Payload: json.RawMessage(`{"n":1}`)}
	if err := m.PublishResult(ctx, res); err != nil {
		t.Fatalf("publish result: %v", err)
	}

	got, err := m.AwaitResult(ctx, "early", time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got.Status != StatusSuccess || string(got.Payload) != `{"n":1}` {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestMemoryCorrelationIsolation(t *testing.T) {
	m := NewMemory(1)
	ctx := context.Background()

	type outcome struct {
		res Result
		err error
	}
	outA := make(chan outcome, 1)
	outB := make(chan outcome, 1)
	go func() {
		res, err := m.AwaitResult(ctx, "a", time.Second)
		outA <- outcome{res, err}
	}()
	go func() {
		res, err := m.AwaitResult(ctx, "b", time.Second)
		outB <- outcome{res, err}
	}()

	_ = m.PublishResult(ctx, Result{CorrelationID: "b", Status: StatusSuccess, Payload: json.RawMessage(`"B"`)})
	_ = m.PublishResult(ctx, Result{CorrelationID: "a", Status: StatusSuccess, Payload: json.RawMessage(`"A"`)})

	a := <-outA
	b := <-outB
	if a.err != nil || b.err != nil {
		t.Fatalf("await errors: %v / %v", a.err, b.err)
	}
	if string(a.res.Payload) != `"A"` || string(b.res.Payload) != `"B"` {
		t.Fatalf("results crossed: a=%s b=%s", a.res.Payload, b.res.Payload)
	}
}

func TestMemoryDuplicateResultFirstWins(t *testing.T) {
	m := NewMemory(1)
	ctx := context.Background()

	_ = m.PublishResult(ctx, Result{CorrelationID: "dup", Status: StatusSuccess, Payload: json.RawMessage(`1`)})
	_ = m.PublishResult(ctx, Result{CorrelationID: "dup", Status: StatusSuccess, Payload: json.RawMessage(`2`)})

	got, err := m.AwaitResult(ctx, "dup", time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if string(got.Payload) != `1` {
		t.Fatalf("want first result, got %s", got.Payload)
	}
}

func TestMemoryOrphanedResultExpires(t *testing.T) {
	m := NewMemory(1)
	m.resultTTL = 20 * time.Millisecond
	ctx := context.Background()

	// The caller gives up before the result lands.
	if _, err := m.AwaitResult(ctx, "late", 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if err := m.PublishResult(ctx, Result{CorrelationID: "late", Status: StatusSuccess}); err != nil {
		t.Fatalf("publish result: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		m.mu.Lock()
		n := len(m.waiters)
		m.mu.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("orphaned result slot never expired, %d slots remain", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryPublishAfterClose(t *testing.T) {
	m := NewMemory(1)
	ctx := context.Background()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	err := m.Publish(ctx, Envelope{Name: "x", Mode: ModeNotify})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if err := m.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ping after close: %v", err)
	}
}

func TestMemoryPublishQueueFull(t *testing.T) {
	m := NewMemory(1)
	ctx := context.Background()

	if err := m.Publish(ctx, Envelope{Name: "one", Mode: ModeNotify}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	err := m.Publish(ctx, Envelope{Name: "two", Mode: ModeNotify})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable on full queue, got %v", err)
	}
}
