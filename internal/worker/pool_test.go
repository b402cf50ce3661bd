package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/task"
)

func startPool(t *testing.T, reg *task.Registry, size int) *broker.Memory {
	t.Helper()
	channel := broker.NewMemory(16)
	pool := NewPool(channel, reg, size)
	ctx, cancel := context.WithCancel(context.Background())
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("start pool: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		pool.Stop(stopCtx)
		_ = channel.Close(context.Background())
	})
	return channel
}

func publishRequest(t *testing.T, channel *broker.Memory, name, corrID string, args string) {
	t.Helper()
	err := channel.Publish(context.Background(), broker.Envelope{
		Name:          name,
		Args:          json.RawMessage(args),
		CorrelationID: corrID,
		Mode:          broker.ModeRequest,
		EnqueuedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestPoolPublishesSuccessResult(t *testing.T) {
	reg := task.NewRegistry()
	_ = reg.Register("ok.job", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		return map[string]bool{"done": true}, nil
	})
	channel := startPool(t, reg, 1)

	publishRequest(t, channel, "ok.job", "r1", `{}`)
	res, err := channel.AwaitResult(context.Background(), "r1", 2*time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if res.Status != broker.StatusSuccess {
		t.Fatalf("want success, got %+v", res)
	}
	if string(res.Payload) != `{"done":true}` {
		t.Fatalf("payload %s", res.Payload)
	}
	if res.CompletedAt.IsZero() {
		t.Fatal("CompletedAt not set")
	}
}

func TestPoolMapsFailureKinds(t *testing.T) {
	reg := task.NewRegistry()
	_ = reg.Register("conflict.job", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		return nil, task.Conflict("booking already exists")
	})
	channel := startPool(t, reg, 1)

	publishRequest(t, channel, "conflict.job", "r2", `{}`)
	res, err := channel.AwaitResult(context.Background(), "r2", 2*time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if res.Status != broker.StatusFailure {
		t.Fatalf("want failure, got %+v", res)
	}
	if res.ErrorKind != string(task.KindConflict) || res.Message != "booking already exists" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPoolUnknownJobIsInternalFailure(t *testing.T) {
	channel := startPool(t, task.NewRegistry(), 1)

	publishRequest(t, channel, "no.such.job", "r3", `{}`)
	res, err := channel.AwaitResult(context.Background(), "r3", 2*time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if res.Status != broker.StatusFailure || res.ErrorKind != string(task.KindInternal) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPoolSurvivesHandlerPanic(t *testing.T) {
	reg := task.NewRegistry()
	_ = reg.Register("panic.job", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		panic("boom")
	})
	_ = reg.Register("ok.job", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		return "fine", nil
	})
	channel := startPool(t, reg, 1)

	publishRequest(t, channel, "panic.job", "r4", `{}`)
	res, err := channel.AwaitResult(context.Background(), "r4", 2*time.Second)
	if err != nil {
		t.Fatalf("await panic result: %v", err)
	}
	if res.Status != broker.StatusFailure || res.ErrorKind != string(task.KindInternal) {
		t.Fatalf("unexpected panic result %+v", res)
	}

	// The worker that recovered keeps serving.
	publishRequest(t, channel, "ok.job", "r5", `{}`)
	res, err = channel.AwaitResult(context.Background(), "r5", 2*time.Second)
	if err != nil || res.Status != broker.StatusSuccess {
		t.Fatalf("worker dead after panic: %v %+v", err, res)
	}
}

func TestPoolDiscardsNotifyOutcome(t *testing.T) {
	executed := make(chan struct{}, 1)
	reg := task.NewRegistry()
	_ = reg.Register("notify.job", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		executed <- struct{}{}
		return map[string]string{"ignored": "yes"}, nil
	})
	channel := startPool(t, reg, 1)

	err := channel.Publish(context.Background(), broker.Envelope{
		Name:       "notify.job",
		Args:       json.RawMessage(`{}`),
		Mode:       broker.ModeNotify,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-executed:
	case <-time.After(2 * time.Second):
		t.Fatal("notify job never ran")
	}

	// No result is published for fire-and-forget jobs.
	if _, err := channel.AwaitResult(context.Background(), "", 100*time.Millisecond); err == nil {
		t.Fatal("unexpected result for notify job")
	}
}
