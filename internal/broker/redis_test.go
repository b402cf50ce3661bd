package broker

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Redis channel tests need a live server; set TEST_REDIS_ADDR to run them.
func connectTestRedis(t *testing.T, stream string) *Redis {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	r, err := ConnectRedis(context.Background(), addr, 0, stream, "workers", time.Minute)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestRedisRoundTrip(t *testing.T) {
	stream := "test:" + uuid.New().String()
	r := connectTestRedis(t, stream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := r.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	env := Envelope{
		Name:          "cases.get_detail",
		Args:          json.RawMessage(`{"case_id":"abc"}`),
		CorrelationID: "rt-1",
		Mode:          ModeRequest,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := r.Publish(ctx, env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case d := <-deliveries:
		if d.Envelope.Name != env.Name || d.Envelope.CorrelationID != "rt-1" {
			t.Fatalf("unexpected envelope %+v", d.Envelope)
		}
		if err := d.Ack(ctx); err != nil {
			t.Fatalf("ack: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no delivery")
	}

	res := Result{CorrelationID: "rt-1", Status: StatusSuccess, Payload: json.RawMessage(`{"ok":true}`)}
	if err := r.PublishResult(ctx, res); err != nil {
		t.Fatalf("publish result: %v", err)
	}
	got, err := r.AwaitResult(ctx, "rt-1", 5*time.Second)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if string(got.Payload) != `{"ok":true}` {
		t.Fatalf("payload %s", got.Payload)
	}
}

func TestRedisReclaimsAbandonedDelivery(t *testing.T) {
	stream := "test:" + uuid.New().String()
	crashed := connectTestRedis(t, stream)

	// Claim an entry and die without acking it.
	claimCtx, claimCancel := context.WithCancel(context.Background())
	deliveries, err := crashed.Consume(claimCtx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	env := Envelope{
		Name:          "bookings.create",
		Args:          json.RawMessage(`{}`),
		CorrelationID: "orphan-1",
		Mode:          ModeRequest,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := crashed.Publish(claimCtx, env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case d := <-deliveries:
		if d.Envelope.CorrelationID != "orphan-1" {
			t.Fatalf("unexpected envelope %+v", d.Envelope)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("no initial delivery")
	}
	claimCancel()

	// A surviving consumer with a short idle threshold must pick the entry up.
	survivor := connectTestRedis(t, stream)
	survivor.reclaimMinIdle = 50 * time.Millisecond
	survivor.reclaimInterval = 10 * time.Millisecond

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reclaimed, err := survivor.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	select {
	case d := <-reclaimed:
		if d.Envelope.Name != "bookings.create" || d.Envelope.CorrelationID != "orphan-1" {
			t.Fatalf("unexpected envelope %+v", d.Envelope)
		}
		if err := d.Ack(ctx); err != nil {
			t.Fatalf("ack: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("abandoned delivery was never reclaimed")
	}
}
