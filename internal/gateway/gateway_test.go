package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/advolink/advolink/internal/broker"
	"github.com/advolink/advolink/internal/task"
	"github.com/advolink/advolink/internal/worker"
)

// startWorkers wires an in-process channel to a pool running the given
// registry, mirroring the server/worker split within one test.
func startWorkers(t *testing.T, reg *task.Registry, size int) *broker.Memory {
	t.Helper()
	channel := broker.NewMemory(64)
	pool := worker.NewPool(channel, reg, size)
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

func TestCallRoundTripPayload(t *testing.T) {
	reg := task.NewRegistry()
	_ = reg.Register("echo.args", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		var in map[string]interface{}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, task.Invalid("bad args: %v", err)
		}
		return in, nil
	})
	channel := startWorkers(t, reg, 2)
	gw := New(channel)

	payload, err := gw.Call(context.Background(), "echo.args", map[string]string{"client_id": "c42"}, 2*time.Second)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var out map[string]string
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if out["client_id"] != "c42" {
		t.Fatalf("payload mangled: %s", payload)
	}
}

func TestCallSurfacesHandlerFailure(t *testing.T) {
	reg := task.NewRegistry()
	_ = reg.Register("cases.get_detail", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		return nil, task.NotFound("case abc not found")
	})
	channel := startWorkers(t, reg, 1)
	gw := New(channel)

	_, err := gw.Call(context.Background(), "cases.get_detail", map[string]string{"case_id": "abc"}, 2*time.Second)
	f, ok := task.AsFailure(err)
	if !ok {
		t.Fatalf("want Failure, got %v", err)
	}
	if f.Kind != task.KindNotFound || f.Message != "case abc not found" {
		t.Fatalf("unexpected failure %+v", f)
	}
}

func TestCallTimesOutWithoutWorker(t *testing.T) {
	channel := broker.NewMemory(4)
	t.Cleanup(func() { _ = channel.Close(context.Background()) })
	gw := New(channel)

	_, err := gw.Call(context.Background(), "cases.get_detail", nil, 50*time.Millisecond)
	if !errors.Is(err, broker.ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
}

func TestCallPublishFailureReturnsImmediately(t *testing.T) {
	channel := broker.NewMemory(1)
	_ = channel.Close(context.Background())
	gw := New(channel)

	start := time.Now()
	_, err := gw.Call(context.Background(), "cases.get_detail", nil, 5*time.Second)
	if !errors.Is(err, broker.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("waited on result despite publish failure")
	}
}

func TestConcurrentCallersGetTheirOwnResults(t *testing.T) {
	reg := task.NewRegistry()
	_ = reg.Register("echo.id", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		var in struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, task.Invalid("bad args: %v", err)
		}
		return in, nil
	})
	channel := startWorkers(t, reg, 4)
	gw := New(channel)

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			payload, err := gw.Call(context.Background(), "echo.id", map[string]int{"id": id}, 3*time.Second)
			if err != nil {
				errs <- fmt.Errorf("caller %d: %w", id, err)
				return
			}
			var out struct {
				ID int `json:"id"`
			}
			if err := json.Unmarshal(payload, &out); err != nil {
				errs <- fmt.Errorf("caller %d decode: %w", id, err)
				return
			}
			if out.ID != id {
				errs <- fmt.Errorf("caller %d got result for %d", id, out.ID)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNotifyReturnsWithoutWaiting(t *testing.T) {
	executed := make(chan string, 1)
	reg := task.NewRegistry()
	_ = reg.Register("cases.notify_client", func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		executed <- string(args)
		return nil, nil
	})
	channel := startWorkers(t, reg, 1)
	gw := New(channel)

	start := time.Now()
	gw.Notify("cases.notify_client", map[string]string{"case_id": "c1"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("Notify blocked")
	}

	select {
	case args := <-executed:
		var in map[string]string
		if err := json.Unmarshal([]byte(args), &in); err != nil || in["case_id"] != "c1" {
			t.Fatalf("handler saw %s", args)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never executed")
	}
}
