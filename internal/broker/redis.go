package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is the production Channel: job envelopes travel over a Redis stream
// consumed through a consumer group (at-least-once, acked per entry), and
// results travel back over a per-correlation-id list the caller blocks on
// with BLPOP.
type Redis struct {
	client    *redis.Client
	stream    string
	group     string
	consumer  string
	resultTTL time.Duration

	// Entries idle in any consumer's PEL past reclaimMinIdle are taken over,
	// so jobs claimed by a crashed worker come back into circulation.
	reclaimMinIdle  time.Duration
	reclaimInterval time.Duration
}

// ConnectRedis establishes the broker connection and ensures the consumer
// group exists. The consumer name is the hostname so claims are attributable
// per pod.
func ConnectRedis(ctx context.Context, addr string, db int, stream, group string, resultTTL time.Duration) (*Redis, error) {
	slog.Info("Connecting to Redis broker", "addr", addr, "stream", stream, "group", group)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	// BUSYGROUP means another process created the group first; that is fine.
	if err := client.XGroupCreateMkStream(ctx, stream, group, "$").Err(); err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	consumer, err := os.Hostname()
	if err != nil {
		consumer = uuid.New().String()
		slog.Warn("Failed to get hostname, using UUID as consumer name", "consumer", consumer)
	}

	slog.Info("Successfully connected to Redis broker", "consumer", consumer)

	return &Redis{
		client:    client,
		stream:    stream,
		group:     group,
		consumer:  consumer,
		resultTTL: resultTTL,

		// Three times the default 20s call deadline, so a slow-but-alive
		// consumer is not robbed of an entry it is still working on.
		reclaimMinIdle:  60 * time.Second,
		reclaimInterval: 15 * time.Second,
	}, nil
}

func isBusyGroup(err error) bool {
	var redisErr redis.Error
	return errors.As(err, &redisErr) && len(redisErr.Error()) >= 9 && redisErr.Error()[:9] == "BUSYGROUP"
}

// Publish appends the envelope to the job stream.
func (r *Redis) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{"envelope": string(raw)},
	}).Err(); err != nil {
		return fmt.Errorf("%w: xadd %s: %v", ErrUnavailable, r.stream, err)
	}

	return nil
}

// Consume reads envelopes from the consumer group. Each delivery carries an
// Ack that XACKs the stream entry. Unacked entries stay in their claimer's
// pending list; a periodic XAUTOCLAIM sweep takes over any entry idle past
// the reclaim threshold, so a worker crash cannot strand a job.
func (r *Redis) Consume(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)

		// Zero so the first pass reclaims immediately, draining whatever this
		// consumer's previous incarnation left pending.
		var lastReclaim time.Time

		for {
			if ctx.Err() != nil {
				return
			}

			if time.Since(lastReclaim) >= r.reclaimInterval {
				if !r.reclaim(ctx, out) {
					return
				}
				lastReclaim = time.Now()
			}

			streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    r.group,
				Consumer: r.consumer,
				Streams:  []string{r.stream, ">"},
				Count:    1,
				Block:    5 * time.Second,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue // block window elapsed with nothing to claim
				}
				if ctx.Err() != nil {
					return
				}
				slog.Error("Broker read failed", "stream", r.stream, "error", err)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					delivery, ok := r.decode(ctx, msg)
					if !ok {
						continue
					}

					select {
					case out <- delivery:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

// reclaim scans the group's pending entries and takes over any that have sat
// unacked past the idle threshold, feeding them back through the delivery
// channel. Returns false when the consume loop should stop.
func (r *Redis) reclaim(ctx context.Context, out chan<- Delivery) bool {
	start := "0-0"

	for {
		msgs, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.stream,
			Group:    r.group,
			Consumer: r.consumer,
			MinIdle:  r.reclaimMinIdle,
			Start:    start,
			Count:    16,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			slog.Error("Broker reclaim failed", "stream", r.stream, "error", err)
			return true
		}

		for _, msg := range msgs {
			delivery, ok := r.decode(ctx, msg)
			if !ok {
				continue
			}

			slog.Warn("Reclaimed abandoned job",
				"entry_id", msg.ID,
				"job", delivery.Envelope.Name,
				"correlation_id", delivery.Envelope.CorrelationID,
			)

			select {
			case out <- delivery:
			case <-ctx.Done():
				return false
			}
		}

		if next == "0-0" || len(msgs) == 0 {
			return true
		}
		start = next
	}
}

// decode turns a stream entry into a Delivery. Malformed entries are acked
// away so they cannot wedge the group.
func (r *Redis) decode(ctx context.Context, msg redis.XMessage) (Delivery, bool) {
	entryID := msg.ID

	raw, ok := msg.Values["envelope"].(string)
	if !ok {
		slog.Error("Dropping malformed broker entry", "entry_id", entryID)
		_ = r.client.XAck(ctx, r.stream, r.group, entryID).Err()
		return Delivery{}, false
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		slog.Error("Dropping undecodable broker entry", "entry_id", entryID, "error", err)
		_ = r.client.XAck(ctx, r.stream, r.group, entryID).Err()
		return Delivery{}, false
	}

	return Delivery{
		Envelope: env,
		Ack: func(ctx context.Context) error {
			return r.client.XAck(ctx, r.stream, r.group, entryID).Err()
		},
	}, true
}

// PublishResult pushes the result onto the caller's correlation list. The TTL
// bounds the window an abandoned result (caller already timed out) survives.
func (r *Redis) PublishResult(ctx context.Context, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	key := resultKey(res.CorrelationID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.Expire(ctx, key, r.resultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: rpush %s: %v", ErrUnavailable, key, err)
	}

	return nil
}

// AwaitResult blocks on the correlation list until a result arrives or the
// deadline elapses. BLPOP parks the connection server-side; nothing polls.
func (r *Redis) AwaitResult(ctx context.Context, correlationID string, deadline time.Duration) (Result, error) {
	if deadline <= 0 {
		return Result{}, ErrTimeout
	}

	vals, err := r.client.BLPop(ctx, deadline, resultKey(correlationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("%w: blpop %s: %v", ErrUnavailable, correlationID, err)
	}

	var res Result
	if err := json.Unmarshal([]byte(vals[1]), &res); err != nil {
		return Result{}, fmt.Errorf("failed to decode result for %s: %w", correlationID, err)
	}

	return res, nil
}

// Ping reports broker reachability for health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close(ctx context.Context) error {
	slog.Info("Closing Redis broker connection")
	return r.client.Close()
}

func resultKey(correlationID string) string {
	return "result:" + correlationID
}
