// Package journal pushes room-event records onto a Redis list for the
// historian to drain. The authority treats it as strictly best-effort: when
// Redis is absent or slow, gameplay is unaffected.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the authority publishes to and the
// historian consumes from.
const DefaultQueueName = "codewords_events"

// Rdb is the global Redis client. Nil until Connect succeeds; publishing
// with a nil client is a no-op.
var Rdb *redis.Client

// Connect initializes the global client and verifies the connection.
func Connect(addr string, db int) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return nil
}

// Enabled reports whether a journal backend is connected.
func Enabled() bool {
	return Rdb != nil
}

// Publish serializes a record and appends it to the queue.
func Publish(ctx context.Context, queue string, record interface{}) error {
	if Rdb == nil {
		return nil
	}
	if queue == "" {
		queue = DefaultQueueName
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}
	if err := Rdb.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("rpush to %q: %w", queue, err)
	}
	return nil
}
