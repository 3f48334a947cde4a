// Package lock serializes commands per aggregate. Transitions read-then-write
// the full reservation, so concurrent commands on the same reservation must
// be mutually exclusive; commands on different reservations run in parallel.
package lock

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "conveyo/pkg/domain-errors"
)

// Guard runs fn while holding an exclusive lock for the given key.
type Guard interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Sharded mutexes keep contention low without one mutex per live aggregate.
const numShards = 128

// defaultTimeout bounds how long a command may hold a shard.
const defaultTimeout = 5 * time.Second

// ShardedGuard distributes keys across a fixed set of mutexes by hash.
// Two different reservations may share a shard; that costs throughput,
// never correctness.
type ShardedGuard struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

// NewSharded returns a ShardedGuard. A zero timeout falls back to the default.
func NewSharded(timeout time.Duration) *ShardedGuard {
	return &ShardedGuard{timeout: timeout}
}

func (g *ShardedGuard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "command aborted: context cancelled")
	}

	timeout := g.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := shardFor(key)
	g.shards[shard].Lock()
	defer g.shards[shard].Unlock()

	// Re-check after acquiring: the wait may have outlived the caller.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "command aborted: context cancelled")
	}

	return fn(ctx)
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % numShards
}
