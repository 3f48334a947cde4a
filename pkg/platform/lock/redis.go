package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "conveyo/pkg/domain-errors"
)

// RedisGuard serializes commands across instances with a SET NX lease.
// Use when more than one engine instance may receive facts for the same
// reservation (e.g. payment and signature webhooks behind a load balancer).
type RedisGuard struct {
	client     *redis.Client
	lease      time.Duration
	retryEvery time.Duration
}

// NewRedis returns a RedisGuard with the given lease duration. A zero lease
// falls back to the default command timeout.
func NewRedis(client *redis.Client, lease time.Duration) *RedisGuard {
	if lease == 0 {
		lease = defaultTimeout
	}
	return &RedisGuard{client: client, lease: lease, retryEvery: 25 * time.Millisecond}
}

// releaseScript deletes the lock only when the caller still owns it, so an
// expired lease cannot release a lock acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisGuard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	lockKey := "conveyo:lock:" + key

	for {
		ok, err := g.client.SetNX(ctx, lockKey, token, g.lease).Result()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "acquire reservation lock")
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "command aborted: lock wait cancelled")
		case <-time.After(g.retryEvery):
		}
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = releaseScript.Run(releaseCtx, g.client, []string{lockKey}, token).Result()
	}()

	return fn(ctx)
}
