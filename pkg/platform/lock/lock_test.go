package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "conveyo/pkg/domain-errors"
)

func TestShardedGuard_SerializesSameKey(t *testing.T) {
	guard := NewSharded(time.Second)
	ctx := context.Background()

	var inside, maxInside int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.Do(ctx, "reservation-1", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside, "commands on the same key must not overlap")
}

func TestShardedGuard_CancelledContext(t *testing.T) {
	guard := NewSharded(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := guard.Do(ctx, "reservation-1", func(context.Context) error {
		t.Fatal("fn must not run after cancellation")
		return nil
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestShardedGuard_PropagatesFnError(t *testing.T) {
	guard := NewSharded(time.Second)

	want := dErrors.New(dErrors.CodeInvalidTransition, "nope")
	err := guard.Do(context.Background(), "k", func(context.Context) error { return want })
	assert.ErrorIs(t, err, error(want))
}
