package legal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/sentinel"
)

func newStoredReservation(t *testing.T, store *InMemoryStore) *LegalReservation {
	t.Helper()
	now := time.Now()
	reservation := &LegalReservation{
		ID:        id.NewReservationID(),
		UnitID:    id.NewUnitID(),
		BuyerID:   id.NewBuyerID(),
		Status:    StatusBookingInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Create(context.Background(), reservation))
	return reservation
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create then load", func(t *testing.T) {
		store := NewInMemoryStore()
		reservation := newStoredReservation(t, store)

		loaded, err := store.Load(ctx, reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, reservation.ID, loaded.ID)
		assert.Equal(t, 1, loaded.RecordVersion)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		store := NewInMemoryStore()
		reservation := newStoredReservation(t, store)
		assert.ErrorIs(t, store.Create(ctx, reservation), sentinel.ErrConflict)
	})

	t.Run("load unknown returns not found", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Load(ctx, id.NewReservationID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save bumps the version", func(t *testing.T) {
		store := NewInMemoryStore()
		reservation := newStoredReservation(t, store)

		loaded, err := store.Load(ctx, reservation.ID)
		require.NoError(t, err)
		loaded.Status = StatusTermsAccepted
		require.NoError(t, store.Save(ctx, loaded))
		assert.Equal(t, 2, loaded.RecordVersion)
	})

	t.Run("stale save rejected", func(t *testing.T) {
		store := NewInMemoryStore()
		reservation := newStoredReservation(t, store)

		first, err := store.Load(ctx, reservation.ID)
		require.NoError(t, err)
		second, err := store.Load(ctx, reservation.ID)
		require.NoError(t, err)

		first.Status = StatusTermsAccepted
		require.NoError(t, store.Save(ctx, first))

		second.Status = StatusCancelled
		assert.ErrorIs(t, store.Save(ctx, second), sentinel.ErrVersionMismatch)
	})

	t.Run("loaded copies do not alias the store", func(t *testing.T) {
		store := NewInMemoryStore()
		reservation := newStoredReservation(t, store)

		loaded, err := store.Load(ctx, reservation.ID)
		require.NoError(t, err)
		loaded.Status = StatusCancelled
		loaded.Contract = &Contract{DocumentRef: "tampered"}

		fresh, err := store.Load(ctx, reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusBookingInitiated, fresh.Status)
		assert.Nil(t, fresh.Contract)
	})

	t.Run("list expired returns only expired reservations", func(t *testing.T) {
		store := NewInMemoryStore()
		past := time.Now().Add(-time.Hour)
		future := time.Now().Add(time.Hour)

		stale := newStoredReservation(t, store)
		loaded, err := store.Load(ctx, stale.ID)
		require.NoError(t, err)
		loaded.ExpiresAt = &past
		require.NoError(t, store.Save(ctx, loaded))

		fresh := newStoredReservation(t, store)
		loaded, err = store.Load(ctx, fresh.ID)
		require.NoError(t, err)
		loaded.ExpiresAt = &future
		require.NoError(t, store.Save(ctx, loaded))

		expired, err := store.ListExpired(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, stale.ID, expired[0].ID)
	})
}
