//go:build integration

package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conveyo/internal/compliance"
	id "conveyo/pkg/domain"
	"conveyo/pkg/testutil/containers"
)

func TestPostgresStore_Records(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := compliance.NewPostgresStore(pg.DB)

	t.Run("unknown reservation yields a zero record", func(t *testing.T) {
		reservationID := id.NewReservationID()
		record, err := store.Get(ctx, reservationID)
		require.NoError(t, err)
		assert.Equal(t, reservationID, record.ReservationID)
		assert.Empty(t, record.KYCStatus)
		assert.False(t, record.DataProcessingConsent)
	})

	t.Run("put and get round-trips the record", func(t *testing.T) {
		reservationID := id.NewReservationID()
		consentAt := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, store.Put(ctx, compliance.Record{
			ReservationID:            reservationID,
			KYCStatus:                compliance.KYCVerified,
			AMLStatus:                compliance.AMLCleared,
			AMLRiskLevel:             compliance.RiskLow,
			StatuteOfFraudsCompliant: true,
			DataProcessingConsent:    true,
			ESignatureConsent:        true,
			ConsentRecordedAt:        &consentAt,
		}))

		record, err := store.Get(ctx, reservationID)
		require.NoError(t, err)
		assert.Equal(t, compliance.KYCVerified, record.KYCStatus)
		assert.Equal(t, compliance.AMLCleared, record.AMLStatus)
		assert.True(t, record.StatuteOfFraudsCompliant)
		require.NotNil(t, record.ConsentRecordedAt)
		assert.True(t, consentAt.Equal(*record.ConsentRecordedAt))
		assert.False(t, record.UpdatedAt.IsZero())
	})

	t.Run("put upserts over an existing record", func(t *testing.T) {
		reservationID := id.NewReservationID()
		require.NoError(t, store.Put(ctx, compliance.Record{
			ReservationID: reservationID,
			KYCStatus:     compliance.KYCPending,
		}))
		require.NoError(t, store.Put(ctx, compliance.Record{
			ReservationID: reservationID,
			KYCStatus:     compliance.KYCVerified,
			AMLStatus:     compliance.AMLFlagged,
			AMLRiskLevel:  compliance.RiskHigh,
		}))

		record, err := store.Get(ctx, reservationID)
		require.NoError(t, err)
		assert.Equal(t, compliance.KYCVerified, record.KYCStatus)
		assert.Equal(t, compliance.AMLFlagged, record.AMLStatus)
		assert.Equal(t, compliance.RiskHigh, record.AMLRiskLevel)
	})
}
