package legal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLegalTransactionStatus_CanTransitionTo(t *testing.T) {
	t.Run("happy path advances one stage at a time", func(t *testing.T) {
		path := []LegalTransactionStatus{
			StatusBookingInitiated,
			StatusTermsAccepted,
			StatusDepositPaid,
			StatusSolicitorNominated,
			StatusContractGenerated,
			StatusContractReady,
			StatusPendingSignatures,
			StatusLegallyBound,
			StatusCompleted,
		}
		for i := 0; i < len(path)-1; i++ {
			assert.True(t, path[i].CanTransitionTo(path[i+1]),
				"%s -> %s should be allowed", path[i], path[i+1])
		}
	})

	t.Run("stages cannot be skipped", func(t *testing.T) {
		assert.False(t, StatusBookingInitiated.CanTransitionTo(StatusDepositPaid))
		assert.False(t, StatusTermsAccepted.CanTransitionTo(StatusSolicitorNominated))
		assert.False(t, StatusDepositPaid.CanTransitionTo(StatusContractGenerated))
		assert.False(t, StatusSolicitorNominated.CanTransitionTo(StatusLegallyBound))
	})

	t.Run("no backwards movement on the happy path", func(t *testing.T) {
		assert.False(t, StatusDepositPaid.CanTransitionTo(StatusTermsAccepted))
		assert.False(t, StatusLegallyBound.CanTransitionTo(StatusPendingSignatures))
	})

	t.Run("cancellation is reachable from every non-terminal state", func(t *testing.T) {
		for status := range legalTransitions {
			if status.Terminal() {
				continue
			}
			assert.True(t, status.CanTransitionTo(StatusCancelled), "from %s", status)
		}
	})

	t.Run("terminal states allow nothing", func(t *testing.T) {
		for _, terminal := range []LegalTransactionStatus{StatusCompleted, StatusCancelled} {
			for target := range legalTransitions {
				assert.False(t, terminal.CanTransitionTo(target),
					"%s -> %s should be rejected", terminal, target)
			}
			assert.False(t, terminal.CanTransitionTo(StatusCancelled))
		}
	})

	t.Run("regeneration loops back to CONTRACT_GENERATED", func(t *testing.T) {
		assert.True(t, StatusContractGenerated.CanTransitionTo(StatusContractGenerated))
		assert.True(t, StatusContractReady.CanTransitionTo(StatusContractGenerated))
		assert.True(t, StatusPendingSignatures.CanTransitionTo(StatusContractGenerated))
		assert.False(t, StatusLegallyBound.CanTransitionTo(StatusContractGenerated))
	})
}

func TestLegalTransactionStatus_AtLeast(t *testing.T) {
	assert.True(t, StatusLegallyBound.AtLeast(StatusDepositPaid))
	assert.True(t, StatusDepositPaid.AtLeast(StatusDepositPaid))
	assert.False(t, StatusTermsAccepted.AtLeast(StatusDepositPaid))

	// A cancelled reservation is at no stage.
	assert.False(t, StatusCancelled.AtLeast(StatusBookingInitiated))
	assert.False(t, StatusCompleted.AtLeast(StatusCancelled))
}

func TestSignatureStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, SignaturePending.CanTransitionTo(SignatureInProgress))
	assert.True(t, SignaturePending.CanTransitionTo(SignatureCompleted))
	assert.True(t, SignatureInProgress.CanTransitionTo(SignatureDeclined))

	for _, terminal := range []SignatureStatus{SignatureCompleted, SignatureDeclined, SignatureExpired} {
		assert.True(t, terminal.Terminal())
		assert.False(t, terminal.CanTransitionTo(SignaturePending))
		assert.False(t, terminal.CanTransitionTo(SignatureCompleted))
	}
}

func TestValidRegistrationNumber(t *testing.T) {
	valid := []string{"12345", "1234", "123456", "F1234", "IE12345"}
	for _, v := range valid {
		assert.True(t, ValidRegistrationNumber(v), v)
	}

	invalid := []string{"", "123", "1234567", "ABC1234", "ie12345", "12 345", "12345X"}
	for _, v := range invalid {
		assert.False(t, ValidRegistrationNumber(v), v)
	}
}

func TestContract_AllSigned(t *testing.T) {
	var nilContract *Contract
	assert.False(t, nilContract.AllSigned())
	assert.False(t, (&Contract{}).AllSigned())

	contract := &Contract{Signatures: []ContractSignature{
		{Status: SignatureCompleted},
		{Status: SignaturePending},
	}}
	assert.False(t, contract.AllSigned())

	contract.Signatures[1].Status = SignatureCompleted
	assert.True(t, contract.AllSigned())
}

func TestLegalReservation_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("no expiry set never expires", func(t *testing.T) {
		r := &LegalReservation{Status: StatusTermsAccepted}
		assert.False(t, r.Expired(now))
	})

	t.Run("past expiry before binding", func(t *testing.T) {
		r := &LegalReservation{Status: StatusPendingSignatures, ExpiresAt: &past}
		assert.True(t, r.Expired(now))
	})

	t.Run("future expiry", func(t *testing.T) {
		r := &LegalReservation{Status: StatusPendingSignatures, ExpiresAt: &future}
		assert.False(t, r.Expired(now))
	})

	t.Run("legally bound reservations do not expire", func(t *testing.T) {
		r := &LegalReservation{Status: StatusLegallyBound, ExpiresAt: &past}
		assert.False(t, r.Expired(now))
	})

	t.Run("terminal reservations do not expire", func(t *testing.T) {
		r := &LegalReservation{Status: StatusCancelled, ExpiresAt: &past}
		assert.False(t, r.Expired(now))
	})
}
