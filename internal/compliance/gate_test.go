package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearedRecord() Record {
	return Record{
		KYCStatus:                KYCVerified,
		AMLStatus:                AMLCleared,
		AMLRiskLevel:             RiskLow,
		SolicitorNominated:       true,
		ContractReviewed:         true,
		StatuteOfFraudsCompliant: true,
		ECommerceActCompliant:    true,
		EIDASCompliant:           true,
		DataProcessingConsent:    true,
		ESignatureConsent:        true,
	}
}

func allFacts() Facts {
	return Facts{DepositSecured: true, SolicitorValidated: true}
}

func TestEvaluate_PassesWhenEverythingCleared(t *testing.T) {
	for _, req := range []Requirement{
		RequirementNominateSolicitor,
		RequirementGenerateContract,
		RequirementExecuteContract,
	} {
		unmet := Evaluate(clearedRecord(), allFacts(), req)
		assert.Empty(t, unmet, "requirement %s", req)
	}
}

func TestEvaluate_NominationBaseline(t *testing.T) {
	t.Run("unverified KYC blocks", func(t *testing.T) {
		rec := clearedRecord()
		rec.KYCStatus = KYCPending
		unmet := Evaluate(rec, allFacts(), RequirementNominateSolicitor)
		assert.Contains(t, unmet, "kyc_not_verified")
	})

	t.Run("flagged AML blocks with specific condition", func(t *testing.T) {
		rec := clearedRecord()
		rec.AMLStatus = AMLFlagged
		unmet := Evaluate(rec, allFacts(), RequirementNominateSolicitor)
		assert.Contains(t, unmet, "aml_flagged")
		assert.NotContains(t, unmet, "aml_not_cleared")
	})

	t.Run("unsecured deposit blocks", func(t *testing.T) {
		unmet := Evaluate(clearedRecord(), Facts{DepositSecured: false, SolicitorValidated: true}, RequirementNominateSolicitor)
		assert.Contains(t, unmet, "deposit_not_secured")
	})

	t.Run("nomination ignores contract-stage conditions", func(t *testing.T) {
		rec := clearedRecord()
		rec.ContractReviewed = false
		rec.EIDASCompliant = false
		unmet := Evaluate(rec, allFacts(), RequirementNominateSolicitor)
		assert.Empty(t, unmet)
	})
}

func TestEvaluate_GenerationRequiresSolicitor(t *testing.T) {
	rec := clearedRecord()
	rec.SolicitorNominated = false
	facts := allFacts()
	facts.SolicitorValidated = false

	unmet := Evaluate(rec, facts, RequirementGenerateContract)
	assert.Contains(t, unmet, "solicitor_not_nominated")
	assert.Contains(t, unmet, "solicitor_not_validated")
}

func TestEvaluate_ExecutionConditions(t *testing.T) {
	t.Run("high AML risk blocks execution only", func(t *testing.T) {
		rec := clearedRecord()
		rec.AMLRiskLevel = RiskHigh

		assert.Empty(t, Evaluate(rec, allFacts(), RequirementGenerateContract))
		unmet := Evaluate(rec, allFacts(), RequirementExecuteContract)
		assert.Equal(t, []string{"aml_risk_high"}, unmet)
	})

	t.Run("all execution conditions reported together", func(t *testing.T) {
		rec := clearedRecord()
		rec.ContractReviewed = false
		rec.EIDASCompliant = false
		rec.ESignatureConsent = false

		unmet := Evaluate(rec, allFacts(), RequirementExecuteContract)
		assert.ElementsMatch(t, []string{
			"contract_not_reviewed",
			"eidas_not_satisfied",
			"esignature_consent_missing",
		}, unmet)
	})
}

// TestEvaluate_Pure documents that evaluation never mutates its inputs.
func TestEvaluate_Pure(t *testing.T) {
	rec := clearedRecord()
	facts := allFacts()
	before := rec

	_ = Evaluate(rec, facts, RequirementExecuteContract)
	assert.Equal(t, before, rec)
}
