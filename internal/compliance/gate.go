package compliance

// Requirement names a gated transition in the legal state machine.
type Requirement string

const (
	RequirementNominateSolicitor Requirement = "nominate_solicitor"
	RequirementGenerateContract  Requirement = "generate_contract"
	RequirementExecuteContract   Requirement = "execute_contract"
)

// Facts are the reservation-derived inputs the gate needs. The legal service
// builds them from the aggregate so this package stays dependency-free.
type Facts struct {
	DepositSecured     bool
	SolicitorValidated bool
}

// Evaluate is a pure predicate: it returns the list of unmet conditions for
// advancing past the given requirement, empty when the gate passes. It never
// mutates state; the caller wraps a non-empty result in a ComplianceUnmet
// error so the user sees each failed condition by name.
func Evaluate(rec Record, facts Facts, req Requirement) []string {
	var unmet []string

	// Baseline for every gated transition.
	if rec.KYCStatus != KYCVerified {
		unmet = append(unmet, "kyc_not_verified")
	}
	if rec.AMLStatus == AMLFlagged {
		unmet = append(unmet, "aml_flagged")
	} else if rec.AMLStatus != AMLCleared {
		unmet = append(unmet, "aml_not_cleared")
	}
	if !rec.DataProcessingConsent {
		unmet = append(unmet, "data_processing_consent_missing")
	}
	if !facts.DepositSecured {
		unmet = append(unmet, "deposit_not_secured")
	}

	if req == RequirementNominateSolicitor {
		return unmet
	}

	// Contract generation additionally needs a nominated, validated solicitor
	// and the statutory writing requirements satisfied.
	if !rec.SolicitorNominated {
		unmet = append(unmet, "solicitor_not_nominated")
	}
	if !facts.SolicitorValidated {
		unmet = append(unmet, "solicitor_not_validated")
	}
	if !rec.StatuteOfFraudsCompliant {
		unmet = append(unmet, "statute_of_frauds_not_satisfied")
	}
	if !rec.ECommerceActCompliant {
		unmet = append(unmet, "ecommerce_act_not_satisfied")
	}

	if req == RequirementGenerateContract {
		return unmet
	}

	// Execution: the contract must have been reviewed, e-signature must be
	// legally effective, and high-risk AML outcomes block binding.
	if !rec.ContractReviewed {
		unmet = append(unmet, "contract_not_reviewed")
	}
	if !rec.EIDASCompliant {
		unmet = append(unmet, "eidas_not_satisfied")
	}
	if !rec.ESignatureConsent {
		unmet = append(unmet, "esignature_consent_missing")
	}
	if rec.AMLRiskLevel == RiskHigh {
		unmet = append(unmet, "aml_risk_high")
	}

	return unmet
}
