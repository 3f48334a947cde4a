package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "conveyo/pkg/domain-errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func constructionInput(gross string) Input {
	return Input{
		GrossAmount:    dec(gross),
		ContractorType: ContractorStandard,
		ServiceType:    ServiceConstruction,
		VATRegistered:  true,
		IsResident:     true,
	}
}

// TestCalculate_ConstructionStandard pins the VAT-inclusive and RCT maths for
// the reference case: €10,000 gross, registered, standard subcontractor.
func TestCalculate_ConstructionStandard(t *testing.T) {
	result, err := Calculate(constructionInput("10000"))
	require.NoError(t, err)

	assert.True(t, dec("13.5").Equal(result.VATRate), "vatRate = %s", result.VATRate)
	// 10000 * 13.5 / 113.5, half-up to cent
	assert.True(t, dec("1189.43").Equal(result.VATAmount), "vatAmount = %s", result.VATAmount)
	assert.True(t, dec("8810.57").Equal(result.NetAmount), "netAmount = %s", result.NetAmount)

	assert.True(t, result.RCT.Applicable)
	assert.True(t, dec("20").Equal(result.RCT.Rate))
	assert.True(t, dec("1762.11").Equal(result.RCT.Amount), "rctAmount = %s", result.RCT.Amount)

	assert.True(t, dec("7048.46").Equal(result.FinalPaymentAmount), "final = %s", result.FinalPaymentAmount)
	assert.True(t, dec("2951.54").Equal(result.TaxesDeducted), "deducted = %s", result.TaxesDeducted)

	// Reconciliation: legs must sum back to gross.
	total := result.FinalPaymentAmount.Add(result.TaxesDeducted)
	assert.True(t, result.GrossAmount.Equal(total), "final + taxes = %s", total)
}

// TestCalculate_C2Exemption verifies a C2 certificate zeroes the withholding
// while leaving RCT applicable (the certificate still must be on file).
func TestCalculate_C2Exemption(t *testing.T) {
	in := constructionInput("10000")
	in.ContractorType = ContractorC2

	result, err := Calculate(in)
	require.NoError(t, err)

	assert.True(t, result.RCT.Applicable)
	assert.True(t, result.RCT.Amount.IsZero())
	assert.True(t, result.FinalPaymentAmount.Equal(result.NetAmount))
	assert.True(t, result.Compliance.RCTCertificateRequired)
}

// TestCalculate_BelowThreshold verifies the €10,000 boundary regardless of
// contractor type.
func TestCalculate_BelowThreshold(t *testing.T) {
	for _, contractor := range []ContractorType{ContractorStandard, ContractorC2} {
		in := constructionInput("9999")
		in.ContractorType = contractor

		result, err := Calculate(in)
		require.NoError(t, err)

		assert.False(t, result.RCT.Applicable, "contractor %s", contractor)
		assert.True(t, result.RCT.Amount.IsZero())
		assert.False(t, result.Compliance.RCTCertificateRequired)
	}
}

func TestCalculate_ProfessionalServices(t *testing.T) {
	in := Input{
		GrossAmount:    dec("12300"),
		ContractorType: ContractorStandard,
		ServiceType:    ServiceProfessional,
		VATRegistered:  true,
	}
	result, err := Calculate(in)
	require.NoError(t, err)

	assert.True(t, dec("23").Equal(result.VATRate))
	// 12300 * 23 / 123 = 2300
	assert.True(t, dec("2300").Equal(result.VATAmount), "vatAmount = %s", result.VATAmount)
	assert.True(t, dec("10000").Equal(result.NetAmount))
	// RCT never applies outside construction.
	assert.False(t, result.RCT.Applicable)
	assert.True(t, result.FinalPaymentAmount.Equal(result.NetAmount))
}

func TestCalculate_NotVATRegistered(t *testing.T) {
	in := constructionInput("15000")
	in.VATRegistered = false

	result, err := Calculate(in)
	require.NoError(t, err)

	assert.True(t, result.VATAmount.IsZero())
	assert.True(t, result.VATRate.IsZero())
	assert.True(t, result.NetAmount.Equal(result.GrossAmount))
	// RCT still bites: withholding is independent of VAT registration.
	assert.True(t, result.RCT.Applicable)
	assert.True(t, dec("3000").Equal(result.RCT.Amount))
	assert.False(t, result.Compliance.MonthlyReturnsRequired)
	assert.False(t, result.Compliance.QuarterlyReturnsRequired)
}

func TestCalculate_ComplianceFlags(t *testing.T) {
	t.Run("vat registration threshold is exclusive", func(t *testing.T) {
		result, err := Calculate(constructionInput("37500"))
		require.NoError(t, err)
		assert.False(t, result.Compliance.VATRegistrationRequired)

		result, err = Calculate(constructionInput("37500.01"))
		require.NoError(t, err)
		assert.True(t, result.Compliance.VATRegistrationRequired)
	})

	t.Run("returns cadence splits at two million", func(t *testing.T) {
		result, err := Calculate(constructionInput("2000000"))
		require.NoError(t, err)
		assert.False(t, result.Compliance.MonthlyReturnsRequired)
		assert.True(t, result.Compliance.QuarterlyReturnsRequired)

		result, err = Calculate(constructionInput("2000000.01"))
		require.NoError(t, err)
		assert.True(t, result.Compliance.MonthlyReturnsRequired)
		assert.False(t, result.Compliance.QuarterlyReturnsRequired)
	})
}

// TestCalculate_Deterministic: identical input yields identical output, the
// property the API-fallback-to-local-calculation design relies on.
func TestCalculate_Deterministic(t *testing.T) {
	in := constructionInput("123456.78")
	first, err := Calculate(in)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := Calculate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   Input
	}{
		{"negative amount", Input{GrossAmount: dec("-1"), ContractorType: ContractorStandard, ServiceType: ServiceConstruction}},
		{"unknown service type", Input{GrossAmount: dec("100"), ContractorType: ContractorStandard, ServiceType: "landscaping"}},
		{"unknown contractor type", Input{GrossAmount: dec("100"), ContractorType: "c4", ServiceType: ServiceConstruction}},
		{"empty enums", Input{GrossAmount: dec("100")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate(tc.in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestCalculate_ZeroGross(t *testing.T) {
	in := constructionInput("0")
	result, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, result.VATAmount.IsZero())
	assert.False(t, result.RCT.Applicable)
	assert.True(t, result.FinalPaymentAmount.IsZero())
}
