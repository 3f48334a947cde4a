// Package tax implements the Irish VAT and RCT withholding rules applied to
// contractor and professional-service payments. Calculate is a pure function:
// the server endpoint and any offline caller must produce identical output,
// so all rates and rounding live here and nowhere else.
package tax

import (
	"github.com/shopspring/decimal"

	dErrors "conveyo/pkg/domain-errors"
)

// ContractorType selects the RCT withholding rate.
type ContractorType string

const (
	// ContractorStandard is withheld at the standard 20% rate.
	ContractorStandard ContractorType = "standard"
	// ContractorC2 holds a Revenue C2 certificate and is exempt from RCT.
	ContractorC2 ContractorType = "c2_certificate"
)

// ServiceType selects the VAT rate and RCT applicability.
type ServiceType string

const (
	ServiceConstruction ServiceType = "construction"
	ServiceProfessional ServiceType = "professional"
	ServiceConsultancy  ServiceType = "consultancy"
)

// Revenue thresholds and rates, euro.
var (
	// rctThreshold: RCT applies to construction contracts at or above this.
	rctThreshold = decimal.NewFromInt(10000)
	// vatRegistrationThreshold: supplier must register for VAT above this.
	vatRegistrationThreshold = decimal.NewFromInt(37500)
	// monthlyReturnsThreshold: VAT-registered traders above this file monthly.
	monthlyReturnsThreshold = decimal.NewFromInt(2_000_000)

	vatRateConstruction = decimal.NewFromFloat(13.5)
	vatRateStandard     = decimal.NewFromInt(23)
	rctRateStandard     = decimal.NewFromInt(20)

	hundred = decimal.NewFromInt(100)
)

// Input describes one gross contractor payment.
type Input struct {
	GrossAmount    decimal.Decimal `json:"grossAmount"`
	ContractorType ContractorType  `json:"contractorType"`
	ServiceType    ServiceType     `json:"serviceType"`
	VATRegistered  bool            `json:"vatRegistered"`
	IsResident     bool            `json:"isResident"`
}

// RCTCalculation is the withholding leg of a Result.
type RCTCalculation struct {
	Applicable bool            `json:"applicable"`
	Rate       decimal.Decimal `json:"rate"`
	Amount     decimal.Decimal `json:"amount"`
}

// ComplianceFlags are derived obligations, never user-settable.
type ComplianceFlags struct {
	VATRegistrationRequired  bool `json:"vatRegistrationRequired"`
	RCTCertificateRequired   bool `json:"rctCertificateRequired"`
	MonthlyReturnsRequired   bool `json:"monthlyReturnsRequired"`
	QuarterlyReturnsRequired bool `json:"quarterlyReturnsRequired"`
}

// Result is a pure value object; recomputed on demand, never persisted or
// mutated. All monetary fields are rounded to 2 decimal places.
type Result struct {
	GrossAmount        decimal.Decimal `json:"grossAmount"`
	VATRate            decimal.Decimal `json:"vatRate"`
	VATAmount          decimal.Decimal `json:"vatAmount"`
	NetAmount          decimal.Decimal `json:"netAmount"`
	RCT                RCTCalculation  `json:"rctCalculation"`
	FinalPaymentAmount decimal.Decimal `json:"finalPaymentAmount"`
	TaxesDeducted      decimal.Decimal `json:"taxesDeducted"`
	Compliance         ComplianceFlags `json:"compliance"`
}

func validContractorType(t ContractorType) bool {
	return t == ContractorStandard || t == ContractorC2
}

func validServiceType(t ServiceType) bool {
	return t == ServiceConstruction || t == ServiceProfessional || t == ServiceConsultancy
}

// Calculate applies the VAT and RCT rules to one gross payment.
//
// VAT is included in the gross amount: vat = gross*rate/(100+rate). RCT is
// withheld from the net when the contract is construction work at or above
// the registration threshold. Round-half-up to cent at the edges only;
// intermediate division runs at the decimal package's full precision.
//
// Errors: CodeInvalidInput for a negative amount or unknown enum value. The
// check runs before any other work so callers can fail fast.
func Calculate(in Input) (Result, error) {
	if in.GrossAmount.IsNegative() {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "gross amount cannot be negative")
	}
	if !validServiceType(in.ServiceType) {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "unknown service type: "+string(in.ServiceType))
	}
	if !validContractorType(in.ContractorType) {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "unknown contractor type: "+string(in.ContractorType))
	}

	gross := in.GrossAmount

	// VAT leg. Zero-rated supplies are out of scope of the service type
	// model; non-registered suppliers charge no VAT.
	vatRate := decimal.Zero
	vatAmount := decimal.Zero
	netAmount := gross
	if in.VATRegistered {
		vatRate = vatRateStandard
		if in.ServiceType == ServiceConstruction {
			vatRate = vatRateConstruction
		}
		vatAmount = gross.Mul(vatRate).Div(hundred.Add(vatRate)).Round(2)
		netAmount = gross.Sub(vatAmount)
	}

	// RCT leg. Withheld on the VAT-exclusive amount.
	rct := RCTCalculation{Rate: decimal.Zero, Amount: decimal.Zero}
	if in.ServiceType == ServiceConstruction && gross.GreaterThanOrEqual(rctThreshold) {
		rct.Applicable = true
		if in.ContractorType != ContractorC2 {
			rct.Rate = rctRateStandard
			rct.Amount = netAmount.Mul(rct.Rate).Div(hundred).Round(2)
		}
	}

	return Result{
		GrossAmount:        gross.Round(2),
		VATRate:            vatRate,
		VATAmount:          vatAmount,
		NetAmount:          netAmount.Round(2),
		RCT:                rct,
		FinalPaymentAmount: netAmount.Sub(rct.Amount).Round(2),
		TaxesDeducted:      vatAmount.Add(rct.Amount).Round(2),
		Compliance: ComplianceFlags{
			VATRegistrationRequired:  gross.GreaterThan(vatRegistrationThreshold),
			RCTCertificateRequired:   in.ServiceType == ServiceConstruction && gross.GreaterThanOrEqual(rctThreshold),
			MonthlyReturnsRequired:   in.VATRegistered && gross.GreaterThan(monthlyReturnsThreshold),
			QuarterlyReturnsRequired: in.VATRegistered && gross.LessThanOrEqual(monthlyReturnsThreshold),
		},
	}, nil
}
