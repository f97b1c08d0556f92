package finance

import (
	"errors"
	"math"

	"github.com/clubcashin/credit-service/internal/models"
)

// ErrIncompleteEnvelope is returned when a desired amount is validated
// against an envelope that is missing any of its required figures.
var ErrIncompleteEnvelope = errors.New("payment envelope is incomplete")

// ValidatorPolicy holds the financing constants used to price a desired
// loan amount: term, effective rate, down-payment ratio and the fee stack.
type ValidatorPolicy struct {
	TermMonths  int
	MonthlyRate float64
	// RateLoadFactor scales the nominal monthly rate into the effective
	// rate used for amortization.
	RateLoadFactor float64
	UpfrontRate    float64
	TransferFee    float64
	// GPSFee covers the tracking device; MembershipFee is the bundled
	// membership total of which the GPS fee is a part.
	GPSFee        float64
	MembershipFee float64
	// Insurance is tiered on the desired amount.
	InsuranceLowTier   float64
	InsuranceHighTier  float64
	InsuranceThreshold float64
	// Fixed administrative line items charged both into the fee base and
	// the administrative fee itself.
	DocumentFee     float64
	RegistrationFee float64
	NotaryFee       float64
	// Percentage charges applied to the fee base.
	OriginationRate   float64
	DocumentationRate float64
	// Upsell sensitivity: roughly every UpsellUpfrontStep of additional
	// down payment reduces the monthly payment by UpsellPaymentStep. An
	// empirical approximation, not a re-solved amortization.
	UpsellPaymentStep float64
	UpsellUpfrontStep float64
}

// DefaultValidatorPolicy returns the production financing constants.
func DefaultValidatorPolicy() ValidatorPolicy {
	return ValidatorPolicy{
		TermMonths:         60,
		MonthlyRate:        0.015,
		RateLoadFactor:     1.12,
		UpfrontRate:        0.2,
		TransferFee:        1950,
		GPSFee:             148.2,
		MembershipFee:      500,
		InsuranceLowTier:   245,
		InsuranceHighTier:  300,
		InsuranceThreshold: 800000,
		DocumentFee:        400,
		RegistrationFee:    400,
		NotaryFee:          600,
		OriginationRate:    0.04,
		DocumentationRate:  0.0178,
		UpsellPaymentStep:  130,
		UpsellUpfrontStep:  5000,
	}
}

// Validator prices desired loan amounts against payment envelopes.
type Validator struct {
	policy ValidatorPolicy
}

// NewValidator initializes a validator with the given policy
func NewValidator(policy ValidatorPolicy) *Validator {
	return &Validator{policy: policy}
}

// Validate computes the fully-loaded monthly payment for the desired
// amount and compares it against the envelope. Approval requires both
// gates: the payment must fit under the envelope's maximum payment and
// the total paid over the term under the maximum credit. A rejected
// verdict always carries an additional-upfront estimate.
func (v *Validator) Validate(env *models.PaymentEnvelope, desiredAmount float64) (*models.ApprovalVerdict, error) {
	if env == nil || env.MinPayment == nil || env.MaxPayment == nil || env.MaximumCredit == nil {
		return nil, ErrIncompleteEnvelope
	}
	p := v.policy

	membership := p.MembershipFee - p.GPSFee
	insurance := p.InsuranceLowTier + membership
	if desiredAmount >= p.InsuranceThreshold {
		insurance = p.InsuranceHighTier + membership
	}

	financed := desiredAmount * (1 - p.UpfrontRate)

	// Fee base: everything financed alongside the vehicle itself.
	helper := financed + p.TransferFee + p.DocumentFee + p.RegistrationFee + p.NotaryFee + p.GPSFee + insurance

	// Multi-party fee stacking: origination and documentation percentages
	// over the fee base plus the fixed line items again.
	adminFee := p.DocumentFee + helper*p.OriginationRate + p.RegistrationFee + p.NotaryFee +
		helper*p.DocumentationRate + p.GPSFee + insurance

	payment, err := PMT(
		p.MonthlyRate*p.RateLoadFactor,
		p.TermMonths,
		-(financed+p.TransferFee+adminFee)+insurance+p.GPSFee,
		0,
		EndOfPeriod,
	)
	if err != nil {
		return nil, err
	}
	totalPayment := payment * float64(p.TermMonths)

	verdict := &models.ApprovalVerdict{
		RequiredUpfront: desiredAmount * p.UpfrontRate,
		MonthlyPayment:  payment,
		TotalPayment:    totalPayment,
	}

	if payment <= *env.MaxPayment && totalPayment <= *env.MaximumCredit {
		verdict.Approved = true
		return verdict, nil
	}

	difference := math.Abs(*env.MaxPayment - payment)
	verdict.AdditionalUpfront = difference / p.UpsellPaymentStep * p.UpsellUpfrontStep
	return verdict, nil
}
