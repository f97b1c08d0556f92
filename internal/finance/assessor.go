package finance

import (
	"errors"
	"math"

	"github.com/clubcashin/credit-service/internal/models"
)

// Cash-flow tiers reported on the envelope. The mapping follows the
// underwriting worksheet: the smaller the surplus ratio, the higher the
// load already on the applicant's cash flow.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

var (
	// ErrProfileSize is returned when the profile does not contain exactly
	// three monthly summaries.
	ErrProfileSize = errors.New("financial profile must contain exactly 3 monthly summaries")
	// ErrDegenerateProfile is returned when the average income is zero or
	// negative, which leaves every affordability ratio undefined.
	ErrDegenerateProfile = errors.New("average income must be positive")
)

// AssessorPolicy holds the underwriting constants for affordability
// assessment.
type AssessorPolicy struct {
	// MaxDebtRatio caps new debt service as a share of disposable income
	// (half of average income).
	MaxDebtRatio float64
	// MaxVariableDebtRatio caps new debt service as a share of average
	// total expenses.
	MaxVariableDebtRatio float64
	// AnnualRate is the nominal annual rate used to derive the maximum
	// financeable principal.
	AnnualRate float64
	// TermMonths is the amortization term for the maximum-credit ceiling.
	TermMonths int
	// FreeFlowLowRatio and FreeFlowMediumRatio bound the cash-flow tiers.
	FreeFlowLowRatio    float64
	FreeFlowMediumRatio float64
}

// DefaultAssessorPolicy returns the production underwriting constants.
func DefaultAssessorPolicy() AssessorPolicy {
	return AssessorPolicy{
		MaxDebtRatio:         0.2,
		MaxVariableDebtRatio: 0.3,
		AnnualRate:           0.18,
		TermMonths:           60,
		FreeFlowLowRatio:     0.3,
		FreeFlowMediumRatio:  0.4,
	}
}

// Assessor derives payment envelopes from extracted financial profiles.
type Assessor struct {
	policy AssessorPolicy
}

// NewAssessor initializes an assessor with the given policy
func NewAssessor(policy AssessorPolicy) *Assessor {
	return &Assessor{policy: policy}
}

// Assess computes the payment envelope for a three-month financial profile.
// The returned envelope is not yet persisted; CreditRecordID is left zero
// for the caller to fill in.
func (a *Assessor) Assess(profile []models.MonthlySummary) (*models.PaymentEnvelope, error) {
	if len(profile) != 3 {
		return nil, ErrProfileSize
	}

	var totalIncome, totalExpense float64
	for _, month := range profile {
		totalIncome += month.TotalCredits
		totalExpense += month.TotalDebits
	}
	avgIncome := totalIncome / 3
	avgExpense := totalExpense / 3

	if avgIncome <= 0 {
		return nil, ErrDegenerateProfile
	}

	freeFlow := avgIncome - avgExpense
	tier := a.cashFlowTier(freeFlow / avgIncome)

	// Two independent caps on new debt service. Both assume zero
	// pre-existing obligations for now; existingDebt is the hook for
	// subtracting them once the bureau integration lands.
	const existingDebt = 0.0
	incomeCap := a.policy.MaxDebtRatio*(avgIncome*0.5) - existingDebt
	expenseCap := a.policy.MaxVariableDebtRatio*avgExpense - existingDebt

	// The caps are not ordered a priori; assign by value each time.
	minPayment := math.Min(incomeCap, expenseCap)
	maxPayment := math.Max(incomeCap, expenseCap)

	maxAdjustedPayment := (freeFlow + incomeCap + expenseCap) / 3

	// Absolute ceiling on financeable principal implied by the income cap.
	maximumCredit, err := PV(a.policy.AnnualRate/12, a.policy.TermMonths, incomeCap, 0, EndOfPeriod)
	if err != nil {
		return nil, err
	}
	maximumCredit = math.Abs(maximumCredit)

	return &models.PaymentEnvelope{
		MinPayment:         &minPayment,
		MaxPayment:         &maxPayment,
		MaxAdjustedPayment: &maxAdjustedPayment,
		MaximumCredit:      &maximumCredit,
		CashFlowTier:       tier,
	}, nil
}

func (a *Assessor) cashFlowTier(freeFlowRatio float64) string {
	switch {
	case freeFlowRatio < a.policy.FreeFlowLowRatio:
		return TierHigh
	case freeFlowRatio < a.policy.FreeFlowMediumRatio:
		return TierMedium
	default:
		return TierLow
	}
}
