package models

import "time"

// PaymentEnvelope is the affordability assessment derived from a credit
// record: the feasible payment range and the absolute credit ceiling.
// MinPayment and MaxPayment come from two independent underwriting
// heuristics and are assigned by value comparison, not by heuristic.
// Fields are pointers because the backing columns are nullable; the
// validator refuses to run against an incomplete envelope.
type PaymentEnvelope struct {
	ID                 int64     `json:"id"`
	CreditRecordID     int64     `json:"credit_record_id"`
	MinPayment         *float64  `json:"min_payment"`
	MaxPayment         *float64  `json:"max_payment"`
	MaxAdjustedPayment *float64  `json:"max_adjusted_payment"`
	MaximumCredit      *float64  `json:"maximum_credit"`
	CashFlowTier       string    `json:"cash_flow_tier,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
