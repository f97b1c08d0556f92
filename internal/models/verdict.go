package models

// ApprovalVerdict is the outcome of validating a desired loan amount
// against a payment envelope. Computed on demand, never stored.
type ApprovalVerdict struct {
	Approved          bool    `json:"approved"`
	RequiredUpfront   float64 `json:"required_upfront"`
	AdditionalUpfront float64 `json:"additional_upfront"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	TotalPayment      float64 `json:"total_payment"`
}
