package models

import "time"

// CreditRecord tracks one statement-extraction job for a lead. Result is
// nil while the job is pending.
type CreditRecord struct {
	ID        int64              `json:"id"`
	LeadID    int64              `json:"lead_id"`
	JobID     string             `json:"job_id"`
	Result    *StatementAnalysis `json:"result,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
