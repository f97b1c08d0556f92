package models

import "time"

// Lead represents an applicant captured from the landing page
type Lead struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	DesiredAmount *float64  `json:"desired_amount,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
