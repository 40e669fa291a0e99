package models

import "time"

type Flight struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CreatedBy   string     `json:"createdBy"`
	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
