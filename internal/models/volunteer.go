package models

import "time"

// VolunteerInterest records that someone offered help for a specific report.
type VolunteerInterest struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"reportId"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
