package models

import "time"

// Volunteer represents a volunteer signup. UserID is set when the volunteer
// has a platform account; walk-up signups only carry contact details.
type Volunteer struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// VolunteerAssignment links a volunteer to an event with an optional role
// description (e.g. "registration desk").
type VolunteerAssignment struct {
	EventID     string    `json:"event_id"`
	VolunteerID string    `json:"volunteer_id"`
	Assignment  string    `json:"assignment"`
	CreatedAt   time.Time `json:"created_at"`
}
