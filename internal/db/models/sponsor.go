package models

import "time"

// Sponsor represents a sponsoring organisation that can back events and
// offset budget items
type Sponsor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Tier         string    `json:"tier"`
	Status       string    `json:"status"`
	CreatedBy    *string   `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
