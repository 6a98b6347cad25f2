// Package models - event.go defines the Event model and its status state
// machine. The transition table is enforced server-side in the update
// mutation, so a direct API caller cannot move an event through an
// unlisted transition.
package models

import "time"

// Event statuses.
const (
	EventStatusDraft     = "draft"
	EventStatusPlanning  = "planning"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// eventStatusTransitions maps each status to the set of statuses it may move
// to. completed is terminal; cancelled events can be reopened as drafts.
var eventStatusTransitions = map[string][]string{
	EventStatusDraft:     {EventStatusPlanning, EventStatusCancelled},
	EventStatusPlanning:  {EventStatusActive, EventStatusDraft, EventStatusCancelled},
	EventStatusActive:    {EventStatusCompleted, EventStatusCancelled},
	EventStatusCompleted: {},
	EventStatusCancelled: {EventStatusDraft},
}

// IsValidEventStatusTransition reports whether an event may move from current
// to next. Unknown statuses on either side are rejected.
func IsValidEventStatusTransition(current, next string) bool {
	allowed, ok := eventStatusTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// Event represents an event coordinated on the platform
type Event struct {
	ID          string     `json:"id"`
	OrganizerID string     `json:"organizer_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Status      string     `json:"status"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
