package models

import "time"

// TicketType represents a class of tickets for an event with a bounded
// inventory. Sold is only ever advanced by the guarded purchase UPDATE in the
// ticket repository, so sold <= quantity holds under concurrent purchases.
type TicketType struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	Sold       int       `json:"sold"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Remaining returns how many tickets are still available.
func (t *TicketType) Remaining() int {
	return t.Quantity - t.Sold
}
