// Package models - budget_item.go defines the BudgetItem model with its
// closed category set and status state machine. Amounts are stored in cents
// to avoid floating-point accumulation errors in summaries.
package models

import "time"

// Budget item statuses.
const (
	BudgetStatusPlanned   = "planned"
	BudgetStatusCommitted = "committed"
	BudgetStatusPaid      = "paid"
	BudgetStatusCancelled = "cancelled"
)

// budgetStatusTransitions is the allowed status flow for budget items.
// paid and cancelled are terminal. The transition to paid stamps PaidAt.
var budgetStatusTransitions = map[string][]string{
	BudgetStatusPlanned:   {BudgetStatusCommitted, BudgetStatusPaid, BudgetStatusCancelled},
	BudgetStatusCommitted: {BudgetStatusPaid, BudgetStatusCancelled},
	BudgetStatusPaid:      {},
	BudgetStatusCancelled: {},
}

// IsValidBudgetStatusTransition reports whether a budget item may move from
// current to next. Unknown statuses on either side are rejected.
func IsValidBudgetStatusTransition(current, next string) bool {
	allowed, ok := budgetStatusTransitions[current]
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

// BudgetCategories is the closed set of budget item categories.
var BudgetCategories = []string{
	"venue",
	"catering",
	"marketing",
	"entertainment",
	"equipment",
	"staffing",
	"transport",
	"accommodation",
	"insurance",
	"miscellaneous",
}

// IsValidBudgetCategory reports whether category is one of the closed set.
func IsValidBudgetCategory(category string) bool {
	for _, c := range BudgetCategories {
		if c == category {
			return true
		}
	}
	return false
}

// BudgetItem represents a single line item in an event's budget
type BudgetItem struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	Category       string     `json:"category"`
	Name           string     `json:"name"`
	EstimatedCents int64      `json:"estimated_cents"`
	ActualCents    int64      `json:"actual_cents"`
	Status         string     `json:"status"`
	VendorID       *string    `json:"vendor_id,omitempty"`
	SponsorID      *string    `json:"sponsor_id,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BudgetSummaryRow is one row of the per-event budget aggregation, grouped by
// category and status.
type BudgetSummaryRow struct {
	Category       string `json:"category"`
	Status         string `json:"status"`
	Items          int64  `json:"items"`
	EstimatedCents int64  `json:"estimated_cents"`
	ActualCents    int64  `json:"actual_cents"`
}
