package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/eventlane/eventlane/internal/db/models"
)

var budgetCols = []string{
	"id", "event_id", "category", "name", "estimated_cents", "actual_cents",
	"status", "vendor_id", "sponsor_id", "paid_at", "created_at", "updated_at",
}

func newBudgetRepo(t *testing.T) (*BudgetRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBudgetRepository(db), mock
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateBudgetItem(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectExec("INSERT INTO budget_items").
		WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.BudgetItem{EventID: "event-1", Category: "venue", Name: "Hall hire", EstimatedCents: 150000}
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != models.BudgetStatusPlanned {
		t.Errorf("Status = %q, want planned", item.Status)
	}
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func TestTransitionBudgetItem_ToPaidStampsPaidAt(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectExec("UPDATE budget_items.*paid_at").
		WithArgs("item-1", "committed", "paid", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Transition(context.Background(), "item-1", "committed", "paid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionBudgetItem_Valid(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectExec("UPDATE budget_items").
		WithArgs("item-1", "planned", "committed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Transition(context.Background(), "item-1", "planned", "committed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionBudgetItem_InvalidPair(t *testing.T) {
	repo, _ := newBudgetRepo(t)

	err := repo.Transition(context.Background(), "item-1", "paid", "planned")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionBudgetItem_StaleStatus(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectExec("UPDATE budget_items").
		WithArgs("item-1", "planned", "committed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), "item-1", "planned", "committed")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

// ---------------------------------------------------------------------------
// ListForEvent / SummaryByEvent
// ---------------------------------------------------------------------------

func TestListBudgetItemsForEvent(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectQuery("SELECT.*FROM budget_items.*WHERE event_id").
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows(budgetCols).
			AddRow("item-1", "event-1", "venue", "Hall hire", 150000, 145000,
				"paid", nil, nil, time.Now(), time.Now(), time.Now()))

	items, err := repo.ListForEvent(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}
	if items[0].PaidAt == nil {
		t.Error("expected paid_at to be set")
	}
}

func TestSummaryByEvent(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectQuery("SELECT category, status, COUNT.*FROM budget_items").
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"category", "status", "count", "estimated", "actual"}).
			AddRow("venue", "paid", 1, 150000, 145000).
			AddRow("catering", "planned", 3, 90000, 0))

	summary, err := repo.SummaryByEvent(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("len(summary) = %d, want 2", len(summary))
	}
	if summary[0].ActualCents != 145000 {
		t.Errorf("ActualCents = %d, want 145000", summary[0].ActualCents)
	}
	if summary[1].Items != 3 {
		t.Errorf("Items = %d, want 3", summary[1].Items)
	}
}

func TestSummaryByEvent_DBError(t *testing.T) {
	repo, mock := newBudgetRepo(t)
	mock.ExpectQuery("SELECT category, status, COUNT.*FROM budget_items").
		WillReturnError(errDB)

	if _, err := repo.SummaryByEvent(context.Background(), "event-1"); err == nil {
		t.Error("expected error, got nil")
	}
}
