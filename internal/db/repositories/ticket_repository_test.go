package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/eventlane/eventlane/internal/db/models"
)

var ticketCols = []string{
	"id", "event_id", "name", "price_cents", "quantity", "sold", "created_at", "updated_at",
}

func newTicketRepo(t *testing.T) (*TicketRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTicketRepository(db), mock
}

// ---------------------------------------------------------------------------
// Purchase
// ---------------------------------------------------------------------------

func TestPurchase_Success(t *testing.T) {
	repo, mock := newTicketRepo(t)
	mock.ExpectExec("UPDATE ticket_types.*sold = sold").
		WithArgs("ticket-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Purchase(context.Background(), "ticket-1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPurchase_SoldOut(t *testing.T) {
	repo, mock := newTicketRepo(t)
	// The guarded WHERE clause matched no row: inventory cannot cover it.
	mock.ExpectExec("UPDATE ticket_types.*sold = sold").
		WithArgs("ticket-1", 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Purchase(context.Background(), "ticket-1", 5)
	if !errors.Is(err, ErrSoldOut) {
		t.Errorf("err = %v, want ErrSoldOut", err)
	}
}

func TestPurchase_NonPositiveCount(t *testing.T) {
	repo, _ := newTicketRepo(t)

	if err := repo.Purchase(context.Background(), "ticket-1", 0); err == nil {
		t.Error("expected error for zero count")
	}
	if err := repo.Purchase(context.Background(), "ticket-1", -3); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestPurchase_DBError(t *testing.T) {
	repo, mock := newTicketRepo(t)
	mock.ExpectExec("UPDATE ticket_types.*sold = sold").
		WillReturnError(errDB)

	err := repo.Purchase(context.Background(), "ticket-1", 1)
	if err == nil || errors.Is(err, ErrSoldOut) {
		t.Errorf("expected plain db error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Create / GetByID / Update
// ---------------------------------------------------------------------------

func TestCreateTicketType(t *testing.T) {
	repo, mock := newTicketRepo(t)
	mock.ExpectExec("INSERT INTO ticket_types").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ticket := &models.TicketType{EventID: "event-1", Name: "General", PriceCents: 2500, Quantity: 100, Sold: 7}
	if err := repo.Create(context.Background(), ticket); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Sold != 0 {
		t.Error("Create should zero the sold counter")
	}
}

func TestGetTicketTypeByID_Found(t *testing.T) {
	repo, mock := newTicketRepo(t)
	mock.ExpectQuery("SELECT.*FROM ticket_types WHERE id").
		WithArgs("ticket-1").
		WillReturnRows(sqlmock.NewRows(ticketCols).
			AddRow("ticket-1", "event-1", "General", 2500, 100, 37, time.Now(), time.Now()))

	ticket, err := repo.GetByID(context.Background(), "ticket-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket == nil {
		t.Fatal("expected ticket, got nil")
	}
	if ticket.Remaining() != 63 {
		t.Errorf("Remaining() = %d, want 63", ticket.Remaining())
	}
}

func TestUpdateTicketType_QuantityBelowSold(t *testing.T) {
	repo, mock := newTicketRepo(t)
	// The sold <= quantity guard rejects shrinking below sold.
	mock.ExpectExec("UPDATE ticket_types").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ticket := &models.TicketType{ID: "ticket-1", Name: "General", PriceCents: 2500, Quantity: 10}
	err := repo.Update(context.Background(), ticket)
	if !errors.Is(err, ErrSoldOut) {
		t.Errorf("err = %v, want ErrSoldOut", err)
	}
}

// ---------------------------------------------------------------------------
// ListForEvent
// ---------------------------------------------------------------------------

func TestListTicketTypesForEvent(t *testing.T) {
	repo, mock := newTicketRepo(t)
	mock.ExpectQuery("SELECT.*FROM ticket_types.*WHERE event_id").
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows(ticketCols).
			AddRow("ticket-1", "event-1", "General", 2500, 100, 10, time.Now(), time.Now()).
			AddRow("ticket-2", "event-1", "VIP", 10000, 20, 5, time.Now(), time.Now()))

	tickets, err := repo.ListForEvent(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tickets) != 2 {
		t.Errorf("len(tickets) = %d, want 2", len(tickets))
	}
}
