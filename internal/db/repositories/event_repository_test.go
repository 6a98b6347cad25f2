package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/eventlane/eventlane/internal/db/models"
)

var eventCols = []string{
	"id", "organizer_id", "name", "description", "location", "status",
	"starts_at", "ends_at", "published_at", "created_at", "updated_at",
}

func sampleEventRow() *sqlmock.Rows {
	return sqlmock.NewRows(eventCols).
		AddRow("event-1", "user-1", "Summer Fair", "", "Town Square", "draft",
			nil, nil, nil, time.Now(), time.Now())
}

func newEventRepo(t *testing.T) (*EventRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEventRepository(db), mock
}

// ---------------------------------------------------------------------------
// Create / GetByID
// ---------------------------------------------------------------------------

func TestCreateEvent(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{OrganizerID: "user-1", Name: "Summer Fair"}
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Status != models.EventStatusDraft {
		t.Errorf("Status = %q, want draft", event.Status)
	}
	if event.ID == "" {
		t.Error("Create should assign an ID")
	}
}

func TestGetEventByID_Found(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectQuery("SELECT.*FROM events WHERE id").
		WithArgs("event-1").
		WillReturnRows(sampleEventRow())

	event, err := repo.GetByID(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil {
		t.Fatal("expected event, got nil")
	}
	if event.Name != "Summer Fair" {
		t.Errorf("Name = %q, want Summer Fair", event.Name)
	}
}

func TestGetEventByID_NotFound(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectQuery("SELECT.*FROM events WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(eventCols))

	event, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("expected nil event, got %v", event)
	}
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func TestTransitionEvent_Valid(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec("UPDATE events").
		WithArgs("event-1", "draft", "planning", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Transition(context.Background(), "event-1", "draft", "planning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionEvent_InvalidPair(t *testing.T) {
	repo, _ := newEventRepo(t)

	// draft → completed is not in the transition table; no query is issued.
	err := repo.Transition(context.Background(), "event-1", "draft", "completed")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionEvent_StaleStatus(t *testing.T) {
	repo, mock := newEventRepo(t)
	// Valid pair, but the stored row no longer matches currentStatus.
	mock.ExpectExec("UPDATE events").
		WithArgs("event-1", "draft", "planning", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), "event-1", "draft", "planning")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionEvent_DBError(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec("UPDATE events").
		WillReturnError(errDB)

	err := repo.Transition(context.Background(), "event-1", "active", "completed")
	if err == nil || errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected plain db error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Publish
// ---------------------------------------------------------------------------

func TestPublishEvent(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec("UPDATE events.*published_at = COALESCE").
		WithArgs("event-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Publish(context.Background(), "event-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestListEvents_NoFilters(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM events").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM events").
		WillReturnRows(sampleEventRow())

	events, total, err := repo.List(context.Background(), nil, nil, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(events) != 1 {
		t.Errorf("len(events) = %d, want 1", len(events))
	}
}

func TestListEvents_ByOrganizerAndStatus(t *testing.T) {
	repo, mock := newEventRepo(t)
	organizer := "user-1"
	status := "active"

	mock.ExpectQuery("SELECT COUNT.*FROM events.*organizer_id.*status").
		WithArgs(organizer, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT.*FROM events.*organizer_id.*status").
		WithArgs(organizer, status, 10, 0).
		WillReturnRows(sqlmock.NewRows(eventCols))

	events, total, err := repo.List(context.Background(), &organizer, &status, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(events) != 0 {
		t.Errorf("total = %d, len = %d, want 0, 0", total, len(events))
	}
}

// ---------------------------------------------------------------------------
// Attachments
// ---------------------------------------------------------------------------

func TestAttachVendor(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec("INSERT INTO event_vendors").
		WithArgs("event-1", "vendor-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AttachVendor(context.Background(), "event-1", "vendor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssignVolunteer(t *testing.T) {
	repo, mock := newEventRepo(t)
	mock.ExpectExec("INSERT INTO event_volunteers").
		WithArgs("event-1", "vol-1", "registration desk", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AssignVolunteer(context.Background(), "event-1", "vol-1", "registration desk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
