package audit

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/eventlane/eventlane/internal/db/repositories"
)

func newRecorder(t *testing.T) (*Recorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecorder(repositories.NewAuditRepository(db), nil), mock
}

func TestEntryValidate(t *testing.T) {
	valid := &Entry{Action: ActionLogin, Resource: ResourceAuth, Status: StatusSuccess}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid entry rejected: %v", err)
	}

	tests := []struct {
		name  string
		entry Entry
	}{
		{"bad action", Entry{Action: "nonsense", Resource: ResourceAuth, Status: StatusSuccess}},
		{"bad resource", Entry{Action: ActionLogin, Resource: "nonsense", Status: StatusSuccess}},
		{"bad status", Entry{Action: ActionLogin, Resource: ResourceAuth, Status: "nonsense"}},
		{"empty entry", Entry{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("err = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestRecordSync_WritesRow(t *testing.T) {
	rec, mock := newRecorder(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &Entry{
		UserID:    "user-1",
		UserEmail: "alice@example.com",
		Action:    ActionLogin,
		Resource:  ResourceAuth,
		IPAddress: "203.0.113.1",
		Status:    StatusSuccess,
	}
	if err := rec.RecordSync(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordSync_DBErrorNotPropagated(t *testing.T) {
	rec, mock := newRecorder(t)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(errors.New("db down"))

	entry := &Entry{Action: ActionLogin, Resource: ResourceAuth, Status: StatusSuccess}

	// Persistence failures are logged and counted, never returned.
	if err := rec.RecordSync(context.Background(), entry); err != nil {
		t.Errorf("db error should not propagate, got %v", err)
	}
}

func TestRecord_RejectsInvalidVocabulary(t *testing.T) {
	rec, _ := newRecorder(t)

	entry := &Entry{Action: "made_up", Resource: ResourceAuth, Status: StatusSuccess}
	err := rec.Record(entry)
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("err = %v, want ErrInvalidEntry", err)
	}
}

func TestEntryToModel_EmptyStringsBecomeNulls(t *testing.T) {
	entry := &Entry{Action: ActionLogout, Resource: ResourceAuth, Status: StatusSuccess}
	row := entry.toModel()

	if row.UserID != nil || row.UserEmail != nil || row.IPAddress != nil ||
		row.UserAgent != nil || row.Endpoint != nil || row.ResourceID != nil ||
		row.ErrorMessage != nil {
		t.Error("empty fields should map to nil pointers")
	}
}

func TestEntryToModel_PopulatedFields(t *testing.T) {
	entry := &Entry{
		UserID:       "user-1",
		Action:       ActionLoginFailed,
		Resource:     ResourceAuth,
		IPAddress:    "203.0.113.1",
		Status:       StatusFailure,
		ErrorMessage: "invalid credentials",
		Metadata:     map[string]interface{}{"attempts": 3},
	}
	row := entry.toModel()

	if row.UserID == nil || *row.UserID != "user-1" {
		t.Error("UserID should map to pointer")
	}
	if row.ErrorMessage == nil || *row.ErrorMessage != "invalid credentials" {
		t.Error("ErrorMessage should map to pointer")
	}
	if row.Metadata["attempts"] != 3 {
		t.Error("Metadata should carry through")
	}
	if row.Status != "failure" {
		t.Errorf("Status = %q, want failure", row.Status)
	}
}
