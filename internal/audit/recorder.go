// recorder.go implements the Recorder, the single write path into the audit
// trail. Entries are validated against the closed vocabularies synchronously,
// then persisted and shipped in the background: audit writes are best-effort
// and must never fail or slow down the request that triggered them.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/safego"
	"github.com/eventlane/eventlane/internal/telemetry"
)

// writeTimeout bounds the background DB write and shipper call for one entry.
const writeTimeout = 5 * time.Second

// ErrInvalidEntry is returned when an entry fails vocabulary validation.
var ErrInvalidEntry = errors.New("invalid audit entry")

// Entry is one audit record as produced by handlers and middleware. The
// Recorder assigns the ID and timestamp.
type Entry struct {
	UserID       string
	UserEmail    string
	Action       Action
	Resource     Resource
	ResourceID   string
	IPAddress    string
	UserAgent    string
	Endpoint     string
	Metadata     map[string]interface{}
	Status       Status
	ErrorMessage string
}

// Validate checks the entry against the closed vocabularies.
func (e *Entry) Validate() error {
	if !ValidAction(e.Action) {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEntry, e.Action)
	}
	if !ValidResource(e.Resource) {
		return fmt.Errorf("%w: unknown resource %q", ErrInvalidEntry, e.Resource)
	}
	if !ValidStatus(e.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, e.Status)
	}
	return nil
}

// Recorder validates and persists audit entries, optionally forwarding each
// entry to external shipping destinations.
type Recorder struct {
	repo    *repositories.AuditRepository
	shipper Shipper
}

// NewRecorder creates a Recorder. shipper may be nil when no external
// destinations are configured.
func NewRecorder(repo *repositories.AuditRepository, shipper Shipper) *Recorder {
	return &Recorder{repo: repo, shipper: shipper}
}

// Record validates the entry, then writes and ships it in the background.
// Vocabulary violations are reported to the caller; persistence failures are
// logged and counted but never propagated, so a degraded audit store cannot
// take user-facing operations down with it.
func (r *Recorder) Record(entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	row := entry.toModel()

	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		r.write(ctx, row, entry)
	})

	return nil
}

// RecordSync is Record without the background hop, for callers that are
// already off the request path (jobs, shutdown hooks) and for tests.
func (r *Recorder) RecordSync(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	r.write(ctx, entry.toModel(), entry)
	return nil
}

func (r *Recorder) write(ctx context.Context, row *models.AuditLog, entry *Entry) {
	if r.repo != nil {
		if err := r.repo.Create(ctx, row); err != nil {
			telemetry.AuditWriteErrorsTotal.Inc()
			slog.Error("failed to persist audit entry",
				"action", entry.Action,
				"resource", entry.Resource,
				"error", err,
			)
		} else {
			telemetry.AuditEntriesTotal.WithLabelValues(string(entry.Status)).Inc()
		}
	}

	if r.shipper != nil {
		shipped := &LogEntry{
			Timestamp:    row.CreatedAt,
			Action:       string(entry.Action),
			Resource:     string(entry.Resource),
			ResourceID:   entry.ResourceID,
			UserID:       entry.UserID,
			UserEmail:    entry.UserEmail,
			IPAddress:    entry.IPAddress,
			UserAgent:    entry.UserAgent,
			Endpoint:     entry.Endpoint,
			Status:       string(entry.Status),
			ErrorMessage: entry.ErrorMessage,
			Metadata:     entry.Metadata,
		}
		if err := r.shipper.Ship(ctx, shipped); err != nil {
			slog.Error("failed to ship audit entry", "action", entry.Action, "error", err)
		}
	}
}

// toModel converts the entry to its database row. Empty strings become NULLs
// so absent context is queryable as such.
func (e *Entry) toModel() *models.AuditLog {
	row := &models.AuditLog{
		Action:   string(e.Action),
		Resource: string(e.Resource),
		Status:   string(e.Status),
		Metadata: e.Metadata,
	}

	if e.UserID != "" {
		row.UserID = &e.UserID
	}
	if e.UserEmail != "" {
		row.UserEmail = &e.UserEmail
	}
	if e.ResourceID != "" {
		row.ResourceID = &e.ResourceID
	}
	if e.IPAddress != "" {
		row.IPAddress = &e.IPAddress
	}
	if e.UserAgent != "" {
		row.UserAgent = &e.UserAgent
	}
	if e.Endpoint != "" {
		row.Endpoint = &e.Endpoint
	}
	if e.ErrorMessage != "" {
		row.ErrorMessage = &e.ErrorMessage
	}

	return row
}
