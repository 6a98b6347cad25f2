// event_repository.go implements EventRepository, covering event CRUD, the
// status transition update, publishing, and the attachment tables linking
// events to vendors, sponsors, and volunteers.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

// ErrInvalidTransition is returned when a status change is not permitted by
// the event state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

const eventColumns = `id, organizer_id, name, description, location, status,
	starts_at, ends_at, published_at, created_at, updated_at`

// EventRepository handles event database operations
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event in draft status
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	event.ID = uuid.New().String()
	event.Status = models.EventStatusDraft
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	query := `
		INSERT INTO events (id, organizer_id, name, description, location, status,
			starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.OrganizerID,
		event.Name,
		event.Description,
		event.Location,
		event.Status,
		event.StartsAt,
		event.EndsAt,
		event.CreatedAt,
		event.UpdatedAt,
	)

	return err
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.Location,
		&event.Status,
		&event.StartsAt,
		&event.EndsAt,
		&event.PublishedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return event, nil
}

// Update updates an event's editable fields. Status changes go through
// Transition, not here.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now()

	query := `
		UPDATE events
		SET name = $2, description = $3, location = $4, starts_at = $5, ends_at = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Location,
		event.StartsAt,
		event.EndsAt,
		event.UpdatedAt,
	)

	return err
}

// Transition moves an event to a new status, enforcing the state machine
// against the current stored status inside the UPDATE itself so concurrent
// transitions cannot race past the table.
func (r *EventRepository) Transition(ctx context.Context, eventID, currentStatus, nextStatus string) error {
	if !models.IsValidEventStatusTransition(currentStatus, nextStatus) {
		return ErrInvalidTransition
	}

	query := `
		UPDATE events
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, eventID, currentStatus, nextStatus, time.Now())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Stored status moved underneath us.
		return ErrInvalidTransition
	}

	return nil
}

// Publish stamps published_at on an event the first time it is published
func (r *EventRepository) Publish(ctx context.Context, eventID string) error {
	query := `
		UPDATE events
		SET published_at = COALESCE(published_at, $2), updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, eventID, time.Now())
	return err
}

// Delete deletes an event (cascades to attachments, budget items, tickets)
func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	query := `DELETE FROM events WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, eventID)
	return err
}

// List retrieves a paginated list of events, optionally restricted to one
// organizer and/or one status.
func (r *EventRepository) List(ctx context.Context, organizerID, status *string, limit, offset int) ([]*models.Event, int, error) {
	countQuery := `SELECT COUNT(*) FROM events WHERE 1=1`
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`

	args := make([]interface{}, 0)
	paramIndex := 1

	if organizerID != nil {
		cond := fmt.Sprintf(` AND organizer_id = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *organizerID)
		paramIndex++
	}
	if status != nil {
		cond := fmt.Sprintf(` AND status = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *status)
		paramIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID,
			&event.OrganizerID,
			&event.Name,
			&event.Description,
			&event.Location,
			&event.Status,
			&event.StartsAt,
			&event.EndsAt,
			&event.PublishedAt,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}

	return events, total, rows.Err()
}

// AttachVendor links an approved vendor to an event
func (r *EventRepository) AttachVendor(ctx context.Context, eventID, vendorID string) error {
	query := `
		INSERT INTO event_vendors (event_id, vendor_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, eventID, vendorID, time.Now())
	return err
}

// DetachVendor removes a vendor link from an event
func (r *EventRepository) DetachVendor(ctx context.Context, eventID, vendorID string) error {
	query := `DELETE FROM event_vendors WHERE event_id = $1 AND vendor_id = $2`
	_, err := r.db.ExecContext(ctx, query, eventID, vendorID)
	return err
}

// AttachSponsor links an approved sponsor to an event
func (r *EventRepository) AttachSponsor(ctx context.Context, eventID, sponsorID string) error {
	query := `
		INSERT INTO event_sponsors (event_id, sponsor_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, eventID, sponsorID, time.Now())
	return err
}

// DetachSponsor removes a sponsor link from an event
func (r *EventRepository) DetachSponsor(ctx context.Context, eventID, sponsorID string) error {
	query := `DELETE FROM event_sponsors WHERE event_id = $1 AND sponsor_id = $2`
	_, err := r.db.ExecContext(ctx, query, eventID, sponsorID)
	return err
}

// AssignVolunteer links a volunteer to an event with an assignment description
func (r *EventRepository) AssignVolunteer(ctx context.Context, eventID, volunteerID, assignment string) error {
	query := `
		INSERT INTO event_volunteers (event_id, volunteer_id, assignment, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, volunteer_id) DO UPDATE SET assignment = EXCLUDED.assignment
	`
	_, err := r.db.ExecContext(ctx, query, eventID, volunteerID, assignment, time.Now())
	return err
}

// UnassignVolunteer removes a volunteer from an event
func (r *EventRepository) UnassignVolunteer(ctx context.Context, eventID, volunteerID string) error {
	query := `DELETE FROM event_volunteers WHERE event_id = $1 AND volunteer_id = $2`
	_, err := r.db.ExecContext(ctx, query, eventID, volunteerID)
	return err
}
