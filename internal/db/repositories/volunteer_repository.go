// volunteer_repository.go implements VolunteerRepository for volunteer
// signups and per-event assignment lookups.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

// VolunteerRepository handles volunteer database operations
type VolunteerRepository struct {
	db *sql.DB
}

// NewVolunteerRepository creates a new VolunteerRepository
func NewVolunteerRepository(db *sql.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// Create registers a new volunteer
func (r *VolunteerRepository) Create(ctx context.Context, volunteer *models.Volunteer) error {
	volunteer.ID = uuid.New().String()
	volunteer.CreatedAt = time.Now()

	query := `
		INSERT INTO volunteers (id, user_id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		volunteer.ID,
		volunteer.UserID,
		volunteer.Name,
		volunteer.Email,
		volunteer.Phone,
		volunteer.CreatedAt,
	)

	return err
}

// GetByID retrieves a volunteer by ID
func (r *VolunteerRepository) GetByID(ctx context.Context, volunteerID string) (*models.Volunteer, error) {
	query := `
		SELECT id, user_id, name, email, phone, created_at
		FROM volunteers
		WHERE id = $1
	`

	volunteer := &models.Volunteer{}
	err := r.db.QueryRowContext(ctx, query, volunteerID).Scan(
		&volunteer.ID,
		&volunteer.UserID,
		&volunteer.Name,
		&volunteer.Email,
		&volunteer.Phone,
		&volunteer.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return volunteer, nil
}

// Delete removes a volunteer and their assignments
func (r *VolunteerRepository) Delete(ctx context.Context, volunteerID string) error {
	query := `DELETE FROM volunteers WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, volunteerID)
	return err
}

// List retrieves a paginated list of volunteers
func (r *VolunteerRepository) List(ctx context.Context, limit, offset int) ([]*models.Volunteer, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, name, email, phone, created_at
		FROM volunteers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	volunteers := make([]*models.Volunteer, 0)
	for rows.Next() {
		volunteer := &models.Volunteer{}
		err := rows.Scan(
			&volunteer.ID,
			&volunteer.UserID,
			&volunteer.Name,
			&volunteer.Email,
			&volunteer.Phone,
			&volunteer.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		volunteers = append(volunteers, volunteer)
	}

	return volunteers, total, rows.Err()
}

// ListForEvent retrieves the volunteers assigned to an event with their
// assignment descriptions.
func (r *VolunteerRepository) ListForEvent(ctx context.Context, eventID string) ([]*models.Volunteer, []*models.VolunteerAssignment, error) {
	query := `
		SELECT v.id, v.user_id, v.name, v.email, v.phone, v.created_at,
		       ev.event_id, ev.assignment, ev.created_at
		FROM volunteers v
		JOIN event_volunteers ev ON ev.volunteer_id = v.id
		WHERE ev.event_id = $1
		ORDER BY v.name
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	volunteers := make([]*models.Volunteer, 0)
	assignments := make([]*models.VolunteerAssignment, 0)
	for rows.Next() {
		volunteer := &models.Volunteer{}
		assignment := &models.VolunteerAssignment{}
		err := rows.Scan(
			&volunteer.ID,
			&volunteer.UserID,
			&volunteer.Name,
			&volunteer.Email,
			&volunteer.Phone,
			&volunteer.CreatedAt,
			&assignment.EventID,
			&assignment.Assignment,
			&assignment.CreatedAt,
		)
		if err != nil {
			return nil, nil, err
		}
		assignment.VolunteerID = volunteer.ID
		volunteers = append(volunteers, volunteer)
		assignments = append(assignments, assignment)
	}

	return volunteers, assignments, rows.Err()
}
