// sponsor_repository.go implements SponsorRepository. Sponsors share the
// vendor approval flow but additionally carry a sponsorship tier.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

const sponsorColumns = `id, name, contact_email, tier, status, created_by, created_at, updated_at`

// SponsorRepository handles sponsor database operations
type SponsorRepository struct {
	db *sql.DB
}

// NewSponsorRepository creates a new SponsorRepository
func NewSponsorRepository(db *sql.DB) *SponsorRepository {
	return &SponsorRepository{db: db}
}

// Create creates a new sponsor in pending status
func (r *SponsorRepository) Create(ctx context.Context, sponsor *models.Sponsor) error {
	sponsor.ID = uuid.New().String()
	sponsor.Status = models.ApprovalStatusPending
	sponsor.CreatedAt = time.Now()
	sponsor.UpdatedAt = time.Now()

	query := `
		INSERT INTO sponsors (id, name, contact_email, tier, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		sponsor.ID,
		sponsor.Name,
		sponsor.ContactEmail,
		sponsor.Tier,
		sponsor.Status,
		sponsor.CreatedBy,
		sponsor.CreatedAt,
		sponsor.UpdatedAt,
	)

	return err
}

// GetByID retrieves a sponsor by ID
func (r *SponsorRepository) GetByID(ctx context.Context, sponsorID string) (*models.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors WHERE id = $1`

	sponsor := &models.Sponsor{}
	err := r.db.QueryRowContext(ctx, query, sponsorID).Scan(
		&sponsor.ID,
		&sponsor.Name,
		&sponsor.ContactEmail,
		&sponsor.Tier,
		&sponsor.Status,
		&sponsor.CreatedBy,
		&sponsor.CreatedAt,
		&sponsor.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return sponsor, nil
}

// Update updates a sponsor's editable fields
func (r *SponsorRepository) Update(ctx context.Context, sponsor *models.Sponsor) error {
	sponsor.UpdatedAt = time.Now()

	query := `
		UPDATE sponsors
		SET name = $2, contact_email = $3, tier = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		sponsor.ID,
		sponsor.Name,
		sponsor.ContactEmail,
		sponsor.Tier,
		sponsor.UpdatedAt,
	)

	return err
}

// SetStatus moves a sponsor to approved or rejected
func (r *SponsorRepository) SetStatus(ctx context.Context, sponsorID, status string) error {
	query := `UPDATE sponsors SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, sponsorID, status, time.Now())
	return err
}

// Delete deletes a sponsor
func (r *SponsorRepository) Delete(ctx context.Context, sponsorID string) error {
	query := `DELETE FROM sponsors WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, sponsorID)
	return err
}

// List retrieves a paginated list of sponsors, optionally filtered by status
func (r *SponsorRepository) List(ctx context.Context, status *string, limit, offset int) ([]*models.Sponsor, int, error) {
	countQuery := `SELECT COUNT(*) FROM sponsors`
	query := `SELECT ` + sponsorColumns + ` FROM sponsors`

	args := make([]interface{}, 0)
	if status != nil {
		countQuery += ` WHERE status = $1`
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if status != nil {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sponsors := make([]*models.Sponsor, 0)
	for rows.Next() {
		sponsor := &models.Sponsor{}
		err := rows.Scan(
			&sponsor.ID,
			&sponsor.Name,
			&sponsor.ContactEmail,
			&sponsor.Tier,
			&sponsor.Status,
			&sponsor.CreatedBy,
			&sponsor.CreatedAt,
			&sponsor.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		sponsors = append(sponsors, sponsor)
	}

	return sponsors, total, rows.Err()
}

// ListForEvent retrieves the sponsors attached to an event
func (r *SponsorRepository) ListForEvent(ctx context.Context, eventID string) ([]*models.Sponsor, error) {
	query := `
		SELECT s.id, s.name, s.contact_email, s.tier, s.status, s.created_by, s.created_at, s.updated_at
		FROM sponsors s
		JOIN event_sponsors es ON es.sponsor_id = s.id
		WHERE es.event_id = $1
		ORDER BY s.name
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sponsors := make([]*models.Sponsor, 0)
	for rows.Next() {
		sponsor := &models.Sponsor{}
		err := rows.Scan(
			&sponsor.ID,
			&sponsor.Name,
			&sponsor.ContactEmail,
			&sponsor.Tier,
			&sponsor.Status,
			&sponsor.CreatedBy,
			&sponsor.CreatedAt,
			&sponsor.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sponsors = append(sponsors, sponsor)
	}

	return sponsors, rows.Err()
}
