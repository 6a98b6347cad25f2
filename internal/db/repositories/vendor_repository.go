// vendor_repository.go implements VendorRepository, covering vendor CRUD and
// the pending/approved/rejected approval flow driven by admins.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

const vendorColumns = `id, name, contact_email, category, status, created_by, created_at, updated_at`

// VendorRepository handles vendor database operations
type VendorRepository struct {
	db *sql.DB
}

// NewVendorRepository creates a new VendorRepository
func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// Create creates a new vendor in pending status
func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	vendor.ID = uuid.New().String()
	vendor.Status = models.ApprovalStatusPending
	vendor.CreatedAt = time.Now()
	vendor.UpdatedAt = time.Now()

	query := `
		INSERT INTO vendors (id, name, contact_email, category, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		vendor.ID,
		vendor.Name,
		vendor.ContactEmail,
		vendor.Category,
		vendor.Status,
		vendor.CreatedBy,
		vendor.CreatedAt,
		vendor.UpdatedAt,
	)

	return err
}

// GetByID retrieves a vendor by ID
func (r *VendorRepository) GetByID(ctx context.Context, vendorID string) (*models.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`

	vendor := &models.Vendor{}
	err := r.db.QueryRowContext(ctx, query, vendorID).Scan(
		&vendor.ID,
		&vendor.Name,
		&vendor.ContactEmail,
		&vendor.Category,
		&vendor.Status,
		&vendor.CreatedBy,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return vendor, nil
}

// Update updates a vendor's editable fields
func (r *VendorRepository) Update(ctx context.Context, vendor *models.Vendor) error {
	vendor.UpdatedAt = time.Now()

	query := `
		UPDATE vendors
		SET name = $2, contact_email = $3, category = $4, updated_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		vendor.ID,
		vendor.Name,
		vendor.ContactEmail,
		vendor.Category,
		vendor.UpdatedAt,
	)

	return err
}

// SetStatus moves a vendor to approved or rejected
func (r *VendorRepository) SetStatus(ctx context.Context, vendorID, status string) error {
	query := `UPDATE vendors SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, vendorID, status, time.Now())
	return err
}

// Delete deletes a vendor
func (r *VendorRepository) Delete(ctx context.Context, vendorID string) error {
	query := `DELETE FROM vendors WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, vendorID)
	return err
}

// List retrieves a paginated list of vendors, optionally filtered by status
func (r *VendorRepository) List(ctx context.Context, status *string, limit, offset int) ([]*models.Vendor, int, error) {
	countQuery := `SELECT COUNT(*) FROM vendors`
	query := `SELECT ` + vendorColumns + ` FROM vendors`

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

	vendors := make([]*models.Vendor, 0)
	for rows.Next() {
		vendor := &models.Vendor{}
		err := rows.Scan(
			&vendor.ID,
			&vendor.Name,
			&vendor.ContactEmail,
			&vendor.Category,
			&vendor.Status,
			&vendor.CreatedBy,
			&vendor.CreatedAt,
			&vendor.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		vendors = append(vendors, vendor)
	}

	return vendors, total, rows.Err()
}

// ListForEvent retrieves the vendors attached to an event
func (r *VendorRepository) ListForEvent(ctx context.Context, eventID string) ([]*models.Vendor, error) {
	query := `
		SELECT v.id, v.name, v.contact_email, v.category, v.status, v.created_by, v.created_at, v.updated_at
		FROM vendors v
		JOIN event_vendors ev ON ev.vendor_id = v.id
		WHERE ev.event_id = $1
		ORDER BY v.name
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := make([]*models.Vendor, 0)
	for rows.Next() {
		vendor := &models.Vendor{}
		err := rows.Scan(
			&vendor.ID,
			&vendor.Name,
			&vendor.ContactEmail,
			&vendor.Category,
			&vendor.Status,
			&vendor.CreatedBy,
			&vendor.CreatedAt,
			&vendor.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, vendor)
	}

	return vendors, rows.Err()
}
