// budget_repository.go implements BudgetRepository, covering budget line item
// CRUD, the planned/committed/paid/cancelled status flow, and the per-event
// summary aggregation grouped by category and status.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

const budgetColumns = `id, event_id, category, name, estimated_cents, actual_cents,
	status, vendor_id, sponsor_id, paid_at, created_at, updated_at`

// BudgetRepository handles budget item database operations
type BudgetRepository struct {
	db *sql.DB
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Create creates a new budget item in planned status
func (r *BudgetRepository) Create(ctx context.Context, item *models.BudgetItem) error {
	item.ID = uuid.New().String()
	item.Status = models.BudgetStatusPlanned
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	query := `
		INSERT INTO budget_items (id, event_id, category, name, estimated_cents,
			actual_cents, status, vendor_id, sponsor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.EventID,
		item.Category,
		item.Name,
		item.EstimatedCents,
		item.ActualCents,
		item.Status,
		item.VendorID,
		item.SponsorID,
		item.CreatedAt,
		item.UpdatedAt,
	)

	return err
}

// GetByID retrieves a budget item by ID
func (r *BudgetRepository) GetByID(ctx context.Context, itemID string) (*models.BudgetItem, error) {
	query := `SELECT ` + budgetColumns + ` FROM budget_items WHERE id = $1`

	item := &models.BudgetItem{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&item.ID,
		&item.EventID,
		&item.Category,
		&item.Name,
		&item.EstimatedCents,
		&item.ActualCents,
		&item.Status,
		&item.VendorID,
		&item.SponsorID,
		&item.PaidAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Update updates a budget item's editable fields. Status changes go through
// Transition.
func (r *BudgetRepository) Update(ctx context.Context, item *models.BudgetItem) error {
	item.UpdatedAt = time.Now()

	query := `
		UPDATE budget_items
		SET category = $2, name = $3, estimated_cents = $4, actual_cents = $5,
			vendor_id = $6, sponsor_id = $7, updated_at = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Category,
		item.Name,
		item.EstimatedCents,
		item.ActualCents,
		item.VendorID,
		item.SponsorID,
		item.UpdatedAt,
	)

	return err
}

// Transition moves a budget item to a new status, enforcing the state machine
// against the stored status. Moving to paid stamps paid_at.
func (r *BudgetRepository) Transition(ctx context.Context, itemID, currentStatus, nextStatus string) error {
	if !models.IsValidBudgetStatusTransition(currentStatus, nextStatus) {
		return ErrInvalidTransition
	}

	now := time.Now()
	var result sql.Result
	var err error

	if nextStatus == models.BudgetStatusPaid {
		query := `
			UPDATE budget_items
			SET status = $3, paid_at = $4, updated_at = $4
			WHERE id = $1 AND status = $2
		`
		result, err = r.db.ExecContext(ctx, query, itemID, currentStatus, nextStatus, now)
	} else {
		query := `
			UPDATE budget_items
			SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2
		`
		result, err = r.db.ExecContext(ctx, query, itemID, currentStatus, nextStatus, now)
	}
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidTransition
	}

	return nil
}

// Delete deletes a budget item
func (r *BudgetRepository) Delete(ctx context.Context, itemID string) error {
	query := `DELETE FROM budget_items WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, itemID)
	return err
}

// ListForEvent retrieves all budget items for an event
func (r *BudgetRepository) ListForEvent(ctx context.Context, eventID string) ([]*models.BudgetItem, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budget_items
		WHERE event_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.BudgetItem, 0)
	for rows.Next() {
		item := &models.BudgetItem{}
		err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.Category,
			&item.Name,
			&item.EstimatedCents,
			&item.ActualCents,
			&item.Status,
			&item.VendorID,
			&item.SponsorID,
			&item.PaidAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SummaryByEvent aggregates an event's budget by category and status.
// Amounts stay in cents; presentation is a client concern.
func (r *BudgetRepository) SummaryByEvent(ctx context.Context, eventID string) ([]*models.BudgetSummaryRow, error) {
	query := `
		SELECT category, status, COUNT(*),
		       COALESCE(SUM(estimated_cents), 0), COALESCE(SUM(actual_cents), 0)
		FROM budget_items
		WHERE event_id = $1
		GROUP BY category, status
		ORDER BY category, status
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make([]*models.BudgetSummaryRow, 0)
	for rows.Next() {
		row := &models.BudgetSummaryRow{}
		err := rows.Scan(
			&row.Category,
			&row.Status,
			&row.Items,
			&row.EstimatedCents,
			&row.ActualCents,
		)
		if err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}

	return summary, rows.Err()
}
