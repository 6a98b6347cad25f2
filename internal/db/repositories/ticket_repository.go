// ticket_repository.go implements TicketRepository. The purchase path is a
// single guarded UPDATE so the sold counter can never pass quantity, even
// under concurrent purchases against the same ticket type.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

// ErrSoldOut is returned when a purchase would exceed the ticket inventory.
var ErrSoldOut = errors.New("not enough tickets remaining")

const ticketColumns = `id, event_id, name, price_cents, quantity, sold, created_at, updated_at`

// TicketRepository handles ticket type database operations
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create creates a new ticket type
func (r *TicketRepository) Create(ctx context.Context, ticket *models.TicketType) error {
	ticket.ID = uuid.New().String()
	ticket.Sold = 0
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = time.Now()

	query := `
		INSERT INTO ticket_types (id, event_id, name, price_cents, quantity, sold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.Name,
		ticket.PriceCents,
		ticket.Quantity,
		ticket.Sold,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)

	return err
}

// GetByID retrieves a ticket type by ID
func (r *TicketRepository) GetByID(ctx context.Context, ticketID string) (*models.TicketType, error) {
	query := `SELECT ` + ticketColumns + ` FROM ticket_types WHERE id = $1`

	ticket := &models.TicketType{}
	err := r.db.QueryRowContext(ctx, query, ticketID).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.Name,
		&ticket.PriceCents,
		&ticket.Quantity,
		&ticket.Sold,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// Update updates a ticket type's name, price, and quantity. Quantity may not
// drop below the number already sold; the guard runs in SQL.
func (r *TicketRepository) Update(ctx context.Context, ticket *models.TicketType) error {
	ticket.UpdatedAt = time.Now()

	query := `
		UPDATE ticket_types
		SET name = $2, price_cents = $3, quantity = $4, updated_at = $5
		WHERE id = $1 AND sold <= $4
	`

	result, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Name,
		ticket.PriceCents,
		ticket.Quantity,
		ticket.UpdatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSoldOut
	}

	return nil
}

// Purchase advances the sold counter by count. The WHERE clause rejects the
// update when the inventory cannot cover it, returning ErrSoldOut.
func (r *TicketRepository) Purchase(ctx context.Context, ticketID string, count int) error {
	if count <= 0 {
		return errors.New("purchase count must be positive")
	}

	query := `
		UPDATE ticket_types
		SET sold = sold + $2, updated_at = $3
		WHERE id = $1 AND sold + $2 <= quantity
	`

	result, err := r.db.ExecContext(ctx, query, ticketID, count, time.Now())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSoldOut
	}

	return nil
}

// Delete deletes a ticket type
func (r *TicketRepository) Delete(ctx context.Context, ticketID string) error {
	query := `DELETE FROM ticket_types WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, ticketID)
	return err
}

// ListForEvent retrieves all ticket types for an event
func (r *TicketRepository) ListForEvent(ctx context.Context, eventID string) ([]*models.TicketType, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY price_cents
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*models.TicketType, 0)
	for rows.Next() {
		ticket := &models.TicketType{}
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.Name,
			&ticket.PriceCents,
			&ticket.Quantity,
			&ticket.Sold,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}
