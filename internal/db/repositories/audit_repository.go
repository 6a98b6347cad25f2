// audit_repository.go implements AuditRepository, providing database queries for writing
// and retrieving audit log entries with support for filtered queries, security event
// windows, aggregate stats, and batched retention deletes.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/db/models"
)

// auditColumns is the column list shared by every audit SELECT.
const auditColumns = `id, user_id, user_email, action, resource, resource_id,
	ip_address, user_agent, endpoint, metadata, status, error_message, created_at`

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying audit logs
type AuditFilters struct {
	UserID    *string
	Action    *string
	Resource  *string
	Status    *string
	StartDate *time.Time
	EndDate   *time.Time
}

// AuditStats aggregates counts over a trailing window, grouped by status and
// by action.
type AuditStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByAction map[string]int64 `json:"by_action"`
}

// Create inserts a new audit log entry. The ID and timestamp are assigned
// here; callers must not set them.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now()

	// Marshal metadata to JSONB
	var metadataJSON []byte
	var err error
	if log.Metadata != nil {
		metadataJSON, err = json.Marshal(log.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (id, user_id, user_email, action, resource, resource_id,
			ip_address, user_agent, endpoint, metadata, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.UserEmail,
		log.Action,
		log.Resource,
		log.ResourceID,
		log.IPAddress,
		log.UserAgent,
		log.Endpoint,
		metadataJSON,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

// ListByUser retrieves the most recent entries for one user, newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, auditColumns)

	return r.queryLogs(ctx, query, userID, limit)
}

// ListByAction retrieves entries for one action, optionally restricted to
// entries at or after since. A zero since applies no lower bound.
func (r *AuditRepository) ListByAction(ctx context.Context, action string, since time.Time, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	if since.IsZero() {
		query := fmt.Sprintf(`
			SELECT %s FROM audit_logs
			WHERE action = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, auditColumns)
		return r.queryLogs(ctx, query, action, limit)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE action = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, auditColumns)
	return r.queryLogs(ctx, query, action, since, limit)
}

// ListByResource retrieves entries touching one resource type, optionally
// narrowed to a single resource instance.
func (r *AuditRepository) ListByResource(ctx context.Context, resource string, resourceID *string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	if resourceID != nil {
		query := fmt.Sprintf(`
			SELECT %s FROM audit_logs
			WHERE resource = $1 AND resource_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		`, auditColumns)
		return r.queryLogs(ctx, query, resource, *resourceID, limit)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE resource = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, auditColumns)
	return r.queryLogs(ctx, query, resource, limit)
}

// ListSecurityEvents retrieves failure and blocked entries within the last
// hoursBack hours. hoursBack <= 0 yields an empty window.
func (r *AuditRepository) ListSecurityEvents(ctx context.Context, hoursBack, limit int) ([]*models.AuditLog, error) {
	if hoursBack <= 0 {
		return []*models.AuditLog{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE status IN ('failure', 'blocked') AND created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, auditColumns)

	return r.queryLogs(ctx, query, since, limit)
}

// ListFiltered retrieves entries matching the filters with pagination.
// Filtering happens in SQL so a page is never under-filled.
func (r *AuditRepository) ListFiltered(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	query := fmt.Sprintf(`SELECT %s FROM audit_logs WHERE 1=1`, auditColumns)

	args := make([]interface{}, 0)
	paramIndex := 1

	addFilter := func(clause string, value interface{}) {
		cond := fmt.Sprintf(clause, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, value)
		paramIndex++
	}

	if filters.UserID != nil {
		addFilter(` AND user_id = $%d`, *filters.UserID)
	}
	if filters.Action != nil {
		addFilter(` AND action = $%d`, *filters.Action)
	}
	if filters.Resource != nil {
		addFilter(` AND resource = $%d`, *filters.Resource)
	}
	if filters.Status != nil {
		addFilter(` AND status = $%d`, *filters.Status)
	}
	if filters.StartDate != nil {
		addFilter(` AND created_at >= $%d`, *filters.StartDate)
	}
	if filters.EndDate != nil {
		addFilter(` AND created_at <= $%d`, *filters.EndDate)
	}

	// Get total count
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	logs, err := r.queryLogs(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// Stats aggregates entry counts over the last hoursBack hours.
func (r *AuditRepository) Stats(ctx context.Context, hoursBack int) (*AuditStats, error) {
	if hoursBack <= 0 {
		hoursBack = 1
	}
	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	stats := &AuditStats{
		ByStatus: make(map[string]int64),
		ByAction: make(map[string]int64),
	}

	statusRows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM audit_logs
		WHERE created_at >= $1
		GROUP BY status
	`, since)
	if err != nil {
		return nil, err
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var status string
		var count int64
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	actionRows, err := r.db.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM audit_logs
		WHERE created_at >= $1
		GROUP BY action
		ORDER BY COUNT(*) DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer actionRows.Close()

	for actionRows.Next() {
		var action string
		var count int64
		if err := actionRows.Scan(&action, &count); err != nil {
			return nil, err
		}
		stats.ByAction[action] = count
	}

	return stats, actionRows.Err()
}

// DeleteOlderThan removes at most batchSize entries created before cutoff and
// returns the number removed. The retention job calls this repeatedly until a
// short batch signals the backlog is drained.
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	// The id subquery bounds the delete; Postgres DELETE has no LIMIT of its own.
	query := `
		DELETE FROM audit_logs
		WHERE id IN (
			SELECT id FROM audit_logs
			WHERE created_at < $1
			LIMIT $2
		)
	`

	result, err := r.db.ExecContext(ctx, query, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryLogs runs a SELECT over audit_logs and scans the shared column set.
func (r *AuditRepository) queryLogs(ctx context.Context, query string, args ...interface{}) ([]*models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log := &models.AuditLog{}
		var metadataJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.UserEmail,
			&log.Action,
			&log.Resource,
			&log.ResourceID,
			&log.IPAddress,
			&log.UserAgent,
			&log.Endpoint,
			&metadataJSON,
			&log.Status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &log.Metadata); err != nil {
				return nil, err
			}
		}

		logs = append(logs, log)
	}

	return logs, rows.Err()
}
