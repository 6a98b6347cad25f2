// settings_repository.go implements SettingsRepository, a small key/value
// store over the settings table with JSONB values.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/eventlane/eventlane/internal/db/models"
)

// SettingsRepository handles platform settings database operations
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves one setting by key
func (r *SettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	query := `SELECT key, value, updated_by, updated_at FROM settings WHERE key = $1`

	setting := &models.Setting{}
	var valueJSON []byte

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&setting.Key,
		&valueJSON,
		&setting.UpdatedBy,
		&setting.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(valueJSON, &setting.Value); err != nil {
		return nil, err
	}

	return setting, nil
}

// Set upserts a setting value, recording who changed it
func (r *SettingsRepository) Set(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Now()

	valueJSON, err := json.Marshal(setting.Value)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		setting.Key,
		valueJSON,
		setting.UpdatedBy,
		setting.UpdatedAt,
	)

	return err
}

// List retrieves all settings ordered by key
func (r *SettingsRepository) List(ctx context.Context) ([]*models.Setting, error) {
	query := `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*models.Setting, 0)
	for rows.Next() {
		setting := &models.Setting{}
		var valueJSON []byte

		err := rows.Scan(
			&setting.Key,
			&valueJSON,
			&setting.UpdatedBy,
			&setting.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(valueJSON, &setting.Value); err != nil {
			return nil, err
		}

		settings = append(settings, setting)
	}

	return settings, rows.Err()
}

// Delete removes a setting
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM settings WHERE key = $1`
	_, err := r.db.ExecContext(ctx, query, key)
	return err
}
