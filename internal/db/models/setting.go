package models

import "time"

// Setting is a single platform configuration value stored as JSONB.
// Settings changes are audit-logged with the settings resource.
type Setting struct {
	Key       string                 `json:"key"`
	Value     map[string]interface{} `json:"value"`
	UpdatedBy *string                `json:"updated_by,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}
