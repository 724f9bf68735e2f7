package model

import "time"

// Run is a persisted research run for audit and triage.
type Run struct {
	ID        string           `json:"id"`
	Query     string           `json:"query"`
	Mode      Mode             `json:"mode"`
	Status    AutomationStatus `json:"status"`
	Record    *EnrichedRecord  `json:"record,omitempty"`
	Logs      []string         `json:"logs,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
