package store

import (
	"context"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.AutomationStatus `json:"status,omitempty"`
	Limit  int                    `json:"limit,omitempty"`
	Offset int                    `json:"offset,omitempty"`
}

// Store defines run persistence for audit and triage.
type Store interface {
	CreateRun(ctx context.Context, query string, mode model.Mode) (*model.Run, error)
	SaveResult(ctx context.Context, runID string, record *model.EnrichedRecord, logs []string, status model.AutomationStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
