package repository

import (
	"context"

	"github.com/pdv-analysis/pkg/model"
)

// BackupRepository defines the interface for persisted analysis runs.
type BackupRepository interface {
	// SaveResult persists a full analysis result under a run UUID.
	SaveResult(ctx context.Context, runUUID string, result *model.AnalysisResult) error

	// GetByRunUUID retrieves the analysis result for a run, including its
	// invoice records.
	GetByRunUUID(ctx context.Context, runUUID string) (*model.AnalysisResult, error)

	// ListRecent returns summaries of the most recent runs.
	ListRecent(ctx context.Context, limit int) ([]*model.BackupFile, error)

	// DeleteRun removes a run and its invoice records.
	DeleteRun(ctx context.Context, runUUID string) error
}

// InvoiceRepository defines the interface for invoice record queries.
type InvoiceRepository interface {
	// GetByRunUUID retrieves all invoice records for a run in extraction
	// order.
	GetByRunUUID(ctx context.Context, runUUID string) ([]model.InvoiceRecord, error)

	// GetBySeries retrieves the records of one series within a run.
	GetBySeries(ctx context.Context, runUUID string, series string) ([]model.InvoiceRecord, error)

	// CountByRunUUID returns the number of records stored for a run.
	CountByRunUUID(ctx context.Context, runUUID string) (int, error)
}
