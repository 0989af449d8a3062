package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pdv-analysis/pkg/model"
)

// GormBackupRepository implements BackupRepository using GORM.
type GormBackupRepository struct {
	db *gorm.DB
}

// NewGormBackupRepository creates a new GormBackupRepository.
func NewGormBackupRepository(db *gorm.DB) *GormBackupRepository {
	return &GormBackupRepository{db: db}
}

// SaveResult persists a full analysis result under a run UUID. The file
// summary and its invoice records are written in one transaction.
func (r *GormBackupRepository) SaveResult(ctx context.Context, runUUID string, result *model.AnalysisResult) error {
	blocksJSON, err := json.Marshal(result.Blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal blocks: %w", err)
	}
	regionsJSON, err := json.Marshal(result.Regions)
	if err != nil {
		return fmt.Errorf("failed to marshal regions: %w", err)
	}

	record := &BackupFileRecord{
		RunUUID:         runUUID,
		FileName:        result.File.FileName,
		SizeBytes:       result.File.SizeBytes,
		Signature:       result.File.Signature,
		FormatVersion:   result.File.FormatVersion,
		NullPercent:     result.File.NullPercent,
		ControlPercent:  result.File.ControlPercent,
		ASCIIPercent:    result.File.ASCIIPercent,
		OtherPercent:    result.File.OtherPercent,
		BlockCount:      result.File.BlockCount,
		NullRegionCount: result.File.NullRegionCount,
		RecordCount:     len(result.Records),
		Blocks:          blocksJSON,
		Regions:         regionsJSON,
		AnalyzedAt:      result.File.AnalyzedAt,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to save backup file: %w", err)
		}

		for _, rec := range result.Records {
			if err := tx.Create(newInvoiceRow(runUUID, rec)).Error; err != nil {
				return fmt.Errorf("failed to save invoice record: %w", err)
			}
		}

		return nil
	})
}

// GetByRunUUID retrieves the analysis result for a run.
func (r *GormBackupRepository) GetByRunUUID(ctx context.Context, runUUID string) (*model.AnalysisResult, error) {
	var record BackupFileRecord

	err := r.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found: %s", runUUID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	result, err := record.ToModel()
	if err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}

	invoices := NewGormInvoiceRepository(r.db)
	result.Records, err = invoices.GetByRunUUID(ctx, runUUID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListRecent returns summaries of the most recent runs.
func (r *GormBackupRepository) ListRecent(ctx context.Context, limit int) ([]*model.BackupFile, error) {
	var records []BackupFileRecord

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	files := make([]*model.BackupFile, len(records))
	for i, rec := range records {
		files[i] = &model.BackupFile{
			FileName:        rec.FileName,
			SizeBytes:       rec.SizeBytes,
			Signature:       rec.Signature,
			FormatVersion:   rec.FormatVersion,
			AnalyzedAt:      rec.AnalyzedAt,
			NullPercent:     rec.NullPercent,
			ControlPercent:  rec.ControlPercent,
			ASCIIPercent:    rec.ASCIIPercent,
			OtherPercent:    rec.OtherPercent,
			BlockCount:      rec.BlockCount,
			NullRegionCount: rec.NullRegionCount,
		}
	}

	return files, nil
}

// DeleteRun removes a run and its invoice records.
func (r *GormBackupRepository) DeleteRun(ctx context.Context, runUUID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_uuid = ?", runUUID).Delete(&InvoiceRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete invoice records: %w", err)
		}

		res := tx.Where("run_uuid = ?", runUUID).Delete(&BackupFileRecord{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete run: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("run not found: %s", runUUID)
		}

		return nil
	})
}

// GormInvoiceRepository implements InvoiceRepository using GORM.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository.
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// GetByRunUUID retrieves all invoice records for a run in extraction order.
func (r *GormInvoiceRepository) GetByRunUUID(ctx context.Context, runUUID string) ([]model.InvoiceRecord, error) {
	var rows []InvoiceRow

	err := r.db.WithContext(ctx).
		Where("run_uuid = ?", runUUID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice records: %w", err)
	}

	records := make([]model.InvoiceRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ToModel()
	}

	return records, nil
}

// GetBySeries retrieves the records of one series within a run.
func (r *GormInvoiceRepository) GetBySeries(ctx context.Context, runUUID string, series string) ([]model.InvoiceRecord, error) {
	var rows []InvoiceRow

	err := r.db.WithContext(ctx).
		Where("run_uuid = ? AND series = ?", runUUID, series).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice records: %w", err)
	}

	records := make([]model.InvoiceRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ToModel()
	}

	return records, nil
}

// CountByRunUUID returns the number of records stored for a run.
func (r *GormInvoiceRepository) CountByRunUUID(ctx context.Context, runUUID string) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&InvoiceRow{}).
		Where("run_uuid = ?", runUUID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count invoice records: %w", err)
	}

	return int(count), nil
}
