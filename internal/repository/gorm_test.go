package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pdv-analysis/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	return db
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		File: &model.BackupFile{
			FileName:        "store.bk",
			SizeBytes:       4096,
			Signature:       "HE3",
			FormatVersion:   "1.0",
			AnalyzedAt:      time.Now().UTC(),
			NullPercent:     25,
			ControlPercent:  25,
			ASCIIPercent:    70,
			OtherPercent:    5,
			BlockCount:      2,
			NullRegionCount: 1,
		},
		Regions: []model.NullRegion{{Start: 100, End: 149, Length: 50}},
		Blocks: []model.StructuralBlock{
			{Index: 0, Start: 0, End: 99, Length: 100, Kind: model.BlockKindHeader},
			{Index: 1, Start: 150, End: 4095, Length: 3946, Kind: model.BlockKindData},
		},
		Records: []model.InvoiceRecord{
			{
				BlockIndex: 1, Offset: 150,
				Number: "123456", Series: "ABC",
				TotalValue: 12.50, FinalValue: 12.50,
				Status: model.InvoiceStatusActive, Kind: model.InvoiceKindSale,
			},
			{
				BlockIndex: 1, Offset: 300,
				Number: "123457", Series: "XYZ",
				TotalValue: 99.90, FinalValue: 99.90,
				Status: model.InvoiceStatusActive, Kind: model.InvoiceKindSale,
			},
		},
	}
}

func TestGormBackupRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBackupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveResult(ctx, "run-1", sampleResult()))

	got, err := repo.GetByRunUUID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "store.bk", got.File.FileName)
	assert.Equal(t, "HE3", got.File.Signature)
	assert.Equal(t, "1.0", got.File.FormatVersion)

	require.Len(t, got.Blocks, 2)
	assert.Equal(t, model.BlockKindData, got.Blocks[1].Kind)
	require.Len(t, got.Regions, 1)
	assert.Equal(t, 50, got.Regions[0].Length)

	require.Len(t, got.Records, 2)
	assert.Equal(t, "123456", got.Records[0].Number)
	assert.Equal(t, "XYZ", got.Records[1].Series)
}

func TestGormBackupRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBackupRepository(db)

	_, err := repo.GetByRunUUID(context.Background(), "missing")
	assert.ErrorContains(t, err, "run not found")
}

func TestGormBackupRepository_DuplicateRunUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBackupRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveResult(ctx, "run-1", sampleResult()))
	assert.Error(t, repo.SaveResult(ctx, "run-1", sampleResult()))
}

func TestGormBackupRepository_ListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBackupRepository(db)
	ctx := context.Background()

	for _, run := range []string{"run-1", "run-2", "run-3"} {
		result := sampleResult()
		result.File.FileName = run + ".bk"
		require.NoError(t, repo.SaveResult(ctx, run, result))
	}

	files, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, files, 2)
	// Most recent first.
	assert.Equal(t, "run-3.bk", files[0].FileName)
	assert.Equal(t, "run-2.bk", files[1].FileName)
}

func TestGormBackupRepository_DeleteRun(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBackupRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveResult(ctx, "run-1", sampleResult()))
	require.NoError(t, repo.DeleteRun(ctx, "run-1"))

	_, err := repo.GetByRunUUID(ctx, "run-1")
	assert.Error(t, err)

	count, err := invoices.CountByRunUUID(ctx, "run-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormBackupRepository_DeleteMissingRun(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBackupRepository(db)

	err := repo.DeleteRun(context.Background(), "missing")
	assert.ErrorContains(t, err, "run not found")
}

func TestGormInvoiceRepository_GetBySeries(t *testing.T) {
	db := setupTestDB(t)
	backups := NewGormBackupRepository(db)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	require.NoError(t, backups.SaveResult(ctx, "run-1", sampleResult()))

	records, err := repo.GetBySeries(ctx, "run-1", "ABC")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "123456", records[0].Number)

	records, err = repo.GetBySeries(ctx, "run-1", "NOPE")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGormInvoiceRepository_Count(t *testing.T) {
	db := setupTestDB(t)
	backups := NewGormBackupRepository(db)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	require.NoError(t, backups.SaveResult(ctx, "run-1", sampleResult()))

	count, err := repo.CountByRunUUID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewRepositories(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db, "sqlite")

	assert.NotNil(t, repos.Backup)
	assert.NotNil(t, repos.Invoice)
	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.Equal(t, db, repos.GormDB())
	assert.NoError(t, repos.Close())
}
