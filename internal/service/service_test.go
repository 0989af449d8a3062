package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdv-analysis/internal/testutil"
	"github.com/pdv-analysis/pkg/config"
	"github.com/pdv-analysis/pkg/model"
	"github.com/pdv-analysis/pkg/utils"
)

func testConfig(t *testing.T) *config.Config {
	tempDir := t.TempDir()
	return &config.Config{
		Analysis: config.AnalysisConfig{
			DataDir:            filepath.Join(tempDir, "data"),
			MinNullRun:         20,
			DensityWindow:      1024,
			DefinitionBoundary: 1024,
		},
		Export: config.ExportConfig{
			Formats: []string{"json"},
		},
		Database: config.DatabaseConfig{
			Type:     "sqlite",
			Database: ":memory:",
			Enabled:  true,
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: filepath.Join(tempDir, "storage"),
		},
	}
}

// sampleBackup builds a backup image with one data block holding a single
// invoice record past the definition boundary.
func sampleBackup() []byte {
	b := testutil.NewBackup("1.0")
	b.Fill(100, 'h')
	b.Nulls(30)
	b.Fill(2000, 'x')
	b.Nulls(30)
	b.Invoice("123456", "ABC", " 250.75")
	b.Fill(40, 'y')
	return b.Bytes()
}

func TestService_New(t *testing.T) {
	t.Run("WithLogger", func(t *testing.T) {
		logger := utils.NewDefaultLogger(utils.LevelInfo, nil)
		svc, err := New(testConfig(t), logger)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("WithoutLogger", func(t *testing.T) {
		svc, err := New(testConfig(t), nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("NilConfig", func(t *testing.T) {
		svc, err := New(nil, nil)
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestService_AnalyzeFile(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	inputFile := testutil.WriteTempFile(t, "store.bk", sampleBackup())

	run, err := svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{
		InputFile: inputFile,
		RunUUID:   "run-test-1",
		OutputDir: t.TempDir(),
		Persist:   true,
		Archive:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-test-1", run.RunUUID)
	assert.Equal(t, "HE3", run.Result.File.Signature)
	assert.Equal(t, "1.0", run.Result.File.FormatVersion)

	require.Len(t, run.Result.Records, 1)
	assert.Equal(t, "123456", run.Result.Records[0].Number)
	assert.Equal(t, "ABC", run.Result.Records[0].Series)
	assert.InDelta(t, 250.75, run.Result.Records[0].TotalValue, 0.001)

	assert.Equal(t, 1, run.Stats.Summary.Count)

	// One JSON export plus the archived input.
	require.Len(t, run.ExportPaths, 1)
	assert.Contains(t, run.ExportPaths[0], "store_report.json")
	require.Len(t, run.ArchiveKeys, 2)
	assert.Equal(t, "runs/run-test-1/store.bk", run.ArchiveKeys[0])

	// The run must be readable back through the repository layer.
	persisted, err := svc.GetRun(context.Background(), "run-test-1")
	require.NoError(t, err)
	require.Len(t, persisted.Records, 1)
	assert.Equal(t, "123456", persisted.Records[0].Number)

	files, err := svc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestService_AnalyzeFile_GeneratedUUID(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Enabled = false
	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	inputFile := testutil.WriteTempFile(t, "store.bk", sampleBackup())

	run, err := svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{
		InputFile: inputFile,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.RunUUID)
}

func TestService_AnalyzeFile_GzippedInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Enabled = false
	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write(sampleBackup())
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	inputFile := testutil.WriteTempFile(t, "store.bk.gz", buf.Bytes())

	run, err := svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{
		InputFile: inputFile,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, "HE3", run.Result.File.Signature)
	require.Len(t, run.Result.Records, 1)
}

func TestService_AnalyzeFile_Errors(t *testing.T) {
	t.Run("MissingInput", func(t *testing.T) {
		svc, err := New(testConfig(t), &utils.NullLogger{})
		require.NoError(t, err)

		_, err = svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{})
		assert.ErrorContains(t, err, "input file is required")
	})

	t.Run("FileNotFound", func(t *testing.T) {
		svc, err := New(testConfig(t), &utils.NullLogger{})
		require.NoError(t, err)

		_, err = svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{
			InputFile: "/nonexistent/store.bk",
			OutputDir: t.TempDir(),
		})
		assert.ErrorContains(t, err, "failed to read input file")
	})

	t.Run("PersistWithoutDatabase", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Enabled = false
		svc, err := New(cfg, &utils.NullLogger{})
		require.NoError(t, err)
		require.NoError(t, svc.Initialize(context.Background()))

		inputFile := testutil.WriteTempFile(t, "store.bk", sampleBackup())
		_, err = svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{
			InputFile: inputFile,
			OutputDir: t.TempDir(),
			Persist:   true,
		})
		assert.ErrorContains(t, err, "database is not enabled")
	})

	t.Run("ArchiveWithoutStorage", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Enabled = false
		cfg.Storage.Type = ""
		svc, err := New(cfg, &utils.NullLogger{})
		require.NoError(t, err)
		require.NoError(t, svc.Initialize(context.Background()))

		inputFile := testutil.WriteTempFile(t, "store.bk", sampleBackup())
		_, err = svc.AnalyzeFile(context.Background(), &model.AnalysisRequest{
			InputFile: inputFile,
			OutputDir: t.TempDir(),
			Archive:   true,
		})
		assert.ErrorContains(t, err, "storage is not configured")
	})
}

func TestService_GetRun_WithoutDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Enabled = false
	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)

	_, err = svc.GetRun(context.Background(), "run-1")
	assert.ErrorContains(t, err, "database is not enabled")

	_, err = svc.ListRuns(context.Background(), 10)
	assert.ErrorContains(t, err, "database is not enabled")
}

func TestService_HealthCheck(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	assert.NoError(t, svc.HealthCheck(context.Background()))
}
