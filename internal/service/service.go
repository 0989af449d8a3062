// Package service wires the analysis engine, exporters, repository and
// object storage into one runnable pipeline.
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pdv-analysis/internal/analyzer"
	"github.com/pdv-analysis/internal/export"
	"github.com/pdv-analysis/internal/formatter"
	"github.com/pdv-analysis/internal/repository"
	"github.com/pdv-analysis/internal/statistics"
	"github.com/pdv-analysis/internal/storage"
	"github.com/pdv-analysis/pkg/compression"
	"github.com/pdv-analysis/pkg/config"
	"github.com/pdv-analysis/pkg/model"
	"github.com/pdv-analysis/pkg/utils"
)

const tracerName = "pdv-analyzer"

// Service is the main application service.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	engine  *analyzer.Analyzer
	stats   *statistics.InvoiceStatsCalculator
	db      *repository.Repositories
	storage storage.Storage
}

// RunResult bundles everything one service-level run produced.
type RunResult struct {
	RunUUID     string
	Result      *model.AnalysisResult
	Stats       *statistics.InvoiceStatsResult
	ExportPaths []string
	ArchiveKeys []string
}

// New creates a new Service instance. Initialize must be called before
// the first run.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	opts := analyzer.DefaultOptions()
	if cfg.Analysis.MinNullRun > 0 {
		opts.MinNullRun = cfg.Analysis.MinNullRun
	}
	if cfg.Analysis.DensityWindow > 0 {
		opts.DensityWindow = cfg.Analysis.DensityWindow
	}
	if cfg.Analysis.DefinitionBoundary > 0 {
		opts.DefinitionBoundary = cfg.Analysis.DefinitionBoundary
	}

	return &Service{
		config: cfg,
		logger: logger,
		engine: analyzer.New(opts),
		stats:  statistics.NewInvoiceStatsCalculator(),
	}, nil
}

// Initialize sets up the optional backends. The database is skipped unless
// enabled in configuration; storage is skipped when no type is configured.
func (s *Service) Initialize(ctx context.Context) error {
	if s.config.Database.Enabled {
		if err := s.initDatabase(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if s.config.Storage.Type != "" {
		if err := s.initStorage(); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	return nil
}

func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	gormDB, err := repository.NewGormDB(&repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	})
	if err != nil {
		return err
	}

	if err := repository.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	s.db = repository.NewRepositories(gormDB, s.config.Database.Type)
	s.logger.Info("Database connection established")

	return nil
}

func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// AnalyzeFile runs the full pipeline for one backup file: read, analyze,
// aggregate, export, and optionally persist and archive.
func (s *Service) AnalyzeFile(ctx context.Context, req *model.AnalysisRequest) (*RunResult, error) {
	if req == nil || req.InputFile == "" {
		return nil, fmt.Errorf("input file is required")
	}

	runUUID := req.RunUUID
	if runUUID == "" {
		runUUID = generateRunUUID()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "service.AnalyzeFile")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.uuid", runUUID),
		attribute.String("run.input", req.InputFile),
	)

	timer := utils.NewTimer("analysis-run", utils.WithLogger(s.logger))

	s.logger.Info("Run %s: analyzing %s", runUUID, req.InputFile)

	timer.Start("read")
	data, err := readBackup(req.InputFile)
	timer.StopPhase("read")
	if err != nil {
		return nil, err
	}

	timer.Start("analyze")
	result, err := s.engine.Analyze(ctx, data, req.InputFile)
	timer.StopPhase("analyze")
	if err != nil {
		return nil, err
	}

	timer.Start("statistics")
	stats := s.stats.Calculate(result.Records)
	timer.StopPhase("statistics")

	run := &RunResult{
		RunUUID: runUUID,
		Result:  result,
		Stats:   stats,
	}

	formats := req.ExportFormats
	if len(formats) == 0 {
		formats = s.config.Export.Formats
	}
	if len(formats) > 0 {
		outputDir := req.OutputDir
		if outputDir == "" {
			outputDir = s.config.GetRunDir(runUUID)
		}

		timer.Start("export")
		exporter := export.New(&export.Options{
			OutputDir: outputDir,
			Formats:   formats,
			Gzip:      s.config.Export.Gzip,
			Logger:    s.logger,
		})
		run.ExportPaths, err = exporter.Export(result, stats)
		timer.StopPhase("export")
		if err != nil {
			return nil, err
		}
	}

	if req.Persist {
		if s.db == nil {
			return nil, fmt.Errorf("persistence requested but database is not enabled")
		}
		timer.Start("persist")
		err = s.db.Backup.SaveResult(ctx, runUUID, result)
		timer.StopPhase("persist")
		if err != nil {
			return nil, err
		}
		s.logger.Info("Run %s: persisted %d records", runUUID, len(result.Records))
	}

	if req.Archive {
		if s.storage == nil {
			return nil, fmt.Errorf("archival requested but storage is not configured")
		}
		timer.Start("archive")
		run.ArchiveKeys, err = storage.ArchiveRun(ctx, s.storage, runUUID,
			append([]string{req.InputFile}, run.ExportPaths...))
		timer.StopPhase("archive")
		if err != nil {
			return nil, err
		}
		s.logger.Info("Run %s: archived %d objects", runUUID, len(run.ArchiveKeys))
	}

	timer.PrintSummary()
	return run, nil
}

// PrintResult writes the human-readable report for a run to the logger.
func (s *Service) PrintResult(run *RunResult) {
	formatter.NewResultFormatter().Format(run.Result, run.Stats, s.logger)
}

// GetRun loads a previously persisted run.
func (s *Service) GetRun(ctx context.Context, runUUID string) (*model.AnalysisResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database is not enabled")
	}
	return s.db.Backup.GetByRunUUID(ctx, runUUID)
}

// ListRuns returns summaries of the most recent persisted runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]*model.BackupFile, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database is not enabled")
	}
	return s.db.Backup.ListRecent(ctx, limit)
}

// Repositories exposes the repository layer, nil when the database is
// disabled.
func (s *Service) Repositories() *repository.Repositories {
	return s.db
}

// Analyzer exposes the underlying engine for callers that need the density
// map surface.
func (s *Service) Analyzer() *analyzer.Analyzer {
	return s.engine
}

// HealthCheck verifies the configured backends are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the service backends.
func (s *Service) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
			return err
		}
	}
	return nil
}

// readBackup loads the input file, transparently decompressing gzip and
// zstd archives. Backups pulled off store machines often arrive gzipped.
func readBackup(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	if isCompressed(data) {
		decompressed, err := compression.AutoDecompress(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress input file: %w", err)
		}
		return decompressed, nil
	}

	return data, nil
}

// isCompressed checks for gzip and zstd magic bytes. An HE3 image starts
// with 'H' and matches neither.
func isCompressed(data []byte) bool {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return true
	}
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return true
	}
	return false
}

// generateRunUUID builds an identifier unique enough for local runs. The
// pid alone would collide across runs in one process.
func generateRunUUID() string {
	return fmt.Sprintf("run-%d-%d", os.Getpid(), time.Now().UnixNano())
}
