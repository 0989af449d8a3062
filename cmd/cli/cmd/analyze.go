package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdv-analysis/internal/formatter"
	"github.com/pdv-analysis/internal/service"
	"github.com/pdv-analysis/pkg/model"
	"github.com/pdv-analysis/pkg/writer"
)

var (
	// Analyze command flags
	inputFile string
	outputDir string
	runUUID   string

	// Engine tunables
	minNullRun         int
	densityWindow      int
	definitionBoundary int

	// Export flags
	exportFormats []string
	gzipReport    bool
	maxRecords    int

	// Backend flags
	persistRun bool
	archiveRun bool

	// Serve flags
	serveAfter bool
	serveAddr  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an HE3 backup file",
	Long: `Analyze an HE3 point-of-sale backup file and export the results.

The analyze command runs the full pipeline:
  - HE3 signature and format version validation
  - Byte-class distribution (null, control, ascii, other)
  - Null-region mapping and structural block segmentation
  - Heuristic invoice record extraction from data blocks
  - Invoice value statistics

Export formats:
  - csv : one file each for invoices, blocks and null regions
  - json: a combined report document (optionally gzipped)
  - zip : a bundle of the CSV tables plus the report`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	analyzeCmd.Example = `  # Analyze a backup and export CSV + JSON
  ` + binName + ` analyze -i ./store.bk -o ./output

  # Gzip the JSON report and add a ZIP bundle
  ` + binName + ` analyze -i ./store.bk --formats csv,json,zip --gzip

  # Persist the run and archive the artifacts to object storage
  ` + binName + ` analyze -i ./store.bk --persist --archive

  # Analyze and immediately start the web viewer
  ` + binName + ` analyze -i ./store.bk --serve --addr :8080

  # Specify custom run UUID and a stricter null-region threshold
  ` + binName + ` analyze -i ./store.bk --uuid store-2026-08 --min-null-run 32`

	// Input/Output flags
	analyzeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input HE3 backup file (required)")
	analyzeCmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "Output directory for exported files")
	analyzeCmd.MarkFlagRequired("input")
	analyzeCmd.Flags().StringVar(&runUUID, "uuid", "", "Run UUID (auto-generated if empty)")

	// Engine tunables
	analyzeCmd.Flags().IntVar(&minNullRun, "min-null-run", 0, "Minimum null-run length for a structural region (config default if 0)")
	analyzeCmd.Flags().IntVar(&densityWindow, "density-window", 0, "Density map window size in bytes (config default if 0)")
	analyzeCmd.Flags().IntVar(&definitionBoundary, "definition-boundary", 0, "Offset below which non-header blocks are definition blocks (config default if 0)")

	// Export flags
	analyzeCmd.Flags().StringSliceVar(&exportFormats, "formats", nil, "Export formats: csv, json, zip (config default if empty)")
	analyzeCmd.Flags().BoolVar(&gzipReport, "gzip", false, "Gzip the JSON report")
	analyzeCmd.Flags().IntVarP(&maxRecords, "top", "n", 10, "Number of invoice records to print")

	// Backend flags
	analyzeCmd.Flags().BoolVar(&persistRun, "persist", false, "Persist the run to the configured database")
	analyzeCmd.Flags().BoolVar(&archiveRun, "archive", false, "Archive the input and exports to object storage")

	// Serve flags
	analyzeCmd.Flags().BoolVar(&serveAfter, "serve", false, "Start web server after analysis")
	analyzeCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address for web server (used with --serve)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	// Validate input file
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputFile)
	}

	// Generate run UUID if not provided
	uuid := runUUID
	if uuid == "" {
		uuid = fmt.Sprintf("run-%s", time.Now().UTC().Format("20060102-150405"))
	}

	applyEngineFlags()
	if persistRun {
		cfg.Database.Enabled = true
	}
	if gzipReport {
		cfg.Export.Gzip = true
	}

	// Create output directory
	runOutputDir := filepath.Join(outputDir, uuid)
	if err := os.MkdirAll(runOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info("=== PDV Backup Analysis ===")
	log.Info("Input file: %s", inputFile)
	log.Info("Output dir: %s", runOutputDir)
	log.Info("Run UUID:   %s", uuid)
	log.Info("")

	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := svc.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Close()

	// Run analysis
	log.Info("Starting analysis...")
	startTime := time.Now()
	run, err := svc.AnalyzeFile(cmd.Context(), &model.AnalysisRequest{
		InputFile:     inputFile,
		RunUUID:       uuid,
		OutputDir:     runOutputDir,
		ExportFormats: exportFormats,
		Persist:       persistRun,
		Archive:       archiveRun,
	})
	analysisTime := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	log.Info("Analysis completed in %v", analysisTime.Round(time.Millisecond))
	log.Info("")

	// Print results
	formatter.NewResultFormatter(formatter.WithMaxRecords(maxRecords)).
		Format(run.Result, run.Stats, log)

	// Save result summary for the web viewer
	saveSummary(run, runOutputDir, analysisTime)

	log.Info("")
	log.Info("=== Analysis Complete ===")
	log.Info("Output files are in: %s", runOutputDir)

	// If serve mode is enabled, start the web server
	if serveAfter {
		log.Info("")
		log.Info("Starting web server...")
		return startServeMode(outputDir, serveAddr, log)
	}

	return nil
}

// applyEngineFlags overrides config with explicitly set engine tunables.
func applyEngineFlags() {
	if minNullRun > 0 {
		cfg.Analysis.MinNullRun = minNullRun
	}
	if densityWindow > 0 {
		cfg.Analysis.DensityWindow = densityWindow
	}
	if definitionBoundary > 0 {
		cfg.Analysis.DefinitionBoundary = definitionBoundary
	}
}

// saveSummary writes summary.json next to the exported files. Failures are
// logged, not fatal: the analysis itself already succeeded.
func saveSummary(run *service.RunResult, dir string, analysisTime time.Duration) {
	summary := formatter.NewResultFormatter().FormatSummary(run.Result, run.Stats)
	summary["run_uuid"] = run.RunUUID
	summary["analysis_time_ms"] = analysisTime.Milliseconds()

	jw := writer.NewPrettyJSONWriter[map[string]interface{}]()
	if err := jw.WriteToFile(summary, filepath.Join(dir, "summary.json")); err != nil {
		GetLogger().Warn("Failed to save summary: %v", err)
	}
}
