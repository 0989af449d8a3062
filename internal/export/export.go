// Package export writes analysis results to disk as CSV tables, JSON
// reports and ZIP bundles.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdv-analysis/internal/statistics"
	apperrors "github.com/pdv-analysis/pkg/errors"
	"github.com/pdv-analysis/pkg/model"
	"github.com/pdv-analysis/pkg/utils"
	"github.com/pdv-analysis/pkg/writer"
)

// Format names accepted by the exporter.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatZIP  = "zip"
)

// Report is the JSON export payload.
type Report struct {
	File    *model.BackupFile        `json:"file"`
	Regions []model.NullRegion       `json:"null_regions"`
	Blocks  []model.StructuralBlock  `json:"blocks"`
	Records []model.InvoiceRecord    `json:"invoice_records"`
	Stats   *model.InvoiceStats      `json:"invoice_stats,omitempty"`
	Series  []statistics.SeriesEntry `json:"series,omitempty"`
}

// Options holds exporter configuration.
type Options struct {
	// OutputDir is the directory all files are written to. It is created
	// if missing.
	OutputDir string

	// Formats selects which outputs to produce (csv, json, zip).
	Formats []string

	// Gzip compresses the JSON report.
	Gzip bool

	Logger utils.Logger
}

// DefaultOptions returns the exporter defaults.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Formats:   []string{FormatCSV, FormatJSON},
	}
}

// Exporter writes analysis results in the configured formats.
type Exporter struct {
	opts *Options
	log  utils.Logger
}

// New creates an Exporter with the given options; nil selects defaults.
func New(opts *Options) *Exporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = &utils.NullLogger{}
	}
	return &Exporter{opts: opts, log: log}
}

// Export writes the result in every configured format and returns the
// paths of the files written.
func (e *Exporter) Export(result *model.AnalysisResult, stats *statistics.InvoiceStatsResult) ([]string, error) {
	if result == nil {
		return nil, apperrors.Wrap(apperrors.CodeExportError, "nothing to export", nil)
	}

	if err := os.MkdirAll(e.opts.OutputDir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExportError, "failed to create output directory", err)
	}

	base := baseName(result.File.FileName)
	report := buildReport(result, stats)

	var paths []string
	for _, format := range e.opts.Formats {
		switch format {
		case FormatCSV:
			written, err := e.exportCSV(base, result)
			if err != nil {
				return nil, err
			}
			paths = append(paths, written...)
		case FormatJSON:
			path, err := e.exportJSON(base, report)
			if err != nil {
				return nil, err
			}
			paths = append(paths, path)
		case FormatZIP:
			path := filepath.Join(e.opts.OutputDir, base+".zip")
			if err := WriteBundle(path, result, stats); err != nil {
				return nil, err
			}
			e.log.Info("wrote bundle %s", path)
			paths = append(paths, path)
		default:
			return nil, apperrors.Wrap(apperrors.CodeExportError,
				fmt.Sprintf("unsupported export format: %s", format), nil)
		}
	}

	return paths, nil
}

func (e *Exporter) exportCSV(base string, result *model.AnalysisResult) ([]string, error) {
	tables := []struct {
		suffix string
		write  func(*os.File) error
	}{
		{"_invoices.csv", func(f *os.File) error { return writeInvoicesCSV(f, result.Records) }},
		{"_blocks.csv", func(f *os.File) error { return writeBlocksCSV(f, result.Blocks) }},
		{"_regions.csv", func(f *os.File) error { return writeRegionsCSV(f, result.Regions) }},
	}

	var paths []string
	for _, table := range tables {
		path := filepath.Join(e.opts.OutputDir, base+table.suffix)
		file, err := os.Create(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeExportError, "failed to create csv file", err)
		}
		if err := table.write(file); err != nil {
			file.Close()
			return nil, apperrors.Wrap(apperrors.CodeExportError, "failed to write csv file", err)
		}
		if err := file.Close(); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeExportError, "failed to close csv file", err)
		}
		e.log.Info("wrote %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *Exporter) exportJSON(base string, report *Report) (string, error) {
	if e.opts.Gzip {
		path := filepath.Join(e.opts.OutputDir, base+"_report.json.gz")
		gz := writer.NewGzipWriter[*Report]()
		stats, err := gz.WriteToFileWithStats(report, path)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeExportError, "failed to write json report", err)
		}
		e.log.Info("wrote %s (%d -> %d bytes, %.1f%%)",
			path, stats.JSONSize, stats.CompressedSize, stats.CompressionPct)
		return path, nil
	}

	path := filepath.Join(e.opts.OutputDir, base+"_report.json")
	jw := writer.NewPrettyJSONWriter[*Report]()
	if err := jw.WriteToFile(report, path); err != nil {
		return "", apperrors.Wrap(apperrors.CodeExportError, "failed to write json report", err)
	}
	e.log.Info("wrote %s", path)
	return path, nil
}

func buildReport(result *model.AnalysisResult, stats *statistics.InvoiceStatsResult) *Report {
	report := &Report{
		File:    result.File,
		Regions: result.Regions,
		Blocks:  result.Blocks,
		Records: result.Records,
	}
	if stats != nil {
		summary := stats.Summary
		report.Stats = &summary
		report.Series = stats.BySeries
	}
	return report
}

// baseName strips the directory and extension from a backup file name so
// exports land next to each other under a common prefix.
func baseName(fileName string) string {
	base := filepath.Base(fileName)
	ext := filepath.Ext(base)
	if ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" || base == "." {
		base = "backup"
	}
	return base
}
