// Package formatter renders analysis results for terminal output.
package formatter

import (
	"github.com/pdv-analysis/internal/statistics"
	"github.com/pdv-analysis/pkg/model"
	"github.com/pdv-analysis/pkg/utils"
)

// ResultFormatter renders an analysis result to a logger and produces
// summary maps for serialization.
type ResultFormatter struct {
	maxRecords int
}

// FormatterOption configures the ResultFormatter.
type FormatterOption func(*ResultFormatter)

// WithMaxRecords limits how many invoice records Format prints.
func WithMaxRecords(n int) FormatterOption {
	return func(f *ResultFormatter) {
		f.maxRecords = n
	}
}

// NewResultFormatter creates a ResultFormatter.
func NewResultFormatter(opts ...FormatterOption) *ResultFormatter {
	f := &ResultFormatter{
		maxRecords: 10,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format outputs the analysis result to the logger.
func (f *ResultFormatter) Format(result *model.AnalysisResult, stats *statistics.InvoiceStatsResult, log utils.Logger) {
	if result == nil {
		return
	}

	file := result.File
	log.Info("=== Backup Analysis ===")
	log.Info("File:           %s", file.FileName)
	log.Info("Size:           %d bytes", file.SizeBytes)
	log.Info("Signature:      %s (version %s)", file.Signature, file.FormatVersion)
	log.Info("")

	log.Info("=== Byte Distribution ===")
	log.Info("  Null:      %6.2f%%", file.NullPercent)
	log.Info("  Control:   %6.2f%%", file.ControlPercent)
	log.Info("  ASCII:     %6.2f%%", file.ASCIIPercent)
	log.Info("  Other:     %6.2f%%", file.OtherPercent)
	log.Info("")

	log.Info("=== Structure ===")
	log.Info("  Null regions: %d", len(result.Regions))
	log.Info("  Blocks:       %d", len(result.Blocks))
	for _, b := range result.Blocks {
		log.Info("  %3d. [%d, %d] %-10s len=%d", b.Index, b.Start, b.End, b.Kind.String(), b.Length)
	}
	log.Info("")

	log.Info("=== Invoice Records ===")
	log.Info("  Extracted: %d", len(result.Records))
	count := len(result.Records)
	if f.maxRecords > 0 && count > f.maxRecords {
		count = f.maxRecords
	}
	for i := 0; i < count; i++ {
		rec := result.Records[i]
		log.Info("  %2d. %s-%s  %10.2f  (block %d, offset %d)",
			i+1, rec.Series, rec.Number, rec.FinalValue, rec.BlockIndex, rec.Offset)
	}
	if count < len(result.Records) {
		log.Info("  ... and %d more records", len(result.Records)-count)
	}

	if stats != nil && stats.Summary.Count > 0 {
		log.Info("")
		log.Info("=== Invoice Totals ===")
		log.Info("  Count: %d", stats.Summary.Count)
		log.Info("  Total: %.2f", stats.Summary.Total)
		log.Info("  Mean:  %.2f", stats.Summary.Mean)
		log.Info("  Min:   %.2f", stats.Summary.Min)
		log.Info("  Max:   %.2f", stats.Summary.Max)
	}
}

// FormatSummary returns a summary map for serialization.
func (f *ResultFormatter) FormatSummary(result *model.AnalysisResult, stats *statistics.InvoiceStatsResult) map[string]interface{} {
	if result == nil {
		return nil
	}

	summary := map[string]interface{}{
		"file_name":         result.File.FileName,
		"size_bytes":        result.File.SizeBytes,
		"signature":         result.File.Signature,
		"format_version":    result.File.FormatVersion,
		"null_percent":      result.File.NullPercent,
		"control_percent":   result.File.ControlPercent,
		"ascii_percent":     result.File.ASCIIPercent,
		"other_percent":     result.File.OtherPercent,
		"null_region_count": len(result.Regions),
		"block_count":       len(result.Blocks),
		"record_count":      len(result.Records),
	}

	if stats != nil {
		summary["invoice_stats"] = stats.Summary
		summary["series"] = stats.BySeries
	}

	return summary
}
