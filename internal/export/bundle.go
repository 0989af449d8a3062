package export

import (
	"archive/zip"
	"encoding/json"
	"os"

	"github.com/pdv-analysis/internal/statistics"
	apperrors "github.com/pdv-analysis/pkg/errors"
	"github.com/pdv-analysis/pkg/model"
)

// WriteBundle writes a self-contained ZIP archive holding the CSV tables
// and the JSON report for one analysis run. The archive is generated from
// the result directly, so it does not depend on the other export formats
// having run.
func WriteBundle(path string, result *model.AnalysisResult, stats *statistics.InvoiceStatsResult) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeExportError, "failed to create bundle", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)

	entries := []struct {
		name  string
		write func(*zip.Writer) error
	}{
		{"invoices.csv", func(zw *zip.Writer) error {
			w, err := zw.Create("invoices.csv")
			if err != nil {
				return err
			}
			return writeInvoicesCSV(w, result.Records)
		}},
		{"blocks.csv", func(zw *zip.Writer) error {
			w, err := zw.Create("blocks.csv")
			if err != nil {
				return err
			}
			return writeBlocksCSV(w, result.Blocks)
		}},
		{"regions.csv", func(zw *zip.Writer) error {
			w, err := zw.Create("regions.csv")
			if err != nil {
				return err
			}
			return writeRegionsCSV(w, result.Regions)
		}},
		{"report.json", func(zw *zip.Writer) error {
			w, err := zw.Create("report.json")
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(buildReport(result, stats))
		}},
	}

	for _, entry := range entries {
		if err := entry.write(zw); err != nil {
			zw.Close()
			return apperrors.Wrap(apperrors.CodeExportError, "failed to write "+entry.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeExportError, "failed to finalize bundle", err)
	}
	return nil
}
