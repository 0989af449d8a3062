package export

import (
	"archive/zip"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdv-analysis/internal/statistics"
	apperrors "github.com/pdv-analysis/pkg/errors"
	"github.com/pdv-analysis/pkg/model"
)

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		File: &model.BackupFile{
			FileName:      "store.bk",
			SizeBytes:     4096,
			Signature:     "HE3",
			FormatVersion: "1.0",
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
		},
	}
}

func sampleStats(result *model.AnalysisResult) *statistics.InvoiceStatsResult {
	return statistics.NewInvoiceStatsCalculator().Calculate(result.Records)
}

func TestExport_CSV(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	e := New(&Options{OutputDir: dir, Formats: []string{FormatCSV}})
	paths, err := e.Export(result, sampleStats(result))
	require.NoError(t, err)
	require.Len(t, paths, 3)

	file, err := os.Open(filepath.Join(dir, "store_invoices.csv"))
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "number", rows[0][0])
	assert.Equal(t, "123456", rows[1][0])
	assert.Equal(t, "ABC", rows[1][1])
	assert.Equal(t, "12.50", rows[1][2])
}

func TestExport_JSON(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	e := New(&Options{OutputDir: dir, Formats: []string{FormatJSON}})
	paths, err := e.Export(result, sampleStats(result))
	require.NoError(t, err)
	require.Len(t, paths, 1)

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(content, &report))
	assert.Equal(t, "store.bk", report.File.FileName)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 1, report.Stats.Count)
	require.Len(t, report.Blocks, 2)
	assert.Equal(t, model.BlockKindData, report.Blocks[1].Kind)
}

func TestExport_JSONGzip(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	e := New(&Options{OutputDir: dir, Formats: []string{FormatJSON}, Gzip: true})
	paths, err := e.Export(result, nil)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".gz", filepath.Ext(paths[0]))

	file, err := os.Open(paths[0])
	require.NoError(t, err)
	defer file.Close()

	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gz.Close()

	content, err := io.ReadAll(gz)
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(content, &report))
	assert.Equal(t, "HE3", report.File.Signature)
}

func TestExport_Bundle(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	e := New(&Options{OutputDir: dir, Formats: []string{FormatZIP}})
	paths, err := e.Export(result, sampleStats(result))
	require.NoError(t, err)
	require.Len(t, paths, 1)

	reader, err := zip.OpenReader(paths[0])
	require.NoError(t, err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"invoices.csv", "blocks.csv", "regions.csv", "report.json"}, names)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	e := New(&Options{OutputDir: t.TempDir(), Formats: []string{"pdf"}})

	_, err := e.Export(sampleResult(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExportError, apperrors.GetErrorCode(err))
}

func TestExport_NilResult(t *testing.T) {
	e := New(nil)
	_, err := e.Export(nil, nil)
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"store.bk", "store"},
		{"/var/backups/loja01.bk", "loja01"},
		{"noext", "noext"},
		{"", "backup"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, baseName(tt.in), tt.in)
	}
}
