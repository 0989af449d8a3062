package model

// AnalysisResult bundles everything one analysis run produces. All slices
// are owned by the run that created them; runs share no mutable state.
type AnalysisResult struct {
	File    *BackupFile       `json:"file"`
	Regions []NullRegion      `json:"regions"`
	Blocks  []StructuralBlock `json:"blocks"`
	Records []InvoiceRecord   `json:"records"`
}

// DataBlocks returns the blocks classified as data blocks, in offset order.
func (r *AnalysisResult) DataBlocks() []StructuralBlock {
	var out []StructuralBlock
	for _, b := range r.Blocks {
		if b.Kind == BlockKindData {
			out = append(out, b)
		}
	}
	return out
}

// AnalysisRequest describes one analysis run handed to the service layer.
type AnalysisRequest struct {
	InputFile string
	RunUUID   string
	OutputDir string

	// ExportFormats selects which export adapters run after analysis.
	// Valid entries: csv, json, zip.
	ExportFormats []string

	// Persist stores the run and its records through the repository layer.
	Persist bool

	// Archive uploads the input file and the export artifacts to object
	// storage under the run's key prefix.
	Archive bool
}
