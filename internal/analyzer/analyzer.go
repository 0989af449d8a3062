// Package analyzer implements the structural analysis engine for HE3
// point-of-sale backup files.
//
// The engine is a linear pipeline of pure stages: signature validation,
// byte-class profiling, null-region mapping, block segmentation and invoice
// extraction. Each stage consumes the raw buffer and/or the previous
// stage's output and returns new values; no state survives between runs.
// The density map is a separate surface that only needs the raw buffer.
package analyzer

import (
	"context"
	"time"

	"github.com/pdv-analysis/pkg/model"
)

const (
	// DefaultMinNullRun is the minimum length for a run of zero bytes to
	// count as a structural null region.
	DefaultMinNullRun = 20

	// DefaultDensityWindow is the window size for density maps.
	DefaultDensityWindow = 1024

	// DefaultDefinitionBoundary is the offset below which non-header
	// blocks are classified as definition blocks.
	DefaultDefinitionBoundary = 1024
)

// Record layout defaults. These offsets are a heuristic guess at the
// proprietary record layout, not verified protocol facts, which is why
// they are options rather than constants.
const (
	DefaultNumberWidth     = 6
	DefaultSeriesWidth     = 3
	DefaultValueOffset     = 10
	DefaultValueWidth      = 8
	DefaultRecordLookahead = 20
)

// Options holds the tunable parameters of the engine.
type Options struct {
	// MinNullRun is the minimum null-run length for a region. Shorter
	// runs are absorbed into the surrounding block.
	MinNullRun int

	// DensityWindow is the window size used by DensityMap.
	DensityWindow int

	// DefinitionBoundary separates definition blocks from data blocks:
	// a non-header block lying wholly below this offset is a definition
	// block.
	DefinitionBoundary int

	// NumberWidth is the digit count of an invoice number candidate.
	NumberWidth int

	// SeriesWidth is the series field width following the number.
	SeriesWidth int

	// ValueOffset is the distance from a candidate start to its value
	// window; ValueWidth is the window size.
	ValueOffset int
	ValueWidth  int

	// RecordLookahead is the minimum number of bytes that must remain
	// after a candidate offset for it to be considered.
	RecordLookahead int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() *Options {
	return &Options{
		MinNullRun:         DefaultMinNullRun,
		DensityWindow:      DefaultDensityWindow,
		DefinitionBoundary: DefaultDefinitionBoundary,
		NumberWidth:        DefaultNumberWidth,
		SeriesWidth:        DefaultSeriesWidth,
		ValueOffset:        DefaultValueOffset,
		ValueWidth:         DefaultValueWidth,
		RecordLookahead:    DefaultRecordLookahead,
	}
}

// Analyzer runs the analysis pipeline. It is stateless: the same Analyzer
// may be reused across runs and goroutines.
type Analyzer struct {
	opts *Options
}

// New creates an Analyzer with the given options; nil selects defaults.
func New(opts *Options) *Analyzer {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Analyzer{opts: opts}
}

// Options returns the options the analyzer was created with.
func (a *Analyzer) Options() *Options {
	return a.opts
}

// Analyze runs the full pipeline over data and returns the analysis
// result. The only failure modes are the fatal ones: an empty buffer, a
// missing HE3 signature, or a malformed region list reaching segmentation
// (which would indicate a bug, not bad file data). Everything else is
// resolved by local best-guess classification or silent candidate
// rejection.
//
// Cancellation is coarse-grained: the context is checked between stages,
// never mid-scan.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, fileName string) (*model.AnalysisResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	sig, version, err := validateSignature(data)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dist := profileDistribution(data)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	regions := mapNullRegions(data, a.opts.MinNullRun)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks, err := segmentBlocks(data, regions, a.opts.DefinitionBoundary)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := extractInvoices(data, blocks, a.opts)

	file := &model.BackupFile{
		FileName:        fileName,
		SizeBytes:       int64(len(data)),
		Signature:       sig,
		FormatVersion:   version,
		AnalyzedAt:      time.Now().UTC(),
		NullPercent:     dist.NullPercent,
		ControlPercent:  dist.ControlPercent,
		ASCIIPercent:    dist.ASCIIPercent,
		OtherPercent:    dist.OtherPercent,
		BlockCount:      len(blocks),
		NullRegionCount: len(regions),
	}

	return &model.AnalysisResult{
		File:    file,
		Regions: regions,
		Blocks:  blocks,
		Records: records,
	}, nil
}

// DensityMap partitions data into fixed-size windows and reports per-window
// byte-class densities. It needs no prior analysis and accepts any buffer;
// window values below 1 fall back to the analyzer's configured window.
func (a *Analyzer) DensityMap(data []byte, window int) []model.DensityWindow {
	if window < 1 {
		window = a.opts.DensityWindow
	}
	return densityMap(data, window)
}
