package analyzer

import (
	"strconv"
	"strings"

	"github.com/pdv-analysis/pkg/model"
)

// extractInvoices scans every data block for byte patterns that plausibly
// represent invoice records. The scan advances one byte at a time, so a
// real record followed by incidental digit runs can produce several
// overlapping candidates; they are all kept. Deduplication would be a
// policy change, not a fix.
func extractInvoices(data []byte, blocks []model.StructuralBlock, opts *Options) []model.InvoiceRecord {
	records := make([]model.InvoiceRecord, 0)

	for _, block := range blocks {
		if block.Kind != model.BlockKindData {
			continue
		}
		body := data[block.Start : block.End+1]

		for i := 0; i+opts.RecordLookahead < len(body); i++ {
			rec, ok := parseCandidate(body, i, opts)
			if !ok {
				continue
			}
			rec.BlockIndex = block.Index
			rec.Offset = block.Start + i
			records = append(records, rec)
		}
	}

	return records
}

// parseCandidate tests whether body[i:] looks like an invoice record:
// NumberWidth ASCII digits, a series field, and a parseable positive
// monetary value in the value window. Any failure rejects just this
// candidate; nothing propagates.
func parseCandidate(body []byte, i int, opts *Options) (model.InvoiceRecord, bool) {
	number := body[i : i+opts.NumberWidth]
	for _, b := range number {
		if b < '0' || b > '9' {
			return model.InvoiceRecord{}, false
		}
	}

	series := strings.TrimSpace(string(body[i+opts.NumberWidth : i+opts.NumberWidth+opts.SeriesWidth]))

	value, ok := parseValueWindow(body, i+opts.ValueOffset, opts.ValueWidth)
	if !ok || value <= 0 {
		return model.InvoiceRecord{}, false
	}

	return model.InvoiceRecord{
		Number:     string(number),
		Series:     series,
		TotalValue: value,
		FinalValue: value,
		Status:     model.InvoiceStatusActive,
		Kind:       model.InvoiceKindSale,
	}, true
}

// parseValueWindow extracts a fixed-point monetary value from a window of
// up to width bytes at offset start. Non-printable bytes are dropped, the
// remaining literal is trimmed and must be digits with at most one decimal
// point.
func parseValueWindow(body []byte, start, width int) (float64, bool) {
	if start >= len(body) {
		return 0, false
	}
	end := start + width
	if end > len(body) {
		end = len(body)
	}

	var sb strings.Builder
	for _, b := range body[start:end] {
		if b >= 32 && b <= 127 {
			sb.WriteByte(b)
		}
	}

	literal := strings.TrimSpace(sb.String())
	if literal == "" {
		return 0, false
	}

	dots := 0
	for _, r := range literal {
		switch {
		case r == '.':
			dots++
			if dots > 1 {
				return 0, false
			}
		case r < '0' || r > '9':
			return 0, false
		}
	}

	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
