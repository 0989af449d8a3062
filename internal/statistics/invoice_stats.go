// Package statistics aggregates extracted invoice records into summary
// figures for reports and the web UI.
package statistics

import (
	"sort"

	"github.com/pdv-analysis/pkg/model"
)

// InvoiceStatsCalculator aggregates invoice records.
type InvoiceStatsCalculator struct {
	maxSeries int
}

// InvoiceStatsOption configures the InvoiceStatsCalculator.
type InvoiceStatsOption func(*InvoiceStatsCalculator)

// WithMaxSeries sets the maximum number of series entries to return.
func WithMaxSeries(n int) InvoiceStatsOption {
	return func(c *InvoiceStatsCalculator) {
		c.maxSeries = n
	}
}

// NewInvoiceStatsCalculator creates a new InvoiceStatsCalculator.
func NewInvoiceStatsCalculator(opts ...InvoiceStatsOption) *InvoiceStatsCalculator {
	c := &InvoiceStatsCalculator{
		maxSeries: 0, // 0 means no limit
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SeriesEntry represents one invoice series with its totals.
type SeriesEntry struct {
	Series string  `json:"series"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

// InvoiceStatsResult holds the calculation result.
type InvoiceStatsResult struct {
	Summary  model.InvoiceStats
	BySeries []SeriesEntry
	ByBlock  map[int]int
}

// Calculate aggregates the given invoice records.
func (c *InvoiceStatsCalculator) Calculate(records []model.InvoiceRecord) *InvoiceStatsResult {
	result := &InvoiceStatsResult{
		BySeries: make([]SeriesEntry, 0),
		ByBlock:  make(map[int]int),
	}

	if len(records) == 0 {
		return result
	}

	seriesTotals := make(map[string]*SeriesEntry)

	summary := model.InvoiceStats{
		Count: len(records),
		Min:   records[0].FinalValue,
		Max:   records[0].FinalValue,
	}

	for _, rec := range records {
		summary.Total += rec.FinalValue
		if rec.FinalValue < summary.Min {
			summary.Min = rec.FinalValue
		}
		if rec.FinalValue > summary.Max {
			summary.Max = rec.FinalValue
		}

		result.ByBlock[rec.BlockIndex]++

		if _, ok := seriesTotals[rec.Series]; !ok {
			seriesTotals[rec.Series] = &SeriesEntry{Series: rec.Series}
		}
		seriesTotals[rec.Series].Count++
		seriesTotals[rec.Series].Total += rec.FinalValue
	}

	summary.Mean = summary.Total / float64(summary.Count)
	result.Summary = summary

	entries := make([]SeriesEntry, 0, len(seriesTotals))
	for _, e := range seriesTotals {
		entries = append(entries, *e)
	}

	// Sort by total descending, series name as tie breaker for stable output
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Series < entries[j].Series
	})

	if c.maxSeries > 0 && len(entries) > c.maxSeries {
		entries = entries[:c.maxSeries]
	}
	result.BySeries = entries

	return result
}

// GetSeries returns the entry for a series name.
func (r *InvoiceStatsResult) GetSeries(name string) *SeriesEntry {
	for i := range r.BySeries {
		if r.BySeries[i].Series == name {
			return &r.BySeries[i]
		}
	}
	return nil
}
