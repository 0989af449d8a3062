package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdv-analysis/pkg/model"
)

func makeRecords() []model.InvoiceRecord {
	return []model.InvoiceRecord{
		{BlockIndex: 1, Number: "100001", Series: "ABC", FinalValue: 10.00},
		{BlockIndex: 1, Number: "100002", Series: "ABC", FinalValue: 30.00},
		{BlockIndex: 2, Number: "100003", Series: "XYZ", FinalValue: 20.00},
	}
}

func TestInvoiceStats_Summary(t *testing.T) {
	calc := NewInvoiceStatsCalculator()
	result := calc.Calculate(makeRecords())

	assert.Equal(t, 3, result.Summary.Count)
	assert.InDelta(t, 60.00, result.Summary.Total, 1e-9)
	assert.InDelta(t, 20.00, result.Summary.Mean, 1e-9)
	assert.InDelta(t, 10.00, result.Summary.Min, 1e-9)
	assert.InDelta(t, 30.00, result.Summary.Max, 1e-9)
}

func TestInvoiceStats_BySeries(t *testing.T) {
	calc := NewInvoiceStatsCalculator()
	result := calc.Calculate(makeRecords())

	require.Len(t, result.BySeries, 2)
	// Sorted by total descending.
	assert.Equal(t, "ABC", result.BySeries[0].Series)
	assert.Equal(t, 2, result.BySeries[0].Count)
	assert.InDelta(t, 40.00, result.BySeries[0].Total, 1e-9)
	assert.Equal(t, "XYZ", result.BySeries[1].Series)
}

func TestInvoiceStats_ByBlock(t *testing.T) {
	calc := NewInvoiceStatsCalculator()
	result := calc.Calculate(makeRecords())

	assert.Equal(t, 2, result.ByBlock[1])
	assert.Equal(t, 1, result.ByBlock[2])
}

func TestInvoiceStats_MaxSeries(t *testing.T) {
	calc := NewInvoiceStatsCalculator(WithMaxSeries(1))
	result := calc.Calculate(makeRecords())

	require.Len(t, result.BySeries, 1)
	assert.Equal(t, "ABC", result.BySeries[0].Series)
}

func TestInvoiceStats_Empty(t *testing.T) {
	calc := NewInvoiceStatsCalculator()
	result := calc.Calculate(nil)

	assert.Zero(t, result.Summary.Count)
	assert.Zero(t, result.Summary.Total)
	assert.Empty(t, result.BySeries)
	assert.Empty(t, result.ByBlock)
}

func TestInvoiceStats_GetSeries(t *testing.T) {
	calc := NewInvoiceStatsCalculator()
	result := calc.Calculate(makeRecords())

	entry := result.GetSeries("XYZ")
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Count)

	assert.Nil(t, result.GetSeries("missing"))
}
