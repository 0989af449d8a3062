package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdv-analysis/internal/testutil"
)

func TestDensityMap_Partitioning(t *testing.T) {
	data := testutil.NewRawImage(nil).Fill(2500, 'A').Bytes()

	windows := densityMap(data, 1024)
	require.Len(t, windows, 3)

	assert.Equal(t, 0, windows[0].Start)
	assert.Equal(t, 1023, windows[0].End)
	assert.Equal(t, 1024, windows[1].Start)
	assert.Equal(t, 2047, windows[1].End)

	// Last window is truncated to the remainder.
	assert.Equal(t, 2048, windows[2].Start)
	assert.Equal(t, 2499, windows[2].End)
}

func TestDensityMap_DensitiesSumToOne(t *testing.T) {
	data := testutil.NewRawImage(nil).
		Fill(300, 'x').
		Nulls(200).
		Fill(100, 0x05).
		Fill(150, 0xE7).
		Bytes()

	for _, w := range densityMap(data, 256) {
		sum := w.NullDensity + w.ControlDensity + w.ASCIIDensity + w.OtherDensity
		assert.InDelta(t, 1.0, sum, 1e-9, "window [%d,%d]", w.Start, w.End)
	}
}

func TestDensityMap_ExclusiveClasses(t *testing.T) {
	// A pure null window counts as null only, never double-counted as
	// control the way the global distribution does.
	data := testutil.NewRawImage(nil).Nulls(64).Bytes()

	windows := densityMap(data, 64)
	require.Len(t, windows, 1)
	assert.InDelta(t, 1.0, windows[0].NullDensity, 1e-9)
	assert.Zero(t, windows[0].ControlDensity)
	assert.Zero(t, windows[0].ASCIIDensity)
	assert.Zero(t, windows[0].OtherDensity)
}

func TestDensityMap_EmptyBuffer(t *testing.T) {
	windows := densityMap(nil, 1024)
	assert.NotNil(t, windows)
	assert.Empty(t, windows)
}

func TestDensityMap_SingleShortBuffer(t *testing.T) {
	data := []byte{'a', 0, 0xFF}

	windows := densityMap(data, 1024)
	require.Len(t, windows, 1)

	w := windows[0]
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 2, w.End)
	assert.InDelta(t, 1.0/3, w.NullDensity, 1e-9)
	assert.InDelta(t, 1.0/3, w.ASCIIDensity, 1e-9)
	assert.InDelta(t, 1.0/3, w.OtherDensity, 1e-9)
}
