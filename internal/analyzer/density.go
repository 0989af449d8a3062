package analyzer

import (
	"context"

	"github.com/pdv-analysis/pkg/model"
	"github.com/pdv-analysis/pkg/parallel"
)

// densityMap partitions data into consecutive windows of the given size
// (the last window is truncated to whatever remains) and computes the
// byte-class density of each. Unlike the global distribution, the classes
// here are exclusive: nulls are not counted again as control bytes, so the
// four densities of every window sum to 1.
//
// Windows are independent, so they are profiled on a worker pool. Each
// task writes only its own slot of the result slice.
func densityMap(data []byte, window int) []model.DensityWindow {
	if len(data) == 0 {
		return []model.DensityWindow{}
	}

	count := (len(data) + window - 1) / window
	windows := make([]model.DensityWindow, count)

	indices := make([]int, count)
	for i := range indices {
		indices[i] = i
	}

	parallel.ForEach(context.Background(), indices, parallel.DefaultPoolConfig(),
		func(_ context.Context, i int) error {
			start := i * window
			end := start + window
			if end > len(data) {
				end = len(data)
			}
			windows[i] = windowDensity(data, start, end)
			return nil
		})

	return windows
}

func windowDensity(data []byte, start, end int) model.DensityWindow {
	var nulls, control, ascii int
	for _, b := range data[start:end] {
		switch {
		case b == 0:
			nulls++
		case b < 32:
			control++
		case b <= 127:
			ascii++
		}
	}
	size := end - start
	other := size - nulls - control - ascii

	return model.DensityWindow{
		Start:          start,
		End:            end - 1,
		NullDensity:    float64(nulls) / float64(size),
		ControlDensity: float64(control) / float64(size),
		ASCIIDensity:   float64(ascii) / float64(size),
		OtherDensity:   float64(other) / float64(size),
	}
}
