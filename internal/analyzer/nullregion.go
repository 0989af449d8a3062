package analyzer

import "github.com/pdv-analysis/pkg/model"

// mapNullRegions finds every maximal run of zero bytes with length at least
// minRun, in a single left-to-right scan. Regions are appended in scan
// order, so the returned list is sorted by start and non-overlapping by
// construction. Shorter null runs are skipped; they stay inside whichever
// block later covers them.
func mapNullRegions(data []byte, minRun int) []model.NullRegion {
	if minRun < 1 {
		minRun = 1
	}

	regions := make([]model.NullRegion, 0)
	i := 0
	n := len(data)

	for i < n {
		for i < n && data[i] != 0 {
			i++
		}
		start := i
		for i < n && data[i] == 0 {
			i++
		}
		end := i - 1

		if length := end - start + 1; length >= minRun {
			regions = append(regions, model.NullRegion{
				Start:  start,
				End:    end,
				Length: length,
			})
		}
	}

	return regions
}
