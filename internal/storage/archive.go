package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
)

// RunKey returns the object key for one artifact of an analysis run.
// Artifacts of a run share the "runs/<uuid>/" prefix.
func RunKey(runUUID, fileName string) string {
	return path.Join("runs", runUUID, fileName)
}

// ArchiveRun uploads the export artifacts of a run and returns the object
// keys written. Uploads stop at the first failure.
func ArchiveRun(ctx context.Context, s Storage, runUUID string, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key := RunKey(runUUID, filepath.Base(p))
		if err := s.UploadFile(ctx, key, p); err != nil {
			return keys, fmt.Errorf("failed to archive %s: %w", p, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
