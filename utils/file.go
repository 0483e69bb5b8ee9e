package utils

import (
	"path/filepath"

	"github.com/google/uuid"
)

// TmpSibling returns a unique temp path for writing path's content before the
// final rename. It stays on the destination filesystem (same dir, or tmpDir
// when set and on the same mount) so the rename is atomic.
func TmpSibling(path, tmpDir string) string {
	dir, base := filepath.Split(path)
	if tmpDir != "" {
		dir = tmpDir
	}
	return filepath.Join(dir, "tmp_"+uuid.NewString()+"_"+base)
}
