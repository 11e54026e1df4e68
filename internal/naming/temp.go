package naming

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempPrefix starts every in-progress output name. Files carrying it are
// ignored by discovery so a crashed run's leftovers are never transcoded.
const TempPrefix = ".x265batch-"

// TempPath returns a collision-resistant temp output path in dir, built
// from the wall-clock time and a random UUID.
//
//	<dir>/.x265batch-20240101T120000-3f1c9a0e-....mkv
func TempPath(dir, container string, now time.Time) string {
	name := TempPrefix + now.Format("20060102T150405") + "-" + uuid.NewString() + "." + container
	return filepath.Join(dir, name)
}

// IsTemp reports whether path names an in-progress output.
func IsTemp(path string) bool {
	return strings.HasPrefix(filepath.Base(path), TempPrefix)
}
