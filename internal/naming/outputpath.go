package naming

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
)

// OutputPath returns the canonical output for src: same directory, same
// base name without its extension, the given container extension.
//
//	/media/show/ep01.avi -> /media/show/ep01.mkv
func OutputPath(src, container string) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(filepath.Dir(src), stem+"."+container)
}

// QualifiedPath returns the disambiguated output for src: the canonical
// name with an 8-hex-digit hash of the full source path inserted before the
// extension. The hash makes the name stable across runs.
//
//	/media/show/ep01.mp4 -> /media/show/ep01.1a2b3c4d.mkv
func QualifiedPath(src, container string) string {
	canonical := OutputPath(src, container)
	ext := filepath.Ext(canonical)
	return strings.TrimSuffix(canonical, ext) + "." + PathHash(src) + ext
}

// PathHash is the FNV-1a 32-bit hash of path in hex.
func PathHash(path string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return fmt.Sprintf("%08x", h.Sum32())
}
