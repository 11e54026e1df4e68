package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks output paths claimed by source files during one
// run. Two sources that map to the same canonical output (clip.avi and
// clip.mp4 in one folder) get distinct names: the first claims the
// canonical path, later ones get [QualifiedPath]. All methods are
// goroutine-safe.
type CollisionResolver struct {
	mu           sync.Mutex
	container    string
	allowInPlace bool
	owners       map[string]string // output path → source path that owns it
}

// NewCollisionResolver creates a ready-to-use resolver. allowInPlace lets a
// source whose canonical output equals its own path (a non-HEVC clip.mkv)
// be replaced in place; otherwise such sources get a qualified name.
func NewCollisionResolver(container string, allowInPlace bool) *CollisionResolver {
	return &CollisionResolver{
		container:    container,
		allowInPlace: allowInPlace,
		owners:       make(map[string]string),
	}
}

// Reserve marks src as the owner of its own path. Runs call it for every
// source already sitting at a canonical output name (clip.mkv) so that a
// sibling (clip.avi) never writes over it.
func (cr *CollisionResolver) Reserve(src string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.owners[src] = src
}

// Reserved reports whether path is held by a reservation from [Reserve].
func (cr *CollisionResolver) Reserved(path string) bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.owners[path] == path
}

// Release drops the reservation on path so the next [Resolve] may claim it.
func (cr *CollisionResolver) Release(path string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if cr.owners[path] == path {
		delete(cr.owners, path)
	}
}

// Resolve returns the final output path for src and claims it.
func (cr *CollisionResolver) Resolve(src string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	requested := OutputPath(src, cr.container)
	if requested == src && !cr.allowInPlace {
		requested = QualifiedPath(src, cr.container)
	}

	owner, exists := cr.owners[requested]
	if !exists || owner == src {
		cr.owners[requested] = src
		return requested
	}

	qualified := QualifiedPath(src, cr.container)
	if owner, exists := cr.owners[qualified]; !exists || owner == src {
		cr.owners[qualified] = src
		return qualified
	}

	// Hash collision between two sources in one folder: fall back to a counter.
	ext := filepath.Ext(qualified)
	stem := strings.TrimSuffix(qualified, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if owner, exists := cr.owners[candidate]; !exists || owner == src {
			cr.owners[candidate] = src
			return candidate
		}
	}
}
