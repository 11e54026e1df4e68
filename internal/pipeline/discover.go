package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Discover walks root and returns every regular file under it, sorted
// lexicographically for deterministic processing order. Symlinks to regular
// files are included; symlinked directories are not followed.
//
// A subdirectory that cannot be read is reported through onErr (when
// non-nil) and skipped. Only a failure to read root itself is returned.
func Discover(root string, onErr func(path string, err error)) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if onErr != nil {
				onErr(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case d.IsDir():
			return nil
		case d.Type().IsRegular():
			files = append(files, path)
		case d.Type()&fs.ModeSymlink != 0:
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
