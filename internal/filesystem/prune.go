package filesystem

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Prune deletes the files in dir with extension ext whose base name is not
// in keep, and returns how many were removed. Subdirectories and files with
// other extensions are left alone. A missing dir is not an error.
func Prune(dir, ext string, keep map[string]bool, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		if keep[strings.TrimSuffix(name, filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed++
		logger.Debug("pruned stale file", slog.String("deleted", path))
	}
	return removed, nil
}
