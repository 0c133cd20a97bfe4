package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SetupLogFile opens a new timestamped log file named "<prefix>-<time>.log"
// under dir and prunes older files with the same prefix down to maxFiles
// (0 keeps everything). The caller must close the file.
func SetupLogFile(dir, prefix string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.log", prefix,
		time.Now().UTC().Format("2006-01-02T15-04-05")))

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if maxFiles > 0 {
		if err := pruneLogs(dir, prefix, maxFiles); err != nil {
			// logging still works; report on stderr only
			fmt.Fprintf(os.Stderr, "warning: failed to prune old logs: %v\n", err)
		}
	}

	return f, nil
}

// pruneLogs removes the oldest files once more than keep exist.
// The timestamp format sorts chronologically by name.
func pruneLogs(dir, prefix string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, prefix+"-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	for _, name := range files[:len(files)-keep] {
		if err := os.Remove(name); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
