// Package export writes consult notes as downloadable text artifacts.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FilePrefix starts every exported note file name.
const FilePrefix = "fuo-consult"

// NoteFileName returns the timestamped file name for a note exported at t,
// e.g. fuo-consult-20261018-153000.txt.
func NoteFileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.txt", FilePrefix, t.Format("20060102-150405"))
}

// DefaultDir returns the directory used when the caller does not name one.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "exports"
	}
	return filepath.Join(homeDir, ".fuo-consult", "exports")
}

// EnsureDir creates the directory if it doesn't exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// WriteNote writes the note into dir under its timestamped name and returns the path.
func WriteNote(dir string, t time.Time, note string) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, NoteFileName(t))
	if err := os.WriteFile(path, []byte(note), 0o644); err != nil {
		return "", fmt.Errorf("failed to write note: %w", err)
	}
	return path, nil
}
