// Package sink provides local destinations for transferred bytes: an
// atomically-renamed file for cp mode, and an optional transparent
// decompressor for cat mode.
package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/chanzuckerberg/s3mi/internal/logging"
)

// File is the cp destination. Bytes stream into a per-process partial
// name next to the final path; Commit fsyncs and renames so the final
// name only ever holds a complete object, and Abort removes the partial
// so a failed transfer leaves nothing behind.
type File struct {
	dest    string
	partial string
	f       *os.File
	log     *slog.Logger
}

// Create opens a partial file next to dest.
func Create(dest string) (*File, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	partial := fmt.Sprintf("%s.%s.partial", dest, uuid.NewString()[:8])
	f, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create partial file %s: %w", partial, err)
	}

	return &File{
		dest:    dest,
		partial: partial,
		f:       f,
		log:     logging.Component("sink"),
	}, nil
}

// Write appends to the partial file.
func (s *File) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// Commit fsyncs the partial file and renames it over the destination.
// The fsync runs before the rename so a crash cannot leave the final
// name pointing at unflushed data.
func (s *File) Commit() error {
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return fmt.Errorf("sync %s: %w", s.partial, err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.partial, err)
	}
	if err := os.Rename(s.partial, s.dest); err != nil {
		os.Remove(s.partial)
		return fmt.Errorf("rename %s to %s: %w", s.partial, s.dest, err)
	}
	return nil
}

// Abort closes and removes the partial file. Best-effort: absence is not
// an error, and a failed removal is logged but does not escalate.
func (s *File) Abort() {
	s.f.Close()
	if err := os.Remove(s.partial); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove partial file", "path", s.partial, "error", err)
	}
}

// Partial returns the partial file's path. Used by tests.
func (s *File) Partial() string {
	return s.partial
}
