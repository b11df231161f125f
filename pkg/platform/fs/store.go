// Package fs holds the recorder's file access: scratch and destination files, and the file
// backed editor that recorded steps are inserted into.
package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// ReadFile returns the content of path, or "" when it does not exist.
func (s *Store) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteFile replaces the content of path, creating its parent directories.
func (s *Store) WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Remove deletes path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// CreateScratch creates an empty file named <prefix><uuid><ext> in dir.
func (s *Store) CreateScratch(dir, prefix, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	path := filepath.Join(dir, prefix+uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.logger.Debug("failed to close scratch file", zap.String("path", path), zap.Error(err))
	}
	return path, nil
}

// UniqueName returns dir/<base><ext>, or the first free dir/<base>-N<ext>.
func UniqueName(dir, base, ext string) string {
	path := filepath.Join(dir, base+ext)
	for i := 1; exists(path); i++ {
		path = filepath.Join(dir, base+"-"+strconv.Itoa(i)+ext)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
