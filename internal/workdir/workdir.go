// Package workdir locates liftlog's files on disk.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DBFile is the SQLite set log.
	DBFile = "liftlog.db"
	// LogFile receives CLI logs while the TUI owns the terminal.
	LogFile = "liftlog.log"
)

// Root returns the base directory for liftlog's files:
//
//	$HOME/.liftlog
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".liftlog"), nil
}

// ChunkDir is where recorded audio chunks live until they are transcribed.
func ChunkDir() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "chunks"), nil
}

// FilePath returns the full path for a file directly under Root.
func FilePath(filename string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filename), nil
}

// Prep ensures that Root and the chunk directory exist.
func Prep() error {
	dir, err := ChunkDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory %s: %w", dir, err)
	}

	return nil
}

// Resolve returns configured if it is set, otherwise the default path for
// filename.
func Resolve(configured, filename string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return FilePath(filename)
}
