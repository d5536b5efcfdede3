package state

import (
	"context"
	"os"
	"path/filepath"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/logger"
)

// FileStore keeps snapshots as files; the key is the file path.
// Writes go through a temp file and an atomic rename, and the previous
// snapshot is kept next to it with a .bak suffix.
type FileStore struct {
	logger *logger.Logger
	backup bool
}

// NewFileStore creates a file store that keeps backups
func NewFileStore(log *logger.Logger) *FileStore {
	return &FileStore{logger: logger.OrNop(log), backup: true}
}

// WithoutBackup disables the .bak copy of the previous snapshot
func (fs *FileStore) WithoutBackup() *FileStore {
	fs.backup = false
	return fs
}

// Save writes data to path atomically
func (fs *FileStore) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return guarderrors.NewPersistenceError("state", "Save", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return guarderrors.NewPersistenceError("state", "Save", err)
		}
	}

	if fs.backup {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+".bak"); err != nil {
				fs.logger.LogWarning("State Backup", "Failed to create backup: %v", err)
			}
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return guarderrors.NewPersistenceError("state", "Save", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return guarderrors.NewPersistenceError("state", "Save", err)
	}

	fs.logger.Info("State saved successfully to %s", path)
	return nil
}

// Load reads the snapshot stored at path
func (fs *FileStore) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, guarderrors.NewPersistenceError("state", "Load", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, guarderrors.NewNotFoundError("state", "Load", "no state file at "+path)
		}
		return nil, guarderrors.NewPersistenceError("state", "Load", err)
	}
	return data, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
