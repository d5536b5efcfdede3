package reporting

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<strategy>
func (p *DefaultPathManager) GetDefaultOutputDir(strategyID string) string {
	s := strings.ToLower(strings.TrimSpace(strategyID))
	if s == "" {
		s = "unknown"
	}
	return filepath.Join("results", s)
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// DefaultOutputDir is a convenience function using the default path manager
func DefaultOutputDir(strategyID string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(strategyID)
}
