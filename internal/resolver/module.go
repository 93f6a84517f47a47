package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNoModule is returned by FindModuleRoot when no go.mod encloses a directory.
var ErrNoModule = errors.New("no go.mod found")

// FindModuleRoot walks from dir towards the filesystem root and returns the
// first directory containing a go.mod file.
func FindModuleRoot(dir string) (string, error) {
	current := dir
	for {
		goMod := filepath.Join(current, "go.mod")
		if info, err := os.Stat(goMod); err == nil && !info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNoModule, dir)
		}
		current = parent
	}
}

// WorkDir returns the directory packages should be loaded from: the module
// root enclosing dir, or dir itself outside of any module (GOPATH mode and
// standard library only).
func WorkDir(dir string, logger *slog.Logger) (string, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", absPath)
	}

	modRoot, err := FindModuleRoot(absPath)
	if err != nil {
		logger.Debug("no enclosing module, loading from directory", "dir", absPath)
		return absPath, nil
	}

	logger.Debug("resolved module root", "dir", absPath, "module_root", modRoot)
	return modRoot, nil
}
