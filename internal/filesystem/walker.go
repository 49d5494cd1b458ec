package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"filewarden/pkg/models"
)

// Walker enumerates files to scan. It follows directory symlinks but keeps a
// set of resolved paths it has already entered, so traversal terminates on
// cyclic input and no file is emitted twice.
type Walker struct {
	exclude map[string]bool
	logger  *zap.Logger
	visited map[string]bool
}

// NewWalker creates a new filesystem walker
func NewWalker(exclude []string, logger *zap.Logger) *Walker {
	excludeSet := make(map[string]bool)
	for _, dir := range exclude {
		excludeSet[dir] = true
	}

	return &Walker{
		exclude: excludeSet,
		logger:  logger,
	}
}

// Walk enumerates root (a single file or a directory tree) and calls emit
// for every regular file. A non-nil error from emit aborts the walk; that is
// how the pipeline propagates cancellation.
func (w *Walker) Walk(root string, emit func(models.FileTask) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", root, err)
	}

	w.visited = make(map[string]bool)

	if !info.IsDir() {
		return w.emitFile(root, info.Size(), emit)
	}

	return w.walkDir(root, emit)
}

// walkDir recurses into one directory, skipping resolved paths seen before
func (w *Walker) walkDir(dir string, emit func(models.FileTask) error) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		w.logger.Warn("Cannot resolve directory", zap.String("path", dir), zap.Error(err))
		return nil
	}

	if w.visited[resolved] {
		w.logger.Debug("Skipping already-visited directory", zap.String("path", dir))
		return nil
	}
	w.visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("Cannot read directory", zap.String("path", dir), zap.Error(err))
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			w.logger.Warn("Cannot stat entry", zap.String("path", path), zap.Error(err))
			continue
		}

		if info.IsDir() {
			if w.exclude[entry.Name()] {
				w.logger.Debug("Skipping excluded directory", zap.String("path", path))
				continue
			}
			if err := w.walkDir(path, emit); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		if err := w.emitFile(path, info.Size(), emit); err != nil {
			return err
		}
	}

	return nil
}

// emitFile hands one regular file to the callback, deduplicated by its
// resolved path
func (w *Walker) emitFile(path string, size int64, emit func(models.FileTask) error) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}

	if w.visited[resolved] {
		return nil
	}
	w.visited[resolved] = true

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return emit(models.FileTask{AbsolutePath: abs, Size: size})
}
