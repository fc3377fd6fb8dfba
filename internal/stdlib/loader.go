// Package stdlib loads the standard model library into a workspace before
// any project file, so library names resolve like ordinary declarations.
package stdlib

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/workspace"
)

// Extensions the library loader picks up.
var extensions = map[string]bool{".sysml": true, ".kerml": true}

// Load reads every library file under dir and seeds the workspace with
// them in one population cycle. A missing directory is not an error: the
// workspace simply runs without a standard library.
func Load(ws *workspace.Workspace, dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Warn("library path does not exist, skipping", "path", dir)
		return nil
	}

	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(content)
		return nil
	})
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "loading standard library")
	}
	if len(files) == 0 {
		logger.Warn("no library files found", "path", dir)
		return nil
	}

	logger.Info("loading standard library", "path", dir, "files", len(files))
	return ws.SeedLibrary(files)
}
