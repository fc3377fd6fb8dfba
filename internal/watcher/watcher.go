// Package watcher feeds live filesystem edits into the workspace: model
// file writes and removals are debounced into batches so a burst of editor
// saves triggers one repopulation, not many.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/mohammed-j-mahmoud/syster/internal/observability"
	"github.com/mohammed-j-mahmoud/syster/internal/shared/util"
)

// Batch is one debounced set of filesystem changes.
type Batch struct {
	Updated []string
	Removed []string
}

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	extensions  map[string]bool
	excludeDirs []glob.Glob
	limiter     *util.Limiter
	onBatch     func(Batch)
	callbackMu  sync.Mutex

	pending   map[string]bool // path -> removed
	pendingMu sync.Mutex
	timer     *time.Timer
}

func New(debounce time.Duration, extensions []string, excludeDirs []string, onBatch func(Batch)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:  fsw,
		debounce:   debounce,
		extensions: make(map[string]bool),
		limiter:    util.NewLimiter(10, 20),
		onBatch:    onBatch,
		pending:    make(map[string]bool),
	}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = true
	}

	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}

	return w, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.isModelFile(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename:
				w.scheduleChange(event.Name, true)
			case event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create:
				w.scheduleChange(event.Name, false)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string, removed bool) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = removed

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	var batch Batch
	for path, removed := range w.pending {
		if removed {
			batch.Removed = append(batch.Removed, path)
		} else {
			batch.Updated = append(batch.Updated, path)
		}
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(batch.Updated) == 0 && len(batch.Removed) == 0 {
		return
	}
	if !w.limiter.Allow(1) {
		// Under an event storm, park the batch for the next flush window.
		w.pendingMu.Lock()
		for _, p := range batch.Updated {
			w.pending[p] = false
		}
		for _, p := range batch.Removed {
			w.pending[p] = true
		}
		w.timer = time.AfterFunc(w.debounce, func() { w.flushChanges() })
		w.pendingMu.Unlock()
		return
	}

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onBatch(batch)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) isModelFile(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) Close() error {
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !w.isModelFile(path) {
			return nil
		}
		w.scheduleChange(path, false)
		return nil
	})
}
