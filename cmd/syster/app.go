package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"

	"github.com/mohammed-j-mahmoud/syster/internal/config"
	domainerrors "github.com/mohammed-j-mahmoud/syster/internal/core/errors"
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/graph"
	"github.com/mohammed-j-mahmoud/syster/internal/history"
	"github.com/mohammed-j-mahmoud/syster/internal/stdlib"
	"github.com/mohammed-j-mahmoud/syster/internal/watcher"
	"github.com/mohammed-j-mahmoud/syster/internal/workspace"
)

type App struct {
	Config     *config.Config
	Workspace  *workspace.Workspace
	History    *history.Store
	teaProgram *tea.Program
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{
		Config:    cfg,
		Workspace: workspace.New(slog.Default()),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.History = store
	}

	return app, nil
}

func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}

// InitialScan seeds the standard library, then loads every model file under
// the configured source paths. Per-file failures are logged and skipped so
// one broken file never hides the rest of the model.
func (a *App) InitialScan() error {
	if err := stdlib.Load(a.Workspace, a.Config.LibraryPath, slog.Default()); err != nil {
		return err
	}

	files, err := a.ScanDirectories(a.Config.SourcePaths, a.Config.Exclude.Dirs)
	if err != nil {
		return err
	}

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read file", "path", path, "error", err)
			continue
		}
		if err := a.Workspace.AddFile(path, string(content)); err != nil {
			slog.Warn("failed to load file", "path", path, "error", err)
		}
	}
	return nil
}

func (a *App) ScanDirectories(paths []string, excludeDirs []string) ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	extensions := make(map[string]bool, len(a.Config.Extensions))
	for _, ext := range a.Config.Extensions {
		extensions[ext] = true
	}

	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(filepath.Base(path)) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if extensions[filepath.Ext(path)] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// HandleBatch applies a debounced batch of filesystem changes to the
// workspace. A population superseded by a newer edit is not an error, the
// next batch will rebuild from the latest content.
func (a *App) HandleBatch(batch watcher.Batch) {
	slog.Info("detected changes", "updated", len(batch.Updated), "removed", len(batch.Removed))
	start := time.Now()

	for _, path := range batch.Removed {
		if deps := a.Workspace.DependentsOf(path); len(deps) > 0 {
			slog.Debug("removal invalidates dependents", "path", path, "dependents", deps)
		}
		if err := a.Workspace.RemoveFile(path); err != nil {
			a.logPopulateError(path, err)
		}
	}

	for _, path := range batch.Updated {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read changed file", "path", path, "error", err)
			continue
		}
		if deps := a.Workspace.DependentsOf(path); len(deps) > 0 {
			slog.Debug("edit invalidates dependents", "path", path, "dependents", deps)
		}
		if err := a.Workspace.UpdateFile(path, string(content)); err != nil {
			a.logPopulateError(path, err)
		}
	}

	a.Report(time.Since(start))
}

func (a *App) logPopulateError(path string, err error) {
	if domainerrors.IsCode(err, domainerrors.CodeCancelled) {
		slog.Debug("population superseded", "path", path)
		return
	}
	slog.Warn("failed to update workspace", "path", path, "error", err)
}

// Report prints the current model state, records a history snapshot and
// refreshes the TUI when one is attached. It returns the number of
// error-severity diagnostics so callers can derive an exit code.
func (a *App) Report(duration time.Duration) int {
	snap := a.Workspace.Snapshot()

	all, err := snap.AllDiagnostics()
	if err != nil {
		slog.Debug("snapshot went stale before reporting", "generation", snap.Generation)
		return 0
	}
	symbols, _ := snap.AllSymbols()

	diags := flatten(all)
	errors := 0
	if a.teaProgram == nil {
		errors = a.PrintSummary(diags, len(a.Workspace.Files()), len(symbols), duration)
	} else {
		errors, _ = diag.CountBySeverity(diags)
	}
	a.RecordHistory(snap, diags, len(symbols))

	if a.teaProgram != nil {
		a.teaProgram.Send(updateMsg{
			diagnostics: diags,
			generation:  snap.Generation,
			fileCount:   len(a.Workspace.Files()),
			symbolCount: len(symbols),
		})
	}

	return errors
}

func (a *App) PrintSummary(diags []diag.Diagnostic, fileCount, symbolCount int, duration time.Duration) int {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Model: %d files, %d symbols in %v\n", fileCount, symbolCount, duration.Round(time.Millisecond))

	errors, _ := diag.CountBySeverity(diags)
	byKind := make(map[diag.Kind]int)
	for _, d := range diags {
		byKind[d.Kind]++
	}

	if len(diags) == 0 {
		fmt.Println("✅ Model is clean.")
	} else {
		fmt.Printf("⚠️  FOUND %d DIAGNOSTICS:\n", len(diags))
		kinds := make([]string, 0, len(byKind))
		for k := range byKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("   %s: %d\n", k, byKind[diag.Kind(k)])
		}
		for _, d := range diags {
			fmt.Printf("   %s\n", d)
		}
	}
	fmt.Println(strings.Repeat("-", 40))

	return errors
}

// RecordHistory saves per-generation aggregate counts. The model itself is
// never persisted.
func (a *App) RecordHistory(snap *workspace.Snapshot, diags []diag.Diagnostic, symbolCount int) {
	if a.History == nil {
		return
	}

	edgeCount := 0
	for _, kind := range graph.Kinds {
		if edges, err := snap.Edges(kind); err == nil {
			edgeCount += len(edges)
		}
	}

	record := history.Snapshot{
		SchemaVersion: history.SchemaVersion,
		Timestamp:     time.Now().UTC(),
		Generation:    snap.Generation,
		FileCount:     len(a.Workspace.Files()),
		SymbolCount:   symbolCount,
		EdgeCount:     edgeCount,
	}
	record.CommitHash, record.CommitTimestamp = history.ModelCommit(".")

	for _, d := range diags {
		switch d.Kind {
		case diag.KindParseError:
			record.ParseErrors++
		case diag.KindDuplicateDefinition:
			record.Duplicates++
		case diag.KindUndefinedSymbol:
			record.UndefinedSymbols++
		case diag.KindCircularSpecialization, diag.KindCircularSubsetting, diag.KindCircularRedefinition:
			record.Cycles++
		case diag.KindUnresolvedImport:
			record.UnresolvedImports++
		case diag.KindAmbiguousSimpleName:
			record.AmbiguousNames++
		case diag.KindAliasCycle:
			record.AliasCycles++
		}
	}

	if err := a.History.SaveSnapshot(record); err != nil {
		slog.Warn("failed to record history snapshot", "error", err)
	}
}

func (a *App) StartWatcher() error {
	w, err := watcher.New(
		a.Config.Watch.Debounce,
		a.Config.Extensions,
		a.Config.Exclude.Dirs,
		a.HandleBatch,
	)
	if err != nil {
		return err
	}
	// Runs for the lifetime of the process, never closed.
	return w.Watch(a.Config.SourcePaths)
}

func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	go a.Report(0)

	_, err := p.Run()
	return err
}

// flatten orders diagnostics by file then position for stable output.
func flatten(byFile map[string][]diag.Diagnostic) []diag.Diagnostic {
	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []diag.Diagnostic
	for _, path := range paths {
		out = append(out, byFile[path]...)
	}
	return out
}
