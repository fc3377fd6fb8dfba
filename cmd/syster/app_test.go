package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohammed-j-mahmoud/syster/internal/config"
	"github.com/mohammed-j-mahmoud/syster/internal/watcher"
)

func writeModel(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAppInitialScan(t *testing.T) {
	tmpDir := t.TempDir()
	libDir := filepath.Join(tmpDir, "lib")
	if err := os.MkdirAll(libDir, 0755); err != nil {
		t.Fatal(err)
	}

	writeModel(t, libDir, "base.sysml", "package Base { part def Anything; }")
	writeModel(t, tmpDir, "vehicle.sysml", `
		package Vehicles {
			import Base::*;
			part def Vehicle :> Anything;
			part def Car :> Vehicle;
		}
	`)
	writeModel(t, tmpDir, "notes.txt", "not a model file")

	cfg := config.Default()
	cfg.LibraryPath = libDir
	cfg.SourcePaths = []string{tmpDir}
	cfg.Exclude.Dirs = []string{"lib"}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		t.Fatal(err)
	}

	// lib/base.sysml arrives via the library loader, vehicle.sysml via the
	// scan; notes.txt is filtered by extension.
	if got := len(app.Workspace.Files()); got != 2 {
		t.Fatalf("expected 2 files, got %d: %v", got, app.Workspace.Files())
	}

	snap := app.Workspace.Snapshot()
	if _, err := snap.LookupQualified("Vehicles::Car"); err != nil {
		t.Errorf("expected Vehicles::Car to resolve: %v", err)
	}
	ok, err := snap.IsSpecialization("Vehicles::Car", "Base::Anything")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected Car to transitively specialize Anything")
	}

	if errors := app.Report(time.Millisecond); errors != 0 {
		t.Errorf("expected clean model, got %d errors", errors)
	}
}

func TestAppReportCountsErrors(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "broken.sysml", "package P { part x : Missing; }")

	cfg := config.Default()
	cfg.SourcePaths = []string{tmpDir}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		t.Fatal(err)
	}

	if errors := app.Report(0); errors == 0 {
		t.Error("expected undefined symbol to count as an error")
	}
}

func TestAppHandleBatch(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeModel(t, tmpDir, "model.sysml", "package P { part def A; }")

	cfg := config.Default()
	cfg.SourcePaths = []string{tmpDir}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		t.Fatal(err)
	}

	writeModel(t, tmpDir, "model.sysml", "package P { part def A; part def B :> A; }")
	app.HandleBatch(watcher.Batch{Updated: []string{path}})

	snap := app.Workspace.Snapshot()
	if _, err := snap.LookupQualified("P::B"); err != nil {
		t.Errorf("expected P::B after update: %v", err)
	}

	app.HandleBatch(watcher.Batch{Removed: []string{path}})
	snap = app.Workspace.Snapshot()
	if _, err := snap.LookupQualified("P::A"); err == nil {
		t.Error("expected P::A gone after removal")
	}
}

func TestAppRecordsHistory(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "model.sysml", "package P { part def A; part b : A; }")

	cfg := config.Default()
	cfg.SourcePaths = []string{tmpDir}
	cfg.History.Path = filepath.Join(tmpDir, "history.db")

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(); err != nil {
		t.Fatal(err)
	}
	app.Report(0)

	snaps, err := app.History.Snapshots(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 history snapshot, got %d", len(snaps))
	}
	if snaps[0].SymbolCount != 3 {
		t.Errorf("expected 3 symbols recorded, got %d", snaps[0].SymbolCount)
	}
	if snaps[0].EdgeCount != 1 {
		t.Errorf("expected 1 typing edge recorded, got %d", snaps[0].EdgeCount)
	}
}

func TestScanDirectoriesExcludes(t *testing.T) {
	tmpDir := t.TempDir()
	hidden := filepath.Join(tmpDir, ".git")
	if err := os.MkdirAll(hidden, 0755); err != nil {
		t.Fatal(err)
	}
	writeModel(t, hidden, "stash.sysml", "package Hidden;")
	writeModel(t, tmpDir, "model.sysml", "package P;")

	cfg := config.Default()
	app := &App{Config: cfg}

	files, err := app.ScanDirectories([]string{tmpDir}, cfg.Exclude.Dirs)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "model.sysml" {
		t.Fatalf("expected only model.sysml, got %v", files)
	}
}
