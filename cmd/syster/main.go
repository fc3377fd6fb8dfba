package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mohammed-j-mahmoud/syster/internal/config"
	"github.com/mohammed-j-mahmoud/syster/internal/observability"
)

var (
	configPath = flag.String("config", "./syster.toml", "Path to config file")
	watch      = flag.Bool("watch", false, "Keep the workspace live and re-analyze on file changes")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("syster v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600); err == nil {
			output = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./syster.toml" {
			cfg, err = config.Load("./syster.example.toml")
		}
		if err != nil {
			slog.Debug("no config file, using defaults", "error", err)
			cfg = config.Default()
		}
	}

	if flag.NArg() > 0 {
		cfg.SourcePaths = []string{flag.Arg(0)}
	}

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx)
	if err != nil {
		slog.Warn("failed to initialize tracing", "error", err)
	} else {
		defer shutdownTracing(ctx)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if cfg.Metrics.Addr != "" {
		srv := observability.NewServer(cfg.Metrics.Addr, app.Workspace)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start metrics endpoint", "addr", cfg.Metrics.Addr, "error", err)
			os.Exit(1)
		}
		defer srv.Stop(ctx)
	}

	if err := app.InitialScan(); err != nil {
		slog.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	errorCount := app.Report(0)

	if !*watch && !*ui {
		if errorCount > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := app.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	if *ui {
		if err := app.RunUI(); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
	} else {
		// Block forever
		select {}
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "syster", "syster.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "syster", "syster.log")
	}

	return "syster.log"
}
