// Command x265batch transcodes every non-HEVC video under a directory tree
// to HEVC, one file at a time.
//
// It loads .env and environment overrides, parses flags, validates the
// configuration, and either runs system diagnostics (--check), the probe
// report (--analyze), or the transcode pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/x265batch/internal/check"
	"github.com/backmassage/x265batch/internal/config"
	"github.com/backmassage/x265batch/internal/display"
	"github.com/backmassage/x265batch/internal/logging"
	"github.com/backmassage/x265batch/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.LoadEnv(&cfg, config.DefaultEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "x265batch: %v\n", err)
		return 1
	}
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "x265batch: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "x265batch: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "x265batch: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available; all output goes through log from here on.
	display.PrintBanner(os.Stdout, version)

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	root, err := resolveRoot(cfg.RootDir)
	if err != nil {
		log.Error("Root directory: %v", err)
		return 1
	}
	cfg.RootDir = root

	log.Info("=== x265batch v%s (%s) ===", version, commit)
	log.Info("Root: %s", cfg.RootDir)
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
	}

	// Fail fast if ffmpeg/ffprobe or the encoders are unavailable.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		log.Error("Run with --check for details")
		return 1
	}

	// Phase 3: Signal handling. Cancel the context on SIGINT/SIGTERM so the
	// pipeline stops before the next file.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping after the current file…")
		cancel()
	}()

	// Phase 4: Run.
	if cfg.Analyze {
		a := pipeline.Analyze(ctx, &cfg, log)
		if a.Err != nil || a.Failed() > 0 {
			return 1
		}
		return 0
	}

	stats := pipeline.Run(ctx, &cfg, log)
	if stats.Err() != nil {
		return 1
	}
	return 0
}

// resolveRoot returns the absolute, symlink-resolved root and checks that
// it is a directory.
func resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return abs, nil
}
