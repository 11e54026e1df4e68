package config

// This file applies environment overrides. Values come from the process
// environment first and an optional .env file second, so an exported
// variable always wins over the file. Flags are parsed afterwards and win
// over both.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvFFmpeg           = "X265BATCH_FFMPEG"
	EnvFFprobe          = "X265BATCH_FFPROBE"
	EnvProgressInterval = "X265BATCH_PROGRESS_INTERVAL"
	EnvSpinner          = "X265BATCH_SPINNER"
	EnvLogFile          = "X265BATCH_LOG"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// LoadEnv applies overrides from the environment and from envFile. A
// missing envFile is not an error.
func LoadEnv(cfg *Config, envFile string) error {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case errors.Is(err, fs.ErrNotExist):
			// optional
		default:
			return fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}
	return applyEnv(cfg, lookup)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvFFmpeg); ok && strings.TrimSpace(v) != "" {
		cfg.FFmpegPath = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvFFprobe); ok && strings.TrimSpace(v) != "" {
		cfg.FFprobePath = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSpinner); ok && strings.TrimSpace(v) != "" {
		cfg.Spinner = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogFile); ok && strings.TrimSpace(v) != "" {
		cfg.LogFile = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvProgressInterval); ok && strings.TrimSpace(v) != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProgressInterval, err)
		}
		cfg.ProgressInterval = d
	}
	return nil
}

// parseInterval accepts Go durations ("15s", "1m") or bare seconds ("15").
func parseInterval(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	n, err := parseInt(s, "progress interval")
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
