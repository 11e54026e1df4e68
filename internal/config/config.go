// Package config holds runtime configuration: defaults, CLI flag parsing,
// environment overrides, and validation. The encode profile itself is fixed
// and lives in the ffmpeg package; nothing here can change it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// minProgressInterval keeps the reporter from flooding a terminal.
const minProgressInterval = time.Second

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [LoadEnv], then by [ParseFlags], and passed by pointer to the
// packages that need it.
type Config struct {
	// Path (set from the positional arg).
	RootDir string

	// External tools. Bare names are resolved through PATH.
	FFmpegPath  string // Default: "ffmpeg".
	FFprobePath string // Default: "ffprobe".

	// Progress display.
	ProgressInterval time.Duration // Default: 10s.
	Spinner          string        // Default: "dot". See [SpinnerFrames].

	// Behavior flags.
	DryRun          bool
	Analyze         bool // Probe and tabulate only.
	SkipExisting    bool // Default: true. Cleared by --force.
	ReplaceOriginal bool // Remove the source after a successful transcode.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		ProgressInterval: 10 * time.Second,
		Spinner:          "dot",
		SkipExisting:     true,
		ColorMode:        ColorAuto,
	}
}

// spinners maps --spinner names to bubbles presets.
var spinners = map[string]spinner.Spinner{
	"line":      spinner.Line,
	"dot":       spinner.Dot,
	"minidot":   spinner.MiniDot,
	"jump":      spinner.Jump,
	"pulse":     spinner.Pulse,
	"points":    spinner.Points,
	"globe":     spinner.Globe,
	"moon":      spinner.Moon,
	"monkey":    spinner.Monkey,
	"meter":     spinner.Meter,
	"hamburger": spinner.Hamburger,
	"ellipsis":  spinner.Ellipsis,
}

// SpinnerFrames returns the animation frames for the configured spinner.
// Unknown names fall back to the "dot" preset; Validate rejects them first.
func (c *Config) SpinnerFrames() []string {
	if s, ok := spinners[strings.ToLower(c.Spinner)]; ok {
		return s.Frames
	}
	return spinner.Dot.Frames
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and value ranges. When not in CheckOnly mode it
// also requires a root directory.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if _, ok := spinners[strings.ToLower(c.Spinner)]; !ok {
		return fmt.Errorf("unknown spinner %q", c.Spinner)
	}
	if c.ProgressInterval < minProgressInterval {
		return fmt.Errorf("progress interval must be at least %s (got %s)", minProgressInterval, c.ProgressInterval)
	}
	if strings.TrimSpace(c.FFmpegPath) == "" || strings.TrimSpace(c.FFprobePath) == "" {
		return errors.New("ffmpeg and ffprobe paths must not be empty")
	}
	if c.DryRun && c.Analyze {
		return errors.New("--dry-run and --analyze are mutually exclusive")
	}

	if c.CheckOnly {
		return nil
	}
	if c.RootDir == "" {
		return errors.New("need exactly one root_dir")
	}
	return nil
}
