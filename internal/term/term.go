// Package term provides color state and terminal detection.
//
// Styles are package-level variables because several packages (logging,
// progress, pipeline) render with them. [Configure] pins the lipgloss color
// profile once during startup; when colors are disabled the profile is
// ASCII and every style renders its text unchanged.
package term

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/backmassage/x265batch/internal/config"
)

// Shared styles. Colors are ANSI-256 codes.
var (
	Red     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	Green   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	Yellow  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	Blue    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	Cyan    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	Magenta = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var enabled bool

// Configure resolves the color mode and sets the lipgloss color profile.
// Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) {
	enabled = resolve(mode)
	if enabled {
		lipgloss.SetColorProfile(termenv.ANSI256)
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Enabled reports whether colors are currently active.
func Enabled() bool { return enabled }

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
