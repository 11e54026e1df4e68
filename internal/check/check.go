// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for ffmpeg, ffprobe, libx265, and AAC.
package check

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/backmassage/x265batch/internal/config"
	"github.com/backmassage/x265batch/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
	ErrX265Unavailable = errors.New("libx265 test encode failed")
	ErrAACUnavailable  = errors.New("aac test encode failed")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints availability of ffmpeg,
// ffprobe, HEVC encoders, and test-encodes with libx265 and AAC. It reports
// whether everything the transcode needs is usable.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkTool(log, "ffmpeg", cfg.FFmpegPath)
	ok = checkTool(log, "ffprobe", cfg.FFprobePath) && ok
	if !ok {
		return false
	}
	listHEVCEncoders(log, cfg.FFmpegPath)

	log.Info("Testing %s...", ffmpeg.VideoEncoder)
	if runSilent(cfg.FFmpegPath, x265TestArgs()...) {
		log.Success("%s works", ffmpeg.VideoEncoder)
	} else {
		log.Error("%s test encode failed", ffmpeg.VideoEncoder)
		ok = false
	}

	log.Info("Testing %s encoder...", ffmpeg.AudioEncoder)
	if runSilent(cfg.FFmpegPath, aacTestArgs()...) {
		log.Success("%s encoder works", ffmpeg.AudioEncoder)
	} else {
		log.Error("%s encoder test failed", ffmpeg.AudioEncoder)
		ok = false
	}
	return ok
}

// checkTool verifies bin resolves and logs the first line of its -version.
func checkTool(log Logger, name, bin string) bool {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error("%s not found (%s)", name, bin)
		return false
	}
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return true
	}
	firstLine, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	log.Success("%s: %s", name, firstLine)
	return true
}

// listHEVCEncoders lists all HEVC-related encoders reported by ffmpeg.
func listHEVCEncoders(log Logger, bin string) {
	log.Info("HEVC encoders:")
	out, err := exec.Command(bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	for _, line := range strings.Split(string(out), "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "hevc") || strings.Contains(lower, "265") {
			log.Info("  %s", strings.TrimSpace(line))
		}
	}
}

// CheckDeps is the pre-pipeline validation: both tools must resolve and
// ffmpeg must be able to encode with libx265 and AAC. Every problem found
// is returned, each wrapping one of the sentinel errors.
func CheckDeps(cfg *config.Config) error {
	var result *multierror.Error
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrFFprobeNotFound, cfg.FFprobePath))
	}
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegPath))
		return result.ErrorOrNil()
	}
	if !runSilent(cfg.FFmpegPath, x265TestArgs()...) {
		result = multierror.Append(result, ErrX265Unavailable)
	}
	if !runSilent(cfg.FFmpegPath, aacTestArgs()...) {
		result = multierror.Append(result, ErrAACUnavailable)
	}
	return result.ErrorOrNil()
}

// --- internal helpers ---

// x265TestArgs returns the ffmpeg arguments for a minimal libx265 test encode.
// Shared by RunCheck and CheckDeps to avoid duplicating the argument list.
func x265TestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", ffmpeg.VideoEncoder,
		"-f", "null", "-",
	}
}

func aacTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", ffmpeg.AudioEncoder,
		"-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
