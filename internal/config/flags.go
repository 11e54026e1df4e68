package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into tools, behavior, display, and utility.
// Negated flags (e.g. --force clearing SkipExisting) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseFlags parses args (without the program name) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, missing positional arg).
func ParseFlags(cfg *Config, version string, args []string) error {
	fs := flag.NewFlagSet("x265batch", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	// Negated/override flags: we capture bools then apply to cfg after Parse,
	// so that defaults from DefaultConfig() hold unless the user passes the flag.
	var negated negatedFlags

	defineToolFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg, &negated)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "x265batch v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	force       bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineToolFlags registers --ffmpeg, --ffprobe.
func defineToolFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg binary")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "ffprobe binary")
}

// defineBehaviorFlags registers dry-run, analyze, force, replace.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Decide only; do not encode")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.BoolVar(&cfg.Analyze, "analyze", false, "Probe every video and print a codec table")
	fs.BoolVar(&cfg.Analyze, "a", false, "Same as --analyze")
	fs.BoolVar(&cfg.ReplaceOriginal, "replace", false, "Remove the source after a successful transcode")
	fs.BoolVar(&n.force, "force", false, "Overwrite existing output files")
	fs.BoolVar(&n.force, "f", false, "Same as --force")
}

// defineDisplayFlags registers progress, color, verbose, check and log flags.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&intervalValue{&cfg.ProgressInterval}, "interval", "Progress refresh interval (e.g. 10s)")
	fs.Var(&intervalValue{&cfg.ProgressInterval}, "i", "Same as --interval")
	fs.StringVar(&cfg.Spinner, "spinner", cfg.Spinner, "Progress animation")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.force {
		cfg.SkipExisting = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets RootDir from the single positional arg when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("need exactly one root_dir")
	}
	cfg.RootDir = NormalizeDirArg(args[0])
	return nil
}

// parseInt parses a string as an integer; returns a clear error on failure.
func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number (got %q)", name, s)
	}
	return n, nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 28 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "x265batch v" + version + " - batch HEVC transcoder"},
		{"", ""},
		{"  x265batch [OPTIONS] <root_dir>", ""},
		{"", ""},
		{"Tools", ""},
		{"  --ffmpeg <path>", "ffmpeg binary (default: ffmpeg, env " + EnvFFmpeg + ")"},
		{"  --ffprobe <path>", "ffprobe binary (default: ffprobe, env " + EnvFFprobe + ")"},
		{"", ""},
		{"Output & behavior", ""},
		{"  -f, --force", "Overwrite existing output files"},
		{"  --replace", "Remove the source after a successful transcode"},
		{"  -d, --dry-run", "Decide only; do not encode"},
		{"  -a, --analyze", "Probe every video and print a codec table"},
		{"", ""},
		{"Display", ""},
		{"  -i, --interval <dur>", "Progress refresh interval (default: 10s)"},
		{"  --spinner <name>", "dot, line, moon, globe, meter, ... (default: dot)"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, ffprobe, x265, AAC)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapter for the progress interval: accepts "15s" or bare seconds.

type intervalValue struct{ p *time.Duration }

func (v *intervalValue) String() string {
	if v.p == nil {
		return ""
	}
	return v.p.String()
}

func (v *intervalValue) Set(s string) error {
	d, err := parseInterval(s)
	if err != nil {
		return err
	}
	*v.p = d
	return nil
}
