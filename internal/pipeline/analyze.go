package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/backmassage/x265batch/internal/config"
	"github.com/backmassage/x265batch/internal/logging"
	"github.com/backmassage/x265batch/internal/planner"
	"github.com/backmassage/x265batch/internal/probe"
	"github.com/backmassage/x265batch/internal/term"
)

// AnalysisRow is one probed candidate in an --analyze report.
type AnalysisRow struct {
	Path       string
	VideoCodec string
	Resolution string
	AudioCodec string
	Action     planner.Action
	Err        error // set when probe or decision failed
}

// Analysis is the result of [Runner.Analyze].
type Analysis struct {
	Rows []AnalysisRow
	Err  error // discovery failure; no rows were probed
}

// Failed counts rows that could not be probed or decided.
func (a *Analysis) Failed() int {
	n := 0
	for _, r := range a.Rows {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Analyze probes every candidate with the real tools and prints the report.
func Analyze(ctx context.Context, cfg *config.Config, log *logging.Logger) Analysis {
	return NewRunner(cfg, log).Analyze(ctx)
}

// Analyze probes every candidate under Cfg.RootDir, prints a table of
// codecs and the decision each file would get, and logs a per-codec
// summary. Nothing is encoded.
func (r *Runner) Analyze(ctx context.Context) Analysis {
	var a Analysis

	candidates, err := r.candidates()
	if err != nil {
		r.Log.Error("File discovery failed: %v", err)
		a.Err = err
		return a
	}
	if len(candidates) == 0 {
		r.Log.Warn("No video files found in %s", r.Cfg.RootDir)
		return a
	}

	total := len(candidates)
	r.Log.Info("Analyzing %d files in %s …", total, r.Cfg.RootDir)
	fmt.Fprintln(r.Out)

	f, isFile := r.Out.(*os.File)
	isTTY := isFile && term.IsTerminal(f)
	for i, c := range candidates {
		if ctx.Err() != nil {
			if isTTY {
				clearProgress(r.Out)
			}
			r.Log.Warn("Interrupted")
			break
		}
		if isTTY {
			printProgress(r.Out, i+1, total, filepath.Base(c.Path))
		}
		a.Rows = append(a.Rows, r.analyzeOne(ctx, c.Path))
	}
	if isTTY {
		clearProgress(r.Out)
	}

	printAnalysisTable(r.Out, a.Rows)
	printAnalysisSummary(r.Log, a.Rows)
	return a
}

func (r *Runner) analyzeOne(ctx context.Context, path string) AnalysisRow {
	row := AnalysisRow{Path: path}
	streams, err := r.Prober.Probe(context.WithoutCancel(ctx), path)
	if err != nil {
		row.Err = &StageError{Path: path, Stage: StageProbe, Err: err}
		return row
	}
	d, err := planner.Decide(streams)
	if err != nil {
		row.Err = &StageError{Path: path, Stage: StageDecide, Err: err}
		return row
	}
	row.VideoCodec = codecOrUnknown(d.Video.CodecName)
	row.Resolution = d.Video.Resolution()
	row.AudioCodec = codecOrUnknown(d.Audio.CodecName)
	row.Action = d.Action
	return row
}

func printAnalysisTable(w io.Writer, rows []AnalysisRow) {
	headers := []string{"File", "Video", "Resolution", "Audio", "Decision"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = rowCells(r)
		for j, c := range cells[i] {
			if n := len([]rune(c)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	if widths[0] > 50 {
		widths[0] = 50
	}

	var hdr strings.Builder
	for i, h := range headers {
		fmt.Fprintf(&hdr, "  %-*s", widths[i], h)
	}
	header := hdr.String()
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for i, r := range rows {
		c := cells[i]
		name := c[0]
		if len([]rune(name)) > widths[0] {
			name = string([]rune(name)[:widths[0]-1]) + "…"
		}
		// Pad the plain text first, then style it, so escape bytes never
		// count toward the column width.
		fmt.Fprintf(w, "  %s  %-*s  %-*s  %-*s  %s\n",
			padRunes(name, widths[0]),
			widths[1], c[1],
			widths[2], c[2],
			widths[3], c[3],
			decisionStyle(r).Render(padRunes(c[4], widths[4])),
		)
	}
	fmt.Fprintln(w)
}

func rowCells(r AnalysisRow) []string {
	name := filepath.Base(r.Path)
	if r.Err != nil {
		return []string{name, "-", "-", "-", "error (" + failureLabel(r.Err) + ")"}
	}
	res := r.Resolution
	if res == "" {
		res = "n/a"
	}
	return []string{name, r.VideoCodec, res, r.AudioCodec, r.Action.String()}
}

// failureLabel names the cause of a failed row in a few words.
func failureLabel(err error) string {
	switch {
	case errors.Is(err, planner.ErrInsufficientStreams):
		return "not 2 streams"
	case errors.Is(err, probe.ErrProbeFailed):
		return "probe failed"
	case errors.Is(err, probe.ErrProbeMalformed):
		return "bad probe output"
	default:
		return "failed"
	}
}

func decisionStyle(r AnalysisRow) lipgloss.Style {
	switch {
	case r.Err != nil:
		return term.Red
	case r.Action == planner.ActionSkip:
		return term.Green
	default:
		return term.Yellow
	}
}

func padRunes(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func printAnalysisSummary(log *logging.Logger, rows []AnalysisRow) {
	var transcode, skip, failed int
	codecs := make(map[string]int)
	for _, r := range rows {
		switch {
		case r.Err != nil:
			failed++
			continue
		case r.Action == planner.ActionSkip:
			skip++
		default:
			transcode++
		}
		codecs[r.VideoCodec]++
	}

	log.Info("Analyzed %d files: %d to transcode, %d already %s, %d failed",
		len(rows), transcode, skip, planner.TargetCodec, failed)

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if codecs[names[i]] != codecs[names[j]] {
			return codecs[names[i]] > codecs[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		log.Info("  %-10s %d", name, codecs[name])
	}
	if failed > 0 {
		log.Error("  %d file(s) could not be analyzed", failed)
	} else if transcode == 0 {
		log.Success("  Nothing to transcode")
	}
}

// printProgress shows a live probe counter on a TTY as one
// \r-overwritten line.
func printProgress(w io.Writer, current, total int, name string) {
	pct := current * 100 / total
	status := fmt.Sprintf("  Probing [%d/%d] %d%% ", current, total, pct)

	maxName := 40
	if len([]rune(name)) > maxName {
		name = string([]rune(name)[:maxName-1]) + "…"
	}
	fmt.Fprintf(w, "\r\033[2K%s%s", status, name)
}

// clearProgress erases the inline progress line.
func clearProgress(w io.Writer) {
	fmt.Fprint(w, "\r\033[2K")
}
