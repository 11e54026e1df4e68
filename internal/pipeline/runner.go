package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/backmassage/x265batch/internal/config"
	"github.com/backmassage/x265batch/internal/display"
	"github.com/backmassage/x265batch/internal/ffmpeg"
	"github.com/backmassage/x265batch/internal/logging"
	"github.com/backmassage/x265batch/internal/media"
	"github.com/backmassage/x265batch/internal/naming"
	"github.com/backmassage/x265batch/internal/planner"
	"github.com/backmassage/x265batch/internal/probe"
	"github.com/backmassage/x265batch/internal/progress"
	"github.com/backmassage/x265batch/internal/term"
)

// StreamProber lists a file's streams. *probe.Prober satisfies it.
type StreamProber interface {
	Probe(ctx context.Context, path string) ([]probe.Stream, error)
}

// Transcoder encodes src into dst. *ffmpeg.Encoder satisfies it.
type Transcoder interface {
	Encode(src, dst string) error
}

// Runner drives a batch. Build one with [NewRunner]; tests replace Prober
// and Encoder with fakes.
type Runner struct {
	Cfg        *config.Config
	Log        *logging.Logger
	Classifier *media.Classifier
	Prober     StreamProber
	Encoder    Transcoder
	Out        io.Writer // separators and the analysis table
	Now        func() time.Time
}

// NewRunner wires the real ffprobe and ffmpeg wrappers from cfg. Each encode
// gets a progress reporter on stdout.
func NewRunner(cfg *config.Config, log *logging.Logger) *Runner {
	tty := term.IsTerminal(os.Stdout)
	frames := cfg.SpinnerFrames()
	enc := &ffmpeg.Encoder{
		Bin:     cfg.FFmpegPath,
		Verbose: cfg.Verbose,
		Progress: func(label string) ffmpeg.ProgressRunner {
			return &progress.Reporter{
				Out:      os.Stdout,
				Label:    label,
				Interval: cfg.ProgressInterval,
				Frames:   frames,
				TTY:      tty,
			}
		},
	}
	return &Runner{
		Cfg:        cfg,
		Log:        log,
		Classifier: media.NewClassifier(),
		Prober:     probe.NewProber(cfg.FFprobePath),
		Encoder:    enc,
		Out:        os.Stdout,
		Now:        time.Now,
	}
}

// Run is the top-level batch entry point with the real tools wired in.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) RunStats {
	return NewRunner(cfg, log).Run(ctx)
}

// Run discovers videos under Cfg.RootDir and processes them one at a time.
// A failure on one file is recorded and the batch moves on. Cancelling ctx
// stops the batch before the next file; an encode already running is left
// to finish.
func (r *Runner) Run(ctx context.Context) RunStats {
	var stats RunStats

	candidates, err := r.candidates()
	if err != nil {
		r.Log.Error("File discovery failed: %v", err)
		stats.Errs = multierror.Append(stats.Errs, err)
		return stats
	}

	stats.Total = len(candidates)
	resolver := naming.NewCollisionResolver(ffmpeg.Container, r.Cfg.ReplaceOriginal)
	for _, c := range candidates {
		if naming.OutputPath(c.Path, ffmpeg.Container) == c.Path {
			resolver.Reserve(c.Path)
		}
	}

	r.logBatchHeader(&stats)

	for i, c := range candidates {
		if ctx.Err() != nil {
			r.Log.Warn("Interrupted, %d file(s) not processed", stats.Total-stats.Current)
			break
		}
		stats.Current = i + 1
		r.Log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(c.Path))

		res := r.process(ctx, c, resolver, &stats)
		if res.State == StateFailed {
			var se *StageError
			if errors.As(res.Err, &se) {
				r.Log.Error("%s failed: %s: %v", se.Stage, se.Path, se.Err)
			} else {
				r.Log.Error("%v", res.Err)
			}
			logEncodeStderr(r.Log, res.Err)
		}
		stats.record(res)
		fmt.Fprintln(r.Out)
	}

	r.logSummary(&stats)
	return stats
}

func (r *Runner) candidates() ([]Candidate, error) {
	files, err := Discover(r.Cfg.RootDir, func(path string, err error) {
		r.Log.Warn("Cannot read %s: %v", path, err)
	})
	if err != nil {
		return nil, err
	}
	r.Log.Debug(r.Cfg.Verbose, "Discovered %d files", len(files))
	return BuildCandidates(files, r.Classifier, r.Log, r.Cfg.Verbose), nil
}

// process moves one candidate through probe, decision, encode, verify and
// rename. It only returns with State Completed or Failed. Cancelling ctx
// never interrupts the external tools; Run checks it between files.
func (r *Runner) process(ctx context.Context, c Candidate, resolver *naming.CollisionResolver, stats *RunStats) Result {
	ctx = context.WithoutCancel(ctx)
	res := Result{Path: c.Path, State: StateDiscovered}
	fail := func(stage string, err error) Result {
		res.State = StateFailed
		res.Err = &StageError{Path: c.Path, Stage: stage, Err: err}
		return res
	}

	// --- Probe ---
	streams, err := r.Prober.Probe(ctx, c.Path)
	if err != nil {
		return fail(StageProbe, err)
	}
	res.State = StateProbed

	// --- Decide ---
	d, err := planner.Decide(streams)
	if err != nil {
		return fail(StageDecide, err)
	}
	res.Action = d.Action
	r.logStreams(d)

	if d.Action == planner.ActionSkip {
		r.Log.Info("Skip (%s)", d.Reason)
		stats.Skipped++
		res.State = StateCompleted
		res.Note = d.Reason
		return res
	}
	res.State = StateDecidedTranscode

	// --- Resolve output ---
	final := r.resolveOutput(ctx, c.Path, resolver)
	res.Output = final
	if final != c.Path {
		if _, err := os.Stat(final); err == nil {
			if r.Cfg.SkipExisting {
				r.Log.Warn("Skip (exists): %s", filepath.Base(final))
				stats.Skipped++
				res.State = StateCompleted
				res.Note = "output exists"
				return res
			}
			r.Log.Warn("Overwriting existing %s", filepath.Base(final))
		}
	}

	r.Log.Info("Transcoding (%s): %s", d.Reason, filepath.Base(c.Path))
	r.Log.Info("  -> %s", filepath.Base(final))

	// --- Dry-run ---
	if r.Cfg.DryRun {
		r.Log.Success("[DRY] Would transcode")
		stats.Transcoded++
		res.State = StateCompleted
		res.Note = "dry run"
		return res
	}

	var inSize int64
	if fi, err := os.Stat(c.Path); err == nil {
		inSize = fi.Size()
	}

	// --- Encode into a temp file next to the source ---
	tmp := naming.TempPath(filepath.Dir(c.Path), ffmpeg.Container, r.now())
	r.Log.Debug(r.Cfg.Verbose, "Temp output: %s", tmp)
	start := r.now()
	if err := r.Encoder.Encode(c.Path, tmp); err != nil {
		ffmpeg.Discard(tmp)
		return fail(StageEncode, err)
	}
	elapsed := r.now().Sub(start)

	// --- Verify ---
	if err := r.verify(ctx, tmp); err != nil {
		ffmpeg.Discard(tmp)
		return fail(StageVerify, err)
	}

	var outSize int64
	if fi, err := os.Stat(tmp); err == nil {
		outSize = fi.Size()
	}

	// --- Rename ---
	if err := os.Rename(tmp, final); err != nil {
		ffmpeg.Discard(tmp)
		return fail(StageRename, err)
	}

	if r.Cfg.ReplaceOriginal && final != c.Path {
		if err := os.Remove(c.Path); err != nil {
			r.Log.Warn("Could not remove original %s: %v", filepath.Base(c.Path), err)
		} else {
			r.Log.Debug(r.Cfg.Verbose, "Removed original %s", c.Path)
		}
	}

	stats.TotalInputBytes += inSize
	stats.TotalOutputBytes += outSize
	stats.Transcoded++

	r.Log.Success("Transcoded in %ds: %s", int(elapsed.Seconds()), display.FormatSizeChange(inSize, outSize))
	res.State = StateCompleted
	return res
}

// resolveOutput claims the output path for src. Another source already at
// the canonical name keeps its reservation, so src gets a qualified name,
// unless that file is HEVC: then it counts as an earlier output of src.
func (r *Runner) resolveOutput(ctx context.Context, src string, resolver *naming.CollisionResolver) string {
	canonical := naming.OutputPath(src, ffmpeg.Container)
	if canonical != src && resolver.Reserved(canonical) {
		if err := r.verify(ctx, canonical); err == nil {
			resolver.Release(canonical)
		} else {
			r.Log.Debug(r.Cfg.Verbose, "%s is another source, not an output", filepath.Base(canonical))
		}
	}
	return resolver.Resolve(src)
}

// verify re-probes a finished encode and checks its primary video codec.
func (r *Runner) verify(ctx context.Context, path string) error {
	streams, err := r.Prober.Probe(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	for _, s := range streams {
		if s.Role != probe.RoleVideo {
			continue
		}
		if !planner.IsTargetCodec(s.CodecName) {
			return fmt.Errorf("%w: video codec is %q", ErrVerifyFailed, s.CodecName)
		}
		return nil
	}
	return fmt.Errorf("%w: no video stream in output", ErrVerifyFailed)
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// --- Logging helpers ---

func (r *Runner) logBatchHeader(stats *RunStats) {
	r.Log.Info("Found %d video file(s) in %s", stats.Total, r.Cfg.RootDir)
	r.Log.Info("Target: %s (%s, CRF %s, preset %s), audio %s, %s container",
		planner.TargetCodec, ffmpeg.VideoEncoder, ffmpeg.CRF, ffmpeg.Preset,
		ffmpeg.AudioEncoder, ffmpeg.Container)
	if r.Cfg.DryRun {
		r.Log.Info("Dry run: decisions only, nothing is encoded")
	}
	if !r.Cfg.SkipExisting {
		r.Log.Info("Existing outputs will be overwritten")
	}
	if r.Cfg.ReplaceOriginal {
		r.Log.Info("Originals are removed after a verified transcode")
	}
	fmt.Fprintln(r.Out)
}

func (r *Runner) logStreams(d planner.Decision) {
	v := d.Video
	line := fmt.Sprintf("  Video: %s", codecOrUnknown(v.CodecName))
	if res := v.Resolution(); res != "" {
		line += " | " + res
	}
	r.Log.Info("%s", line)
	r.Log.Debug(r.Cfg.Verbose, "  Audio: %s", codecOrUnknown(d.Audio.CodecName))
}

func logEncodeStderr(log *logging.Logger, err error) {
	var ee *ffmpeg.EncodeError
	if !errors.As(err, &ee) {
		return
	}
	lines := ee.Tail(20)
	if len(lines) == 0 {
		return
	}
	log.Error("Last ffmpeg output:")
	for _, l := range lines {
		log.Error("  %s", l)
	}
}

func (r *Runner) logSummary(stats *RunStats) {
	log := r.Log
	log.Info("==============================")
	log.Info("Done: %d transcoded, %d skipped, %d failed", stats.Transcoded, stats.Skipped, stats.Failed)
	log.Info("  Total files processed: %d of %d", stats.Current, stats.Total)

	if r.Cfg.DryRun {
		log.Info("  Total space saved: n/a (dry run)")
	} else if stats.Transcoded > 0 {
		saved := stats.SpaceSaved()
		if saved >= 0 {
			log.Success("  Total space saved: %s (%s)",
				display.FormatBytes(saved),
				display.FormatSizeChange(stats.TotalInputBytes, stats.TotalOutputBytes))
		} else {
			log.Warn("  Total space saved: %s (overall output is larger)",
				display.FormatBytesWithSign(saved))
		}
	}

	for _, res := range stats.Results {
		if res.State == StateFailed {
			log.Error("  FAILED %v", res.Err)
		}
	}
}

func codecOrUnknown(codec string) string {
	if codec == "" {
		return "unknown"
	}
	return codec
}
