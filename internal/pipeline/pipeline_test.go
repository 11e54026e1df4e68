package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/x265batch/internal/config"
	"github.com/backmassage/x265batch/internal/ffmpeg"
	"github.com/backmassage/x265batch/internal/logging"
	"github.com/backmassage/x265batch/internal/media"
	"github.com/backmassage/x265batch/internal/naming"
	"github.com/backmassage/x265batch/internal/planner"
	"github.com/backmassage/x265batch/internal/probe"
)

// --- Discover tests ---

func TestDiscover_AllRegularFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "movie.mkv")
	touch(t, dir, "music.mp3")
	touch(t, dir, "readme.txt")
	touch(t, dir, "noext")

	files, err := Discover(dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"movie.mkv", "music.mp3", "noext", "readme.txt"}
	if got := basenames(files); !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_RecursiveAndSorted(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "Show", "Season 01"), 0o755)
	os.MkdirAll(filepath.Join(dir, "Show", "Season 02"), 0o755)
	os.MkdirAll(filepath.Join(dir, "empty"), 0o755)
	touch(t, filepath.Join(dir, "Show", "Season 02"), "ep01.mkv")
	touch(t, filepath.Join(dir, "Show", "Season 01"), "ep02.mkv")
	touch(t, filepath.Join(dir, "Show", "Season 01"), "ep01.mkv")
	touch(t, dir, "top.avi")

	files, err := Discover(dir, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("got %d files, want 4: %v", len(files), files)
	}
	for i := 1; i < len(files); i++ {
		if files[i] < files[i-1] {
			t.Errorf("not sorted: %q before %q", files[i-1], files[i])
		}
	}
}

func TestDiscover_EmptyDir(t *testing.T) {
	files, err := Discover(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %d files, want 0", len(files))
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestDiscover_UnreadableSubdirIsReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	os.MkdirAll(locked, 0o755)
	touch(t, locked, "hidden.mkv")
	touch(t, dir, "visible.mkv")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	var reported []string
	files, err := Discover(dir, func(path string, err error) {
		reported = append(reported, path)
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := basenames(files); !sliceEqual(got, []string{"visible.mkv"}) {
		t.Errorf("files = %v", got)
	}
	if len(reported) != 1 || reported[0] != locked {
		t.Errorf("reported = %v, want [%s]", reported, locked)
	}
}

// --- BuildCandidates tests ---

func TestBuildCandidates_VideoOnly(t *testing.T) {
	files := []string{
		"/m/z.mkv", "/m/a.avi", "/m/song.mp3", "/m/notes.txt",
		"/m/cover.jpg", "/m/noext", "/m/clip.MP4",
	}
	got := BuildCandidates(files, media.NewClassifier(), testLogger(t, nil), false)

	var paths []string
	for _, c := range got {
		paths = append(paths, c.Path)
	}
	want := []string{"/m/a.avi", "/m/clip.MP4", "/m/z.mkv"}
	if !sliceEqual(paths, want) {
		t.Errorf("candidates = %v, want %v", paths, want)
	}
	if got[0].Hint != "x-msvideo" {
		t.Errorf("hint = %q, want x-msvideo", got[0].Hint)
	}
}

func TestBuildCandidates_SkipsTempOutputs(t *testing.T) {
	files := []string{"/m/clip.avi", "/m/" + naming.TempPrefix + "20240101T000000-x.mkv"}
	got := BuildCandidates(files, media.NewClassifier(), testLogger(t, nil), false)
	if len(got) != 1 || got[0].Path != "/m/clip.avi" {
		t.Errorf("candidates = %+v", got)
	}
}

func TestBuildCandidates_UnclassifiableWarns(t *testing.T) {
	c := &media.Classifier{Guess: func(path string) string {
		if strings.HasSuffix(path, ".weird") {
			return "garbage"
		}
		return media.GuessType(path)
	}}
	var buf bytes.Buffer
	got := BuildCandidates([]string{"/m/a.weird", "/m/b.mkv"}, c, testLogger(t, &buf), false)

	if len(got) != 1 || got[0].Path != "/m/b.mkv" {
		t.Errorf("candidates = %+v", got)
	}
	if !strings.Contains(buf.String(), "[WARN]") || !strings.Contains(buf.String(), "a.weird") {
		t.Errorf("expected a warning naming a.weird, got:\n%s", buf.String())
	}
}

func TestBuildCandidates_DuplicatePathsCollapse(t *testing.T) {
	got := BuildCandidates([]string{"/m/a.mkv", "/m/a.mkv"}, media.NewClassifier(), testLogger(t, nil), false)
	if len(got) != 1 {
		t.Errorf("got %d candidates, want 1", len(got))
	}
}

// --- RunStats tests ---

func TestRunStats_SpaceSaved(t *testing.T) {
	s := RunStats{TotalInputBytes: 1000, TotalOutputBytes: 600}
	if got := s.SpaceSaved(); got != 400 {
		t.Errorf("SpaceSaved: got %d, want 400", got)
	}

	s2 := RunStats{TotalInputBytes: 100, TotalOutputBytes: 150}
	if got := s2.SpaceSaved(); got != -50 {
		t.Errorf("SpaceSaved (negative): got %d, want -50", got)
	}
}

func TestRunStats_Record(t *testing.T) {
	var s RunStats
	if s.Err() != nil {
		t.Error("empty stats should have no error")
	}
	s.record(Result{Path: "a", State: StateCompleted})
	s.record(Result{Path: "b", State: StateFailed, Err: &StageError{Path: "b", Stage: StageProbe, Err: probe.ErrProbeFailed}})
	if s.Failed != 1 || len(s.Results) != 2 {
		t.Errorf("Failed=%d Results=%d", s.Failed, len(s.Results))
	}
	if s.Err() == nil || !strings.Contains(s.Err().Error(), "probe: b") {
		t.Errorf("Err = %v", s.Err())
	}
}

// --- Run with fake tools ---

// Fake media files carry a keyword as their content; fakeProber reports
// streams based on it and fakeEncoder writes one into its output.
const (
	kindH264    = "h264"
	kindHEVC    = "hevc"
	kindOne     = "one-stream"
	kindCorrupt = "corrupt"
)

type fakeProber struct {
	probed []string
}

func (p *fakeProber) Probe(_ context.Context, path string) ([]probe.Stream, error) {
	p.probed = append(p.probed, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &probe.Error{Path: path, Kind: probe.ErrProbeFailed, Err: err}
	}
	switch content := string(data); {
	case content == kindH264:
		return twoStreams("h264"), nil
	case strings.HasPrefix(content, kindHEVC):
		return twoStreams("hevc"), nil
	case content == kindOne:
		return []probe.Stream{{Index: 0, CodecName: "h264", Role: probe.RoleVideo}}, nil
	default:
		return nil, &probe.Error{Path: path, Kind: probe.ErrProbeFailed, Err: errors.New("exit status 1")}
	}
}

type encodeCall struct{ src, dst string }

type fakeEncoder struct {
	calls  []encodeCall
	output string // written to dst; defaults to kindHEVC
	err    error  // returned after writing dst
}

func (e *fakeEncoder) Encode(src, dst string) error {
	e.calls = append(e.calls, encodeCall{src, dst})
	out := e.output
	if out == "" {
		out = kindHEVC
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return err
	}
	return e.err
}

func twoStreams(videoCodec string) []probe.Stream {
	return []probe.Stream{
		{Index: 0, CodecName: videoCodec, Role: probe.RoleVideo, Width: 1280, Height: 720},
		{Index: 1, CodecName: "aac", Role: probe.RoleAudio},
	}
}

func newTestRunner(t *testing.T, root string) (*Runner, *fakeProber, *fakeEncoder) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RootDir = root
	cfg.ColorMode = config.ColorNever
	p := &fakeProber{}
	e := &fakeEncoder{}
	r := &Runner{
		Cfg:        &cfg,
		Log:        testLogger(t, nil),
		Classifier: media.NewClassifier(),
		Prober:     p,
		Encoder:    e,
		Out:        io.Discard,
		Now:        func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	return r, p, e
}

func TestRun_TranscodesNonHEVC(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	r, _, enc := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if stats.Transcoded != 1 || stats.Failed != 0 {
		t.Fatalf("Transcoded=%d Failed=%d", stats.Transcoded, stats.Failed)
	}
	if len(enc.calls) != 1 || enc.calls[0].src != filepath.Join(dir, "clip.avi") {
		t.Fatalf("encode calls = %+v", enc.calls)
	}
	if filepath.Dir(enc.calls[0].dst) != dir || !naming.IsTemp(enc.calls[0].dst) {
		t.Errorf("encode dst = %q, want temp file beside source", enc.calls[0].dst)
	}
	if got := readFile(t, filepath.Join(dir, "clip.mkv")); got != kindHEVC {
		t.Errorf("clip.mkv content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.avi")); err != nil {
		t.Error("source must be kept without --replace")
	}
	assertNoTemp(t, dir)
	res := stats.Results[0]
	if res.State != StateCompleted || res.Action != planner.ActionTranscode || res.Output != filepath.Join(dir, "clip.mkv") {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_SkipsHEVC(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.mkv", kindHEVC)
	r, _, enc := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if len(enc.calls) != 0 {
		t.Errorf("HEVC source was encoded: %+v", enc.calls)
	}
	if stats.Skipped != 1 || stats.Transcoded != 0 {
		t.Errorf("Skipped=%d Transcoded=%d", stats.Skipped, stats.Transcoded)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Errorf("new files created: %d entries", len(entries))
	}
	if stats.Results[0].State != StateCompleted || stats.Results[0].Action != planner.ActionSkip {
		t.Errorf("result = %+v", stats.Results[0])
	}
}

func TestRun_InsufficientStreamsContinues(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "broken.mkv", kindOne)
	writeMedia(t, dir, "next.avi", kindH264)
	r, _, enc := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if stats.Failed != 1 || stats.Transcoded != 1 {
		t.Fatalf("Failed=%d Transcoded=%d", stats.Failed, stats.Transcoded)
	}
	broken := stats.Results[0]
	if broken.State != StateFailed || !errors.Is(broken.Err, planner.ErrInsufficientStreams) {
		t.Errorf("broken result = %+v", broken)
	}
	var se *StageError
	if !errors.As(broken.Err, &se) || se.Stage != StageDecide {
		t.Errorf("stage = %+v", se)
	}
	for _, c := range enc.calls {
		if strings.Contains(c.src, "broken") {
			t.Error("broken.mkv must not be encoded")
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "next.mkv")); err != nil {
		t.Errorf("batch did not continue: %v", err)
	}
}

func TestRun_ProbeFailureContinues(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "corrupt.mp4", kindCorrupt)
	writeMedia(t, dir, "ok.mkv", kindHEVC)
	r, _, enc := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if stats.Failed != 1 || stats.Skipped != 1 {
		t.Fatalf("Failed=%d Skipped=%d", stats.Failed, stats.Skipped)
	}
	if !errors.Is(stats.Results[0].Err, probe.ErrProbeFailed) {
		t.Errorf("err = %v, want ErrProbeFailed", stats.Results[0].Err)
	}
	if len(enc.calls) != 0 {
		t.Errorf("unexpected encodes: %+v", enc.calls)
	}
	if stats.Err() == nil {
		t.Error("aggregated error should be non-nil")
	}
}

func TestRun_EncodeFailureRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	r, _, enc := newTestRunner(t, dir)
	enc.err = &ffmpeg.EncodeError{Path: filepath.Join(dir, "clip.avi"), Stderr: "boom", Err: errors.New("exit status 1")}

	stats := r.Run(context.Background())

	if stats.Failed != 1 {
		t.Fatalf("Failed = %d", stats.Failed)
	}
	var ee *ffmpeg.EncodeError
	if !errors.As(stats.Results[0].Err, &ee) {
		t.Errorf("err = %v, want *EncodeError", stats.Results[0].Err)
	}
	assertNoTemp(t, dir)
	if _, err := os.Stat(filepath.Join(dir, "clip.mkv")); !os.IsNotExist(err) {
		t.Error("no final output expected after a failed encode")
	}
}

func TestRun_VerifyRejectsWrongCodec(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	r, _, enc := newTestRunner(t, dir)
	enc.output = kindH264

	stats := r.Run(context.Background())

	res := stats.Results[0]
	if res.State != StateFailed || !errors.Is(res.Err, ErrVerifyFailed) {
		t.Fatalf("result = %+v", res)
	}
	assertNoTemp(t, dir)
	if _, err := os.Stat(filepath.Join(dir, "clip.mkv")); !os.IsNotExist(err) {
		t.Error("unverified output must not be renamed into place")
	}
}

func TestRun_SkipExistingOutput(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	writeMedia(t, dir, "clip.mkv", kindHEVC)
	r, _, enc := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if len(enc.calls) != 0 {
		t.Errorf("existing output should be kept: %+v", enc.calls)
	}
	if stats.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", stats.Skipped)
	}
}

func TestRun_ForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	os.WriteFile(filepath.Join(dir, "clip.mkv"), []byte(kindHEVC+"-old"), 0o644)
	r, _, enc := newTestRunner(t, dir)
	r.Cfg.SkipExisting = false

	stats := r.Run(context.Background())

	// clip.mkv is HEVC, so it counts as an earlier output of clip.avi.
	if len(enc.calls) != 1 || stats.Transcoded != 1 {
		t.Fatalf("calls=%+v Transcoded=%d", enc.calls, stats.Transcoded)
	}
	if got := readFile(t, filepath.Join(dir, "clip.mkv")); got != kindHEVC {
		t.Errorf("clip.mkv = %q, want overwritten", got)
	}
}

func TestRun_SiblingMatroskaSource(t *testing.T) {
	dir := t.TempDir()
	avi := writeMedia(t, dir, "clip.avi", kindH264)
	mkv := writeMedia(t, dir, "clip.mkv", kindH264)
	r, _, enc := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if len(enc.calls) != 2 || stats.Transcoded != 2 || stats.Skipped != 0 {
		t.Fatalf("calls=%+v Transcoded=%d Skipped=%d", enc.calls, stats.Transcoded, stats.Skipped)
	}
	if got, want := stats.Results[0].Output, naming.QualifiedPath(avi, ffmpeg.Container); got != want {
		t.Errorf("clip.avi output = %q, want %q", got, want)
	}
	if got, want := stats.Results[1].Output, naming.QualifiedPath(mkv, ffmpeg.Container); got != want {
		t.Errorf("clip.mkv output = %q, want %q", got, want)
	}
	if readFile(t, mkv) != kindH264 {
		t.Error("clip.mkv source was overwritten")
	}

	r2, _, enc2 := newTestRunner(t, dir)
	if second := r2.Run(context.Background()); len(enc2.calls) != 0 || second.Failed != 0 {
		t.Errorf("second run: calls=%+v Failed=%d", enc2.calls, second.Failed)
	}
}

func TestRun_ForceNeverOverwritesSiblingSource(t *testing.T) {
	dir := t.TempDir()
	avi := writeMedia(t, dir, "clip.avi", kindH264)
	mkv := writeMedia(t, dir, "clip.mkv", kindH264)
	r, _, enc := newTestRunner(t, dir)
	r.Cfg.SkipExisting = false

	stats := r.Run(context.Background())

	if len(enc.calls) != 2 || stats.Transcoded != 2 {
		t.Fatalf("calls=%+v Transcoded=%d", enc.calls, stats.Transcoded)
	}
	if readFile(t, mkv) != kindH264 {
		t.Error("--force overwrote the clip.mkv source")
	}
	if readFile(t, naming.QualifiedPath(avi, ffmpeg.Container)) != kindHEVC {
		t.Error("clip.avi output missing")
	}
	if stats.Results[1].Action != planner.ActionTranscode {
		t.Errorf("clip.mkv result = %+v", stats.Results[1])
	}
}

func TestRun_ReplaceRemovesOriginal(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	writeMedia(t, dir, "old.mkv", kindH264)
	r, _, _ := newTestRunner(t, dir)
	r.Cfg.ReplaceOriginal = true

	stats := r.Run(context.Background())

	if stats.Transcoded != 2 {
		t.Fatalf("Transcoded = %d", stats.Transcoded)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.avi")); !os.IsNotExist(err) {
		t.Error("clip.avi should be removed")
	}
	if got := readFile(t, filepath.Join(dir, "old.mkv")); got != kindHEVC {
		t.Errorf("old.mkv should be replaced in place, got %q", got)
	}
	assertNoTemp(t, dir)
}

func TestRun_NonHEVCMatroskaKeptWithoutReplace(t *testing.T) {
	dir := t.TempDir()
	src := writeMedia(t, dir, "old.mkv", kindH264)
	r, _, _ := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	want := naming.QualifiedPath(src, ffmpeg.Container)
	if stats.Results[0].Output != want {
		t.Errorf("output = %q, want %q", stats.Results[0].Output, want)
	}
	if readFile(t, src) != kindH264 {
		t.Error("source must be untouched")
	}
	if readFile(t, want) != kindHEVC {
		t.Error("qualified output missing")
	}
}

func TestRun_CollidingSourcesGetDistinctOutputs(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	mp4 := writeMedia(t, dir, "clip.mp4", kindH264)
	r, _, _ := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if stats.Transcoded != 2 {
		t.Fatalf("Transcoded = %d", stats.Transcoded)
	}
	if stats.Results[0].Output != filepath.Join(dir, "clip.mkv") {
		t.Errorf("first output = %q", stats.Results[0].Output)
	}
	if stats.Results[1].Output != naming.QualifiedPath(mp4, ffmpeg.Container) {
		t.Errorf("second output = %q", stats.Results[1].Output)
	}
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.avi", kindH264)
	writeMedia(t, dir, "b.mp4", kindH264)
	os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	writeMedia(t, filepath.Join(dir, "sub"), "c.mkv", kindHEVC)

	r, _, _ := newTestRunner(t, dir)
	first := r.Run(context.Background())
	if first.Transcoded != 2 || first.Skipped != 1 {
		t.Fatalf("first run: Transcoded=%d Skipped=%d", first.Transcoded, first.Skipped)
	}

	r2, _, enc2 := newTestRunner(t, dir)
	second := r2.Run(context.Background())
	if len(enc2.calls) != 0 {
		t.Errorf("second run encoded again: %+v", enc2.calls)
	}
	if second.Failed != 0 || second.Transcoded != 0 {
		t.Errorf("second run: Transcoded=%d Failed=%d", second.Transcoded, second.Failed)
	}
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "clip.avi", kindH264)
	r, _, enc := newTestRunner(t, dir)
	r.Cfg.DryRun = true

	stats := r.Run(context.Background())

	if len(enc.calls) != 0 {
		t.Errorf("dry run encoded: %+v", enc.calls)
	}
	if stats.Transcoded != 1 || stats.Results[0].Note != "dry run" {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.mkv")); !os.IsNotExist(err) {
		t.Error("dry run must not create output")
	}
}

func TestRun_IgnoresNonVideoAndTemp(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "notes.txt", kindCorrupt)
	writeMedia(t, dir, naming.TempPrefix+"20240101T000000-x.mkv", kindCorrupt)
	writeMedia(t, dir, "clip.mkv", kindHEVC)
	r, p, _ := newTestRunner(t, dir)

	stats := r.Run(context.Background())

	if stats.Total != 1 || stats.Failed != 0 {
		t.Errorf("Total=%d Failed=%d", stats.Total, stats.Failed)
	}
	if len(p.probed) != 1 || filepath.Base(p.probed[0]) != "clip.mkv" {
		t.Errorf("probed = %v", p.probed)
	}
}

func TestRun_CancelledStopsBeforeNextFile(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.avi", kindH264)
	writeMedia(t, dir, "b.avi", kindH264)
	r, p, _ := newTestRunner(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := r.Run(ctx)

	if stats.Total != 2 || stats.Current != 0 || len(p.probed) != 0 {
		t.Errorf("Total=%d Current=%d probed=%v", stats.Total, stats.Current, p.probed)
	}
}

// cancelOnProbe cancels the run from inside the first probe and fails any
// probe whose context is already done, the way a killed ffprobe would.
type cancelOnProbe struct {
	StreamProber
	cancel context.CancelFunc
}

func (p *cancelOnProbe) Probe(ctx context.Context, path string) ([]probe.Stream, error) {
	p.cancel()
	if err := ctx.Err(); err != nil {
		return nil, &probe.Error{Path: path, Kind: probe.ErrProbeFailed, Err: err}
	}
	return p.StreamProber.Probe(ctx, path)
}

func TestRun_InterruptDuringProbeFinishesFile(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.avi", kindH264)
	writeMedia(t, dir, "b.avi", kindH264)
	r, p, enc := newTestRunner(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Prober = &cancelOnProbe{StreamProber: p, cancel: cancel}

	stats := r.Run(ctx)

	if stats.Failed != 0 || stats.Err() != nil {
		t.Fatalf("Failed=%d err=%v", stats.Failed, stats.Err())
	}
	if stats.Current != 1 || stats.Transcoded != 1 || len(enc.calls) != 1 {
		t.Errorf("Current=%d Transcoded=%d calls=%+v", stats.Current, stats.Transcoded, enc.calls)
	}
}

func TestRun_MissingRoot(t *testing.T) {
	r, _, _ := newTestRunner(t, filepath.Join(t.TempDir(), "missing"))
	stats := r.Run(context.Background())
	if stats.Err() == nil || stats.Total != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

// --- Analyze ---

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	writeMedia(t, dir, "a.avi", kindH264)
	writeMedia(t, dir, "b.mkv", kindHEVC)
	writeMedia(t, dir, "c.mp4", kindCorrupt)
	r, _, enc := newTestRunner(t, dir)
	var out bytes.Buffer
	r.Out = &out

	a := r.Analyze(context.Background())

	if len(a.Rows) != 3 || a.Failed() != 1 {
		t.Fatalf("rows=%d failed=%d", len(a.Rows), a.Failed())
	}
	if a.Rows[0].Action != planner.ActionTranscode || a.Rows[1].Action != planner.ActionSkip {
		t.Errorf("rows = %+v", a.Rows)
	}
	if len(enc.calls) != 0 {
		t.Error("analyze must not encode")
	}
	table := out.String()
	for _, want := range []string{"Decision", "a.avi", "transcode", "skip", "error (probe failed)", "1280x720"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
}

func TestAnalyze_MissingRoot(t *testing.T) {
	r, _, _ := newTestRunner(t, filepath.Join(t.TempDir(), "missing"))
	a := r.Analyze(context.Background())
	if a.Err == nil || len(a.Rows) != 0 {
		t.Errorf("analysis = %+v", a)
	}
}

// --- Real tools ---

func TestRunWithRealTools(t *testing.T) {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}
	if out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output(); err != nil || !strings.Contains(string(out), "libx265") {
		t.Skip("ffmpeg built without libx265")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	gen := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=24",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=1:sample_rate=48000",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-ac", "2",
		"-y", src,
	)
	gen.Stderr = os.Stderr
	if err := gen.Run(); err != nil {
		t.Fatalf("generate %s: %v", src, err)
	}

	cfg := config.DefaultConfig()
	cfg.RootDir = dir
	cfg.ColorMode = config.ColorNever
	cfg.ProgressInterval = time.Second
	log := testLogger(t, nil)

	r := NewRunner(&cfg, log)
	r.Out = io.Discard
	stats := r.Run(context.Background())
	if stats.Transcoded != 1 || stats.Failed != 0 {
		t.Fatalf("Transcoded=%d Failed=%d err=%v", stats.Transcoded, stats.Failed, stats.Err())
	}

	streams, err := probe.NewProber("ffprobe").Probe(context.Background(), filepath.Join(dir, "clip.mkv"))
	if err != nil {
		t.Fatalf("re-probe: %v", err)
	}
	d, err := planner.Decide(streams)
	if err != nil || d.Action != planner.ActionSkip {
		t.Errorf("output should decide skip: %+v %v", d, err)
	}
}

// --- Helpers ---

func testLogger(t *testing.T, w io.Writer) *logging.Logger {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if w == nil {
		w = io.Discard
	}
	log.SetOutput(w)
	return log
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	writeMedia(t, dir, name, "")
}

func writeMedia(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func assertNoTemp(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if naming.IsTemp(e.Name()) {
			t.Errorf("temp output left behind: %s", e.Name())
		}
	}
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
