// Package progress prints liveness feedback while a long encode runs.
//
// A [Reporter] is started in its own goroutine right before the encode and
// handed a done channel. It redraws one status line per interval and exits
// as soon as the channel is closed, after printing a final line.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/backmassage/x265batch/internal/term"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\033[2K"

// Reporter draws elapsed time plus a cycling animation frame.
type Reporter struct {
	Out      io.Writer
	Label    string        // shown on every line, usually the file name
	Interval time.Duration // time between redraws
	Frames   []string      // animation, cycled
	TTY      bool          // redraw in place instead of one line per tick
	Now      func() time.Time
}

// Run blocks until done is closed. It never fails: write errors are
// dropped so a broken terminal cannot affect the encode.
func (r *Reporter) Run(done <-chan struct{}) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	interval := r.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	frames := r.Frames
	if len(frames) == 0 {
		frames = []string{""}
	}

	start := now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.draw(0, frames[0])
	for i := 1; ; i++ {
		select {
		case <-done:
			r.finish(elapsedSeconds(start, now()))
			return
		case <-ticker.C:
			r.draw(elapsedSeconds(start, now()), frames[i%len(frames)])
		}
	}
}

func (r *Reporter) draw(elapsed int, frame string) {
	line := fmt.Sprintf("%s %s %s", r.Label, term.Muted.Render(fmt.Sprintf("· %ds elapsed", elapsed)), term.Magenta.Render(frame))
	if r.TTY {
		r.write(clearLine + line)
		return
	}
	r.write(line + "\n")
}

func (r *Reporter) finish(elapsed int) {
	line := fmt.Sprintf("Done encoding %s, took %d seconds\n", r.Label, elapsed)
	if r.TTY {
		line = clearLine + line
	}
	r.write(line)
}

func (r *Reporter) write(s string) {
	if r.Out == nil {
		return
	}
	_, _ = io.WriteString(r.Out, s)
}

func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
