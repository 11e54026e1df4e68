// Package display holds presentation helpers: the startup banner and
// human-readable byte sizes.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/x265batch/internal/term"
)

const banner = `      ___  __  ___  _           _       _
__  _|_  )/ / | __|| |__  __ _ | |_  __| |_
\ \ // / / _ \|__ \| '_ \/ _` + "`" + ` ||  _|/ _| ' \
/_\_\/___|\___/|___/|_.__/\__,_| \__|\__|_||_|`

// PrintBanner writes the ASCII art banner and version line to w.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprintln(w, term.Magenta.Render(banner))
	fmt.Fprintln(w, term.Muted.Render("  batch HEVC transcoder v"+version))
	fmt.Fprintln(w)
}
