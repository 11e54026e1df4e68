package pipeline

import (
	"errors"
	"sort"

	"github.com/backmassage/x265batch/internal/logging"
	"github.com/backmassage/x265batch/internal/media"
	"github.com/backmassage/x265batch/internal/naming"
)

// Candidate is a discovered file whose guessed type is video.
type Candidate struct {
	Path string
	Hint string // MIME subtype, e.g. "x-matroska"
}

// BuildCandidates classifies files and returns the video ones sorted by
// path. The result is built once and only read afterwards. Leftover temp
// outputs from an interrupted run are never candidates.
func BuildCandidates(files []string, c *media.Classifier, log *logging.Logger, verbose bool) []Candidate {
	hints := make(map[string]string, len(files))
	for _, path := range files {
		if naming.IsTemp(path) {
			log.Debug(verbose, "Ignoring temp output: %s", path)
			continue
		}
		hint, ok, err := c.Classify(path)
		if err != nil {
			if errors.Is(err, media.ErrUnclassifiable) {
				log.Warn("Skip (unclassifiable): %v", err)
			} else {
				log.Warn("Skip (classify failed): %v", err)
			}
			continue
		}
		if !ok {
			log.Debug(verbose, "Not a video: %s", path)
			continue
		}
		hints[path] = hint
	}

	out := make([]Candidate, 0, len(hints))
	for path, hint := range hints {
		out = append(out, Candidate{Path: path, Hint: hint})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
