// Package media decides whether a path is a video by guessing its MIME type
// from the file extension.
package media

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnclassifiable is returned when a guessed type has no "/" separator.
var ErrUnclassifiable = errors.New("unclassifiable media type")

// videoTypes covers the container extensions we expect to meet. It is
// consulted before the platform registry so results do not depend on the
// host's mime.types (which maps ".ts" to Qt translations on many systems).
var videoTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".ts":   "video/mp2t",
	".m2ts": "video/mp2t",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".vob":  "video/dvd",
	".ogv":  "video/ogg",
	".3gp":  "video/3gpp",
}

// GuessType returns the MIME type for path based on its extension, or ""
// when nothing is known about it.
func GuessType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// Classifier turns paths into codec hints. Guess defaults to [GuessType].
type Classifier struct {
	Guess func(path string) string
}

// NewClassifier returns a Classifier backed by [GuessType].
func NewClassifier() *Classifier {
	return &Classifier{Guess: GuessType}
}

// Classify reports whether path is a video and, if so, the subtype of its
// guessed type ("video/x-matroska" gives "x-matroska"). A guessed type with
// no "/" yields ErrUnclassifiable; callers log and skip such files.
func (c *Classifier) Classify(path string) (hint string, ok bool, err error) {
	guess := c.Guess
	if guess == nil {
		guess = GuessType
	}
	typ := guess(path)
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return "", false, nil
	}

	major, sub, found := strings.Cut(typ, "/")
	if !found {
		return "", false, fmt.Errorf("%s: type %q: %w", path, typ, ErrUnclassifiable)
	}
	if !strings.EqualFold(major, "video") {
		return "", false, nil
	}
	return sub, true, nil
}
