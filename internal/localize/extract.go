// file: internal/localize/extract.go
// version: 1.1.0
// guid: f7a8b9c0-d1e2-4f3a-9b4c-5d6e7f8091a2

package localize

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// Precompiled patterns — package-level to avoid per-call recompilation.
var (
	// "(Series Name NN)" prefix on a title or directory segment.
	reSeriesPrefix = regexp.MustCompile(`(?i)^\(([^)]+?)\s+(\d+(?:\.\d+)?)\)\s*`)

	// Trailing narrator credit: "- read by X", "narrated by X", "narrator: X".
	reNarratorSuffix = regexp.MustCompile(`(?i)(?:[-–,]\s*)?(?:read\s+by|narrated\s+by|narrator[:\s]+)\s*.+$`)

	// Leading track numbers: "01 ", "001 - ", "02. ".
	reLeadingTrackNum = regexp.MustCompile(`^\d{1,3}(?:\.|-)?\s+`)

	// Edition/subtitle noise stripped for weak matching.
	reParenNoise = regexp.MustCompile(`(?i)\s*[\(\[][^\)\]]*(?:unabridged|abridged|edition|ungekürzt|gekürzt|audiobook|hörbuch|mp3|audio)[^\)\]]*[\)\]]`)
)

// Extract derives the best available BookQuery for a file. It tries, in
// order: embedded audio tags, filename and directory naming conventions,
// and finally the bare filename as a title token. Malformed input never
// raises; the result degrades instead.
func Extract(path string) BookQuery {
	q := BookQuery{SourcePath: path}

	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			q.Title = strings.TrimSpace(m.Title())
			q.Author = strings.TrimSpace(m.Artist())
			if q.Author == "" {
				q.Author = strings.TrimSpace(m.AlbumArtist())
			}
			if q.Title == "" {
				q.Title = strings.TrimSpace(m.Album())
			}
			q.Language = rawLanguage(m)
		} else {
			log.Printf("[DEBUG] localize: no readable tags in %s: %v", path, err)
		}
		f.Close()
	}

	if q.Title == "" || q.Author == "" {
		fillFromPath(path, &q)
	}

	if q.Title == "" {
		// Last resort: the cleaned base filename is the only title signal.
		q.Title = cleanSegment(baseName(path))
	}

	// The title table is a language signal of its own: a known translated
	// title pins both the language and the series.
	if canonical, lang, ok := CanonicalTitle(q.Title); ok {
		if q.Language == "" {
			q.Language = lang
		}
		if q.Series == "" {
			if s, found := SeriesForTitle(canonical); found {
				q.Series = s
			}
		}
	} else if q.Series == "" {
		if s, found := SeriesForTitle(q.Title); found {
			q.Series = s
		}
	}

	q.Language = NormalizeLanguage(q.Language)
	return q
}

// rawLanguage digs a language hint out of the raw tag map. Most audio
// containers have no dedicated language frame, so this is best-effort.
func rawLanguage(m tag.Metadata) string {
	for _, key := range []string{"language", "LANGUAGE", "lang", "TLAN"} {
		if v, ok := m.Raw()[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// fillFromPath parses filename and directory conventions to fill missing
// query fields. Conventions handled, innermost first:
//
//	"Author - Title.m4b"
//	"(Series 05) Title - Author - read by Narrator/"
//	"Author Name/Title/" directory layout
func fillFromPath(path string, q *BookQuery) {
	segments := pathSegments(path)
	if len(segments) == 0 {
		return
	}

	// Innermost segment: filename without extension. A generic filename
	// ("book.m4b", "01.mp3") carries no signal, so the book directory
	// takes its place.
	innerIdx := len(segments) - 1
	inner := cleanSegment(segments[innerIdx])
	if genericSegment(inner) && innerIdx > 0 {
		innerIdx--
		inner = cleanSegment(segments[innerIdx])
	}

	if m := reSeriesPrefix.FindStringSubmatch(inner); m != nil {
		if q.Series == "" {
			q.Series = strings.TrimSpace(m[1])
			q.SeriesPosition, _ = strconv.Atoi(strings.Split(m[2], ".")[0])
		}
		inner = strings.TrimSpace(reSeriesPrefix.ReplaceAllString(inner, ""))
	}

	if parts := strings.SplitN(inner, " - ", 2); len(parts) == 2 {
		// "Author - Title" when the first chunk looks like a person name,
		// otherwise "Title - Author".
		a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if looksLikeAuthor(a) && !looksLikeAuthor(b) {
			if q.Author == "" {
				q.Author = a
			}
			if q.Title == "" {
				q.Title = b
			}
		} else {
			if q.Title == "" {
				q.Title = a
			}
			if q.Author == "" && looksLikeAuthor(b) {
				q.Author = b
			}
		}
	} else if q.Title == "" {
		q.Title = inner
	}

	// Walk outward for an author directory when still missing.
	if q.Author == "" {
		for i := innerIdx - 1; i >= 0 && i >= innerIdx-3; i-- {
			seg := strings.TrimSpace(segments[i])
			if looksLikeAuthor(seg) {
				q.Author = seg
				break
			}
		}
	}
}

// pathSegments splits a path into components, dropping library-root noise.
func pathSegments(path string) []string {
	skip := map[string]bool{
		"": true, ".": true, "audiobooks": true, "audiobook": true,
		"books": true, "library": true, "media": true, "audio": true,
		"downloads": true, "import": true, "imports": true, "mnt": true,
	}
	var segs []string
	for _, p := range strings.Split(filepath.ToSlash(path), "/") {
		if !skip[strings.ToLower(strings.TrimSpace(p))] {
			segs = append(segs, p)
		}
	}
	return segs
}

// genericSegment reports whether a cleaned segment is a filler name that
// cannot identify a book on its own.
func genericSegment(seg string) bool {
	s := strings.ToLower(strings.TrimSpace(seg))
	if s == "" {
		return true
	}
	switch s {
	case "book", "audiobook", "track", "part", "disc", "cd", "untitled":
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true // all digits
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// cleanSegment strips extension, track numbers, and narrator credits from a
// path segment.
func cleanSegment(seg string) string {
	seg = strings.TrimSuffix(seg, filepath.Ext(seg))
	seg = reLeadingTrackNum.ReplaceAllString(seg, "")
	seg = reNarratorSuffix.ReplaceAllString(seg, "")
	seg = strings.TrimSuffix(strings.TrimSpace(seg), "-")
	return strings.TrimSpace(seg)
}

// looksLikeAuthor reports whether s resembles a person name: two to five
// capitalized words, or an initialed / last-name-first form.
func looksLikeAuthor(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return false
	}
	if strings.Contains(s, " & ") || strings.Contains(s, ",") {
		return true
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 5 {
		return false
	}
	for _, w := range words {
		r := rune(w[0])
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// StripNoise removes subtitle and edition tokens from a title for the
// weak-match variant: "(Unabridged)" chunks, bracketed noise, and anything
// after a subtitle colon.
func StripNoise(title string) string {
	t := reParenNoise.ReplaceAllString(title, "")
	if idx := strings.Index(t, ":"); idx > 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}
