// file: internal/matcher/variations.go
// version: 1.0.0
// guid: 1f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6c

package matcher

import (
	"sort"
	"strings"
)

// Variation is one alternate (title, author) query form for weak matching.
type Variation struct {
	Title  string
	Author string
}

// Variations generates the fuzzy expansion set for a title/author pair:
// the original, author name forms (full, surname-only, "Surname, First",
// initialed), and the title with and without a subtitle. Deterministic for
// a given input and deduplicated case-insensitively; the original pair is
// always first, the rest sorted for stable output.
func Variations(title, author string) []Variation {
	titles := titleForms(title)
	authors := authorForms(author)

	seen := make(map[string]bool)
	var out []Variation
	add := func(v Variation) {
		key := strings.ToLower(v.Title + "|" + v.Author)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}

	add(Variation{Title: title, Author: author})
	var rest []Variation
	for _, t := range titles {
		for _, a := range authors {
			key := strings.ToLower(t + "|" + a)
			if !seen[key] {
				seen[key] = true
				rest = append(rest, Variation{Title: t, Author: a})
			}
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Title != rest[j].Title {
			return rest[i].Title < rest[j].Title
		}
		return rest[i].Author < rest[j].Author
	})
	return append(out, rest...)
}

// titleForms returns the title plus its subtitle-stripped form.
func titleForms(title string) []string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	forms := []string{title}
	if idx := strings.Index(title, ":"); idx > 0 {
		forms = append(forms, strings.TrimSpace(title[:idx]))
	}
	return forms
}

// authorForms returns name forms for an author:
//
//	"Brandon Sanderson" → full, "Sanderson", "Sanderson, Brandon", "B. Sanderson"
//	"Sanderson, Brandon" is first re-ordered to "Brandon Sanderson".
func authorForms(author string) []string {
	author = strings.TrimSpace(author)
	if author == "" {
		return []string{""}
	}

	// Re-order "Surname, First" input to natural order before expanding.
	if idx := strings.Index(author, ","); idx > 0 {
		surname := strings.TrimSpace(author[:idx])
		first := strings.TrimSpace(author[idx+1:])
		if first != "" {
			author = first + " " + surname
		}
	}

	forms := []string{author}
	words := strings.Fields(author)
	if len(words) < 2 {
		return forms
	}

	surname := words[len(words)-1]
	given := words[:len(words)-1]

	forms = append(forms, surname)
	forms = append(forms, surname+", "+strings.Join(given, " "))

	// Initialed given names: "B. Sanderson".
	initials := make([]string, 0, len(given))
	for _, g := range given {
		r := []rune(g)
		if len(r) == 0 {
			continue
		}
		initials = append(initials, string(r[0])+".")
	}
	if len(initials) > 0 {
		forms = append(forms, strings.Join(initials, " ")+" "+surname)
	}
	return forms
}
