// file: internal/localize/titles.go
// version: 1.0.0
// guid: d5e6f7a8-b9c0-4d1e-af2a-3b4c5d6e7f80

package localize

import (
	_ "embed"
	"log"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed titles.yaml
var titlesYAML []byte

type seriesEntry struct {
	Volumes []string            `yaml:"volumes"`
	Aliases map[string][]string `yaml:"aliases"`
}

type titleTable struct {
	// canonical title (lowercased) -> language -> localized titles
	Titles map[string]map[string][]string `yaml:"titles"`
	Series map[string]seriesEntry         `yaml:"series"`

	// derived indexes, built once at load
	canonicalByLocalized map[string]canonicalMatch // lowercased localized -> match
	canonicalCase        map[string]string         // lowercased -> original casing
	seriesByVolume       map[string]string         // lowercased volume title -> series name
}

type canonicalMatch struct {
	Canonical string
	Language  string
}

var (
	tableOnce sync.Once
	table     *titleTable
)

// loadTable parses the embedded table and builds the reverse indexes.
// The table is read-only after this point.
func loadTable() *titleTable {
	tableOnce.Do(func() {
		t := &titleTable{}
		if err := yaml.Unmarshal(titlesYAML, t); err != nil {
			// The table is compiled in; a parse failure is a build defect,
			// but lookups must still work with an empty table.
			log.Printf("Warning: embedded title table failed to parse: %v", err)
			t = &titleTable{}
		}
		t.canonicalByLocalized = make(map[string]canonicalMatch)
		t.canonicalCase = make(map[string]string)
		t.seriesByVolume = make(map[string]string)
		for canonical, byLang := range t.Titles {
			t.canonicalCase[strings.ToLower(canonical)] = canonical
			for lang, localized := range byLang {
				for _, lt := range localized {
					t.canonicalByLocalized[strings.ToLower(lt)] = canonicalMatch{
						Canonical: canonical,
						Language:  lang,
					}
				}
			}
		}
		for name, se := range t.Series {
			for _, vol := range se.Volumes {
				t.seriesByVolume[strings.ToLower(vol)] = name
			}
		}
		table = t
	})
	return table
}

// CanonicalTitle maps a localized title back to its canonical English form
// and reports the language the localized form belongs to.
func CanonicalTitle(localized string) (canonical, lang string, ok bool) {
	t := loadTable()
	m, found := t.canonicalByLocalized[strings.ToLower(strings.TrimSpace(localized))]
	if !found {
		return "", "", false
	}
	return m.Canonical, m.Language, true
}

// LocalizedTitles returns the known published translations of a canonical
// title in the given language.
func LocalizedTitles(canonical, lang string) []string {
	t := loadTable()
	key, ok := t.canonicalCase[strings.ToLower(strings.TrimSpace(canonical))]
	if !ok {
		return nil
	}
	return t.Titles[key][NormalizeLanguage(lang)]
}

// SeriesForTitle returns the series a canonical volume title belongs to.
func SeriesForTitle(title string) (string, bool) {
	t := loadTable()
	s, ok := t.seriesByVolume[strings.ToLower(strings.TrimSpace(title))]
	return s, ok
}

// SeriesAliases returns alternate names for a series in the given language,
// including the series name itself.
func SeriesAliases(series, lang string) []string {
	t := loadTable()
	out := []string{series}
	se, ok := t.Series[series]
	if !ok {
		return out
	}
	for _, a := range se.Aliases[NormalizeLanguage(lang)] {
		if !strings.EqualFold(a, series) {
			out = append(out, a)
		}
	}
	return out
}
