// file: internal/localize/variants.go
// version: 1.0.0
// guid: 08b9c0d1-e2f3-4a4b-8c5d-6e7f8091a2b3

package localize

import "strings"

// Variants expands a BookQuery into the ordered, finite sequence of search
// forms the orchestrator will try. Priority order:
//
//  1. primary localized title + author on the native-language storefront
//  2. canonical English title on the .com storefront (when a mapping exists)
//  3. series-level titles and aliases
//  4. author-only
//  5. noise-stripped title
//  6. the primary title retried on other storefronts
//
// The sequence is deduplicated; consumers stop at the first accepted hit.
func Variants(q BookQuery) []SearchVariant {
	native := MarketplaceDomain(q.Language)
	var out []SearchVariant
	seen := make(map[string]bool)

	add := func(v SearchVariant) {
		if v.Title == "" && v.Author == "" && v.ISBN == "" {
			return
		}
		key := strings.ToLower(v.Title + "|" + v.Author + "|" + v.Domain)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}

	// Work out the localized/canonical pair. The input title may be either
	// form; the table maps both directions.
	primary := strings.TrimSpace(q.Title)
	canonical := ""
	if c, _, ok := CanonicalTitle(primary); ok {
		canonical = c
	} else if lts := LocalizedTitles(primary, q.Language); len(lts) > 0 {
		// Input title is canonical; the published translation is the better
		// first query on the native storefront.
		canonical = primary
		primary = lts[0]
	}

	// (1) primary localized form.
	add(SearchVariant{Title: primary, Author: q.Author, Domain: native, Kind: KindLocalized, ISBN: q.ISBN})

	// (2) canonical/English equivalent.
	if canonical != "" && !strings.EqualFold(canonical, primary) {
		add(SearchVariant{Title: canonical, Author: q.Author, Domain: "amazon.com", Kind: KindCanonical})
	}

	// (3) series-level fallback.
	series := q.Series
	if series == "" && canonical != "" {
		if s, ok := SeriesForTitle(canonical); ok {
			series = s
		}
	}
	if series != "" {
		for _, alias := range SeriesAliases(series, q.Language) {
			add(SearchVariant{Title: alias, Author: q.Author, Domain: native, Kind: KindSeries})
		}
	}

	// (4) author-only.
	if q.Author != "" {
		add(SearchVariant{Author: q.Author, Domain: native, Kind: KindAuthorOnly})
	}

	// (5) noise-stripped title.
	if stripped := StripNoise(primary); stripped != "" && !strings.EqualFold(stripped, primary) {
		add(SearchVariant{Title: stripped, Author: q.Author, Domain: native, Kind: KindStripped})
	}

	// (6) cross-marketplace retries of the primary form.
	for _, d := range AlternateMarketplaces(q.Language) {
		add(SearchVariant{Title: primary, Author: q.Author, Domain: d, Kind: KindCrossMarket})
	}

	return out
}
