// file: internal/localize/language.go
// version: 1.0.0
// guid: c4d5e6f7-a8b9-4c0d-9e1f-2a3b4c5d6e7f

package localize

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is assumed when no language signal can be found.
const DefaultLanguage = "en"

// ISO 639-2 bibliographic codes that golang.org/x/text does not parse.
// The terminology codes ("deu", "fra", ...) parse fine; these legacy
// B-codes still show up in ebook metadata and library exports.
var bibliographicCodes = map[string]string{
	"ger": "de",
	"fre": "fr",
	"dut": "nl",
	"gre": "el",
	"cze": "cs",
	"chi": "zh",
	"ice": "is",
	"rum": "ro",
	"slo": "sk",
	"alb": "sq",
	"arm": "hy",
	"baq": "eu",
	"bur": "my",
	"geo": "ka",
	"mac": "mk",
	"may": "ms",
	"per": "fa",
	"tib": "bo",
	"wel": "cy",
}

// NormalizeLanguage collapses any 2-letter, 3-letter, or region-qualified
// language code to its 2-letter base ("deu", "ger", "de", "de-DE" → "de").
// Unrecognized input yields DefaultLanguage; it never fails.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage
	}
	if base, ok := bibliographicCodes[strings.ToLower(code)]; ok {
		return base
	}
	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return DefaultLanguage
	}
	return base.String()
}

// marketplaceDomains maps a base language code to the regional storefront
// most likely to list that language's editions.
var marketplaceDomains = map[string]string{
	"en": "amazon.com",
	"de": "amazon.de",
	"fr": "amazon.fr",
	"es": "amazon.es",
	"it": "amazon.it",
	"nl": "amazon.nl",
	"ja": "amazon.co.jp",
	"pt": "amazon.com.br",
	"pl": "amazon.pl",
	"sv": "amazon.se",
}

// MarketplaceDomain returns the storefront domain for a base language code,
// falling back to the .com storefront.
func MarketplaceDomain(lang string) string {
	if d, ok := marketplaceDomains[NormalizeLanguage(lang)]; ok {
		return d
	}
	return "amazon.com"
}

// AlternateMarketplaces returns the storefronts to retry after the native
// one, the .com storefront first. The native domain is excluded.
func AlternateMarketplaces(lang string) []string {
	native := MarketplaceDomain(lang)
	out := make([]string, 0, 3)
	for _, d := range []string{"amazon.com", "amazon.de", "amazon.co.uk"} {
		if d != native {
			out = append(out, d)
		}
	}
	return out
}
