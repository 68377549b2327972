// file: internal/resolver/resolver.go
// version: 1.0.0
// guid: f7a8b9c0-d1e2-f3a4-b5c6-d7e8f9a0b1c2

package resolver

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jdfalk/audiobook-asin/internal/asin"
	"github.com/jdfalk/audiobook-asin/internal/cache"
	"github.com/jdfalk/audiobook-asin/internal/localize"
	"github.com/jdfalk/audiobook-asin/internal/matcher"
	"github.com/jdfalk/audiobook-asin/internal/metrics"
	"github.com/jdfalk/audiobook-asin/internal/ratelimit"
	"github.com/jdfalk/audiobook-asin/internal/sources"
)

// DefaultThreshold is the acceptance confidence below which a candidate is
// discarded even when structurally valid.
const DefaultThreshold = 0.8

// Options control one lookup.
type Options struct {
	Fuzzy     bool    // expand variants with fuzzy title/author forms
	Threshold float64 // acceptance confidence; 0 means DefaultThreshold
	Refresh   bool    // bypass cached entries, including negatives
	Verbose   bool
}

func (o Options) threshold() float64 {
	if o.Threshold <= 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// Resolver drives a lookup through variant generation, the source priority
// chain, candidate validation, and the cache. The source order is fixed at
// construction: storefront search first, then the catalog API, then the
// bibliographic API.
type Resolver struct {
	sources []sources.Source
	cache   *cache.Store
	ctl     *ratelimit.Controller
}

// New assembles a resolver. srcs must be given in priority order.
func New(store *cache.Store, ctl *ratelimit.Controller, srcs ...sources.Source) *Resolver {
	return &Resolver{sources: srcs, cache: store, ctl: ctl}
}

// Resolve runs the lookup state machine for one book. It returns an error
// only for invalid input; "no identifier found" is a normal result whose
// attempt log explains, per source and variant, what happened.
func (r *Resolver) Resolve(ctx context.Context, q localize.BookQuery, opts Options) (*LookupResult, error) {
	start := time.Now()
	if !q.Resolvable() {
		return nil, &ValidationError{Reason: "need at least a title or an ISBN"}
	}
	metrics.IncLookupStarted()

	result := &LookupResult{
		ID:    ulid.Make().String(),
		Query: q,
	}

	key := cache.Key(q.Title, q.Author, q.ISBN)
	if opts.Refresh {
		if err := r.cache.Invalidate(key); err != nil {
			log.Printf("Warning: cache invalidate failed: %v", err)
		}
	} else if e, ok := r.cache.Get(key); ok {
		metrics.IncCacheHit()
		result.ASIN = e.ASIN
		result.Source = sources.Kind(e.Source)
		result.FromCache = true
		result.Elapsed = time.Since(start)
		if result.Found() {
			result.Confidence = 1.0
		}
		return result, nil
	}
	if !opts.Refresh {
		metrics.IncCacheMiss()
	}

	variants := localize.Variants(q)
	if opts.Fuzzy {
		variants = expandFuzzy(variants, q)
	}
	threshold := opts.threshold()

	for _, v := range variants {
		for _, src := range r.sources {
			cands, err := r.search(ctx, src, v)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				metrics.IncSourceAttempt(string(src.Kind()), "error")
				result.Attempts = append(result.Attempts, Attempt{
					Source: src.Kind(), Variant: v.String(), Outcome: failureReason(err),
				})
				continue
			}
			if len(cands) == 0 {
				metrics.IncSourceAttempt(string(src.Kind()), "miss")
				result.Attempts = append(result.Attempts, Attempt{
					Source: src.Kind(), Variant: v.String(), Outcome: "no results",
				})
				continue
			}

			if c, conf, ok := r.accept(q, cands, threshold); ok {
				metrics.IncSourceAttempt(string(src.Kind()), "hit")
				result.Attempts = append(result.Attempts, Attempt{
					Source: src.Kind(), Variant: v.String(), Outcome: "hit",
				})
				result.ASIN = c.ASIN
				result.Source = c.Source
				result.Confidence = conf
				result.Elapsed = time.Since(start)
				r.persist(key, result)
				metrics.IncLookupResolved(string(c.Source))
				metrics.ObserveLookupDuration(result.Elapsed)
				if opts.Verbose {
					log.Printf("[DEBUG] resolver: %s accepted %s from %s (confidence %.2f)",
						result.ID, c.ASIN, src.Name(), conf)
				}
				return result, nil
			}

			metrics.IncSourceAttempt(string(src.Kind()), "miss")
			result.Attempts = append(result.Attempts, Attempt{
				Source: src.Kind(), Variant: v.String(),
				Outcome: "no candidate met confidence threshold",
			})
		}
	}

	// Exhausted: a normal terminal outcome carrying the full trail.
	result.Elapsed = time.Since(start)
	r.persist(key, result)
	metrics.IncLookupExhausted()
	metrics.ObserveLookupDuration(result.Elapsed)
	return result, nil
}

// search runs one adapter call through the rate/retry controller.
func (r *Resolver) search(ctx context.Context, src sources.Source, v localize.SearchVariant) ([]sources.Candidate, error) {
	var cands []sources.Candidate
	err := r.ctl.Do(ctx, string(src.Kind()), func(ctx context.Context) error {
		cs, err := src.Search(ctx, v)
		cands = cs
		return err
	})
	return cands, err
}

// accept returns the first candidate that is structurally valid and meets
// the confidence threshold. Greedy: later, higher-confidence candidates in
// the same batch do not displace an earlier acceptable one.
func (r *Resolver) accept(q localize.BookQuery, cands []sources.Candidate, threshold float64) (sources.Candidate, float64, bool) {
	for _, c := range cands {
		if !asin.Valid(c.ASIN) {
			continue
		}
		conf := c.Confidence
		// A listing may match the original query title better than the
		// variant that found it (series and author-only variants).
		if alt := matcher.Confidence(q.Title, c.RawTitle); alt > conf {
			conf = alt
		}
		if conf >= threshold {
			return c, conf, true
		}
	}
	return sources.Candidate{}, 0, false
}

// persist writes the final result to the cache. Persistence failures are
// logged and swallowed: the lookup already succeeded or exhausted, and a
// broken cache must not fail it.
func (r *Resolver) persist(key string, res *LookupResult) {
	entry := cache.Entry{
		ASIN:      res.ASIN,
		Source:    string(res.Source),
		Timestamp: time.Now(),
	}
	if err := r.cache.Put(key, entry); err != nil {
		log.Printf("Warning: failed to persist lookup result: %v", err)
	}
}

// expandFuzzy appends fuzzy title/author variations after the base variant
// order, so exact forms are always tried first.
func expandFuzzy(base []localize.SearchVariant, q localize.BookQuery) []localize.SearchVariant {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[strings.ToLower(v.Title+"|"+v.Author+"|"+v.Domain)] = true
	}
	out := base
	domain := localize.MarketplaceDomain(q.Language)
	for _, fv := range matcher.Variations(q.Title, q.Author) {
		key := strings.ToLower(fv.Title + "|" + fv.Author + "|" + domain)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, localize.SearchVariant{
			Title: fv.Title, Author: fv.Author, Domain: domain,
			Kind: localize.KindLocalized,
		})
	}
	return out
}

// failureReason renders an attempt error for the diagnostic trail.
func failureReason(err error) string {
	var rl *sources.RateLimitError
	if errors.As(err, &rl) {
		return "rate limited"
	}
	var se *sources.SourceError
	if errors.As(err, &se) {
		return se.Reason
	}
	return err.Error()
}
