package indexer

import (
	"context"
	"regexp"
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/opencodeintel/tucore/internal/types"
)

// SearchOptions controls one SearchSymbols call, per spec.md §4.E's search
// surface: "literal substring by default; regex flag switches to pattern
// matching; whole_words wraps the pattern in word boundaries."
type SearchOptions struct {
	Query      string
	Regex      bool
	WholeWords bool
}

// SearchMatch is one chunk-delivered result: the matching symbol plus
// whether it was found by the literal/regex pass or the fuzzy fallback.
type SearchMatch struct {
	Symbol types.Symbol
	Fuzzy  bool
	Score  float64
}

// SearchCallback receives each chunk of matches as the search progresses;
// returning false stops the search and SearchSymbols returns nil. A stopped
// search cannot be resumed; a new SearchSymbols call starts from the first
// chunk again.
type SearchCallback func(matches []SearchMatch) (resume bool)

// SearchSymbols implements spec.md §4.E's "iterates D in chunks of
// chunk_size, matching against Symbol.Name; falls back to edlib
// Jaro-Winkler fuzzy matching when the literal/regex pass yields zero
// results and fuzzy_fallback is enabled." The walk is chunked so a caller
// with a UI can render partial results without waiting for the whole
// database, and can cancel mid-walk via ctx.
func (ix *Indexer) SearchSymbols(ctx context.Context, opts SearchOptions, cb SearchCallback) error {
	matcher, err := buildMatcher(opts)
	if err != nil {
		return err
	}

	all := ix.allSymbolsSorted()

	chunkSize := ix.cfg.Search.ChunkSize
	if chunkSize < 1 {
		chunkSize = 10
	}

	var literalHits int
	for start := 0; start < len(all); start += chunkSize {
		if ctx.Err() != nil {
			return nil
		}
		end := start + chunkSize
		if end > len(all) {
			end = len(all)
		}

		var chunk []SearchMatch
		for _, sym := range all[start:end] {
			if matcher(sym.Name) {
				literalHits++
				chunk = append(chunk, SearchMatch{Symbol: sym})
			}
		}
		if len(chunk) == 0 {
			continue
		}
		if !cb(chunk) {
			return nil
		}
	}

	if literalHits > 0 || !ix.cfg.Search.FuzzyFallback || opts.Query == "" {
		return nil
	}

	return ix.fuzzySearch(ctx, opts, all, chunkSize, cb)
}

// fuzzySearch implements the edlib Jaro-Winkler fallback pass: every
// symbol name is scored against the query and chunks of matches above
// cfg.Search.FuzzyThreshold are delivered in descending score order.
func (ix *Indexer) fuzzySearch(ctx context.Context, opts SearchOptions, all []types.Symbol, chunkSize int, cb SearchCallback) error {
	threshold := ix.cfg.Search.FuzzyThreshold
	if threshold <= 0 {
		threshold = 0.80
	}

	type scored struct {
		sym   types.Symbol
		score float64
	}
	var candidates []scored
	for _, sym := range all {
		score, err := edlib.StringsSimilarity(opts.Query, sym.Name, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score >= threshold {
			candidates = append(candidates, scored{sym: sym, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].sym.Name < candidates[j].sym.Name
	})

	for start := 0; start < len(candidates); start += chunkSize {
		if ctx.Err() != nil {
			return nil
		}
		end := start + chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := make([]SearchMatch, 0, end-start)
		for _, c := range candidates[start:end] {
			chunk = append(chunk, SearchMatch{Symbol: c.sym, Fuzzy: true, Score: c.score})
		}
		if !cb(chunk) {
			return nil
		}
	}
	return nil
}

// allSymbolsSorted collects every symbol currently in D, ordered by
// (file, name) so chunk boundaries are stable across repeated searches of
// an unchanged database.
func (ix *Indexer) allSymbolsSorted() []types.Symbol {
	seen := make(map[types.CompositeKey]struct{})
	var all []types.Symbol
	for _, file := range ix.db.Files() {
		for _, sym := range ix.db.AllFromFile(file) {
			key := sym.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, sym)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Location.FileName != all[j].Location.FileName {
			return all[i].Location.FileName < all[j].Location.FileName
		}
		return all[i].Name < all[j].Name
	})
	return all
}

// buildMatcher implements spec.md §4.E's literal-vs-regex toggle: a
// literal query is escaped and optionally word-boundary-wrapped before
// compiling, so "whole_words" behaves identically whether or not "regex"
// is also set.
func buildMatcher(opts SearchOptions) (func(name string) bool, error) {
	pattern := opts.Query
	if !opts.Regex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if opts.WholeWords {
		pattern = `\b` + pattern + `\b`
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(name string) bool {
		return re.MatchString(name)
	}, nil
}
