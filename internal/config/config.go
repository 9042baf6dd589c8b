// Package config holds the engine's own tunables — worker count, batching,
// storage path, watch debounce, fuzzy-search threshold. Project
// configuration (which files belong to which ProjectPart, compiler search
// paths, etc.) is the embedding IDE's responsibility and is passed in
// directly as types.ProjectPart values; it is never loaded from disk here.
package config

import "runtime"

// Config is the full set of engine tunables, with defaults matching a
// reasonable desktop IDE session absent a .tucore.kdl override.
type Config struct {
	Indexing Indexing
	Storage  Storage
	Search   Search
}

type Indexing struct {
	// Workers is the worker-pool size for parallel TU construction.
	// 0 means "auto": max(1, NumCPU-1), per spec.md §5.
	Workers int
	// BatchSize is the per-part batch size for the unordered-reduce
	// indexing pattern (spec.md §4.E).
	BatchSize int
	// WatchMode enables fsnotify-driven evaluate_file on file changes.
	WatchMode bool
	// WatchDebounceMs coalesces bursts of filesystem events.
	WatchDebounceMs int
}

type Storage struct {
	// Path is where the Symbol Database persists between sessions.
	Path string
}

type Search struct {
	// FuzzyFallback enables the edlib Jaro-Winkler fallback pass when a
	// literal/regex symbol search returns zero results.
	FuzzyFallback bool
	// FuzzyThreshold is the minimum similarity score [0,1] to accept.
	FuzzyThreshold float64
	// ChunkSize is how many symbols the search pass reports per
	// incremental callback (spec.md §4.E: "iterates D in chunks of 10").
	ChunkSize int
}

// Default returns the engine's built-in defaults.
func Default() *Config {
	return &Config{
		Indexing: Indexing{
			Workers:         0,
			BatchSize:       4,
			WatchMode:       false,
			WatchDebounceMs: 250,
		},
		Storage: Storage{
			Path: ".tucore/symbols.db",
		},
		Search: Search{
			FuzzyFallback:  true,
			FuzzyThreshold: 0.80,
			ChunkSize:      10,
		},
	}
}

// ResolvedWorkers returns Workers with the spec's "auto" rule applied.
func (c *Config) ResolvedWorkers() int {
	if c.Indexing.Workers > 0 {
		return c.Indexing.Workers
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}
