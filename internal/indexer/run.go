package indexer

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/tu"
	"github.com/opencodeintel/tucore/internal/types"
)

// RunKind distinguishes the two spec.md §4.E run modes for the
// indexing_finished priority rule ("full" always outranks "files").
type RunKind uint8

const (
	RunFull RunKind = iota
	RunFiles
)

// IndexingResult is the per-file reduction unit spec.md §4.E describes:
// one file's collected symbols plus the TU that produced them, folded
// into the Symbol Database one batch at a time.
type IndexingResult struct {
	File    string
	Symbols []types.Symbol
	TU      *nativeparser.TU
}

type fileJob struct {
	file string
	part *partFiles
	objC bool
}

// Regenerate implements spec.md §4.E's full-project run: every file across
// every tracked part is (re)parsed, implementation files first, then
// headers, via a bounded worker pool, with results folded into D in
// batches of cfg.Indexing.BatchSize.
func (ix *Indexer) Regenerate(ctx context.Context) error {
	return ix.run(ctx, RunFull, nil)
}

// EvaluateFile implements spec.md §4.E's single-file run: re-indexes just
// file. A header passed here is parsed on its own; implementation files
// that include it are not re-indexed.
func (ix *Indexer) EvaluateFile(ctx context.Context, file string) error {
	return ix.run(ctx, RunFiles, []string{file})
}

// run implements the shared worker-pool/reduce machinery behind Regenerate
// and EvaluateFile, including the queueing semantics of spec.md §4.E:
// a run already in flight records the new request (queued_full wins over
// queued_files) instead of starting a second concurrent run, and drains the
// queue once the current run completes.
func (ix *Indexer) run(ctx context.Context, kind RunKind, only []string) error {
	ix.mu.Lock()
	if ix.running {
		if kind == RunFull {
			ix.queuedFull = true
		} else {
			for _, f := range only {
				ix.queuedFiles[f] = struct{}{}
			}
		}
		ix.mu.Unlock()
		return nil
	}
	ix.running = true
	runCtx, cancel := context.WithCancel(ctx)
	ix.cancelFunc = cancel
	ix.newlySeenHeaders = make(map[string]struct{})
	ix.mu.Unlock()

	err := ix.runOnce(runCtx, kind, only)

	ix.mu.Lock()
	ix.running = false
	ix.cancelFunc = nil
	ix.mu.Unlock()
	cancel()

	if err != nil {
		return err
	}

	return ix.drainQueue(ctx)
}

// drainQueue implements spec.md §4.E's "queueing semantics": after a run
// finishes, a queued full request takes priority over queued per-file
// requests, and is itself drained in a loop until both queues are empty.
func (ix *Indexer) drainQueue(ctx context.Context) error {
	for {
		ix.mu.Lock()
		var (
			nextKind RunKind
			nextOnly []string
			hasNext  bool
		)
		switch {
		case ix.queuedFull:
			ix.queuedFull = false
			ix.queuedFiles = make(map[string]struct{})
			nextKind, hasNext = RunFull, true
		case len(ix.queuedFiles) > 0:
			for f := range ix.queuedFiles {
				nextOnly = append(nextOnly, f)
			}
			ix.queuedFiles = make(map[string]struct{})
			nextKind, hasNext = RunFiles, true
		}
		ix.mu.Unlock()

		if !hasNext {
			return nil
		}
		if err := ix.run(ctx, nextKind, nextOnly); err != nil {
			return err
		}
	}
}

// Cancel implements spec.md §5's cooperative cancellation: jobs not yet
// started observe ctx.Done() and are skipped, and no further batch starts.
// Results of jobs that finished before the cancel are still folded in
// whole; skipped jobs contribute nothing to D.
func (ix *Indexer) Cancel() {
	ix.mu.Lock()
	cancel := ix.cancelFunc
	ix.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (ix *Indexer) runOnce(ctx context.Context, kind RunKind, only []string) error {
	jobs := ix.collectJobs(kind, only)

	impl, hdr := splitByClassification(jobs)

	if err := ix.runPhase(ctx, impl); err != nil {
		return err
	}
	hdr = ix.dropSuppressedHeaders(hdr)
	if err := ix.runPhase(ctx, hdr); err != nil {
		return err
	}
	return nil
}

// dropSuppressedHeaders applies the header-suppression rule: a header this
// run's implementation-file phase already walked via #include needs no
// separate second-pass parse, since its symbols were already folded in
// under the implementation file's qualification walk.
func (ix *Indexer) dropSuppressedHeaders(hdr []fileJob) []fileJob {
	var kept []fileJob
	for _, j := range hdr {
		if ix.headerAlreadyProcessed(j.file) {
			continue
		}
		kept = append(kept, j)
	}
	return kept
}

func (ix *Indexer) collectJobs(kind RunKind, only []string) []fileJob {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var jobs []fileJob
	wanted := make(map[string]struct{}, len(only))
	for _, f := range only {
		wanted[f] = struct{}{}
	}

	for _, pf := range ix.parts {
		for file, objC := range pf.files {
			if kind == RunFiles {
				if _, ok := wanted[file]; !ok {
					continue
				}
			}
			jobs = append(jobs, fileJob{file: file, part: pf, objC: objC})
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].file < jobs[j].file })
	return jobs
}

func splitByClassification(jobs []fileJob) (impl, hdr []fileJob) {
	for _, j := range jobs {
		if IsImplementationFile(j.file) {
			impl = append(impl, j)
		} else {
			hdr = append(hdr, j)
		}
	}
	return impl, hdr
}

// runPhase drives one classification phase (implementation files, then
// headers) through the bounded worker pool, folding results into D in
// batches of cfg.Indexing.BatchSize as spec.md §4.E's "unordered-reduce"
// pattern describes: workers don't wait on each other, and a batch's
// results are folded into D only after the whole batch has finished (each
// insert still takes D's own lock).
func (ix *Indexer) runPhase(ctx context.Context, jobs []fileJob) error {
	if len(jobs) == 0 {
		return nil
	}

	batchSize := ix.cfg.Indexing.BatchSize
	if batchSize < 1 {
		batchSize = 4
	}

	for start := 0; start < len(jobs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil // cooperative cancellation: stop, don't error out
		}

		end := start + batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batch := jobs[start:end]

		results, err := ix.indexBatch(ctx, batch)
		if err != nil {
			return err
		}
		ix.foldBatch(results)
	}
	return nil
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []fileJob) ([]IndexingResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.ResolvedWorkers())

	results := make([]IndexingResult, len(batch))

	for i, job := range batch {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}
			res, err := ix.indexOne(job)
			if err != nil {
				return nil // spec.md §7: ParseFailure is per-file, never aborts the batch
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (ix *Indexer) indexOne(job fileJob) (IndexingResult, error) {
	argv := ix.compileOptionsFor(job.part.part, job.objC)

	native, err := ix.index.Parse(nativeparser.ParseInput{
		FileName: job.file,
		Argv:     argv,
	}, nativeparser.FlagNone)
	if err != nil || native == nil {
		return IndexingResult{File: job.file}, nil
	}

	ix.recordInclusions(native)

	symbols := visitForSymbols(native)

	return IndexingResult{File: job.file, Symbols: symbols, TU: native}, nil
}

// recordInclusions implements spec.md §4.E's "Inclusion tracking": every
// header reached via a preproc_include directive is recorded so a later
// header-suppression check (headerAlreadyProcessed) can skip re-emitting
// symbols the owning implementation file's walk already produced for it.
func (ix *Indexer) recordInclusions(native *nativeparser.TU) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	nativeparser.GetInclusions(native, func(inc nativeparser.Inclusion) {
		if inc.IsSystem {
			return
		}
		resolved := resolveInclude(native.FileName(), inc.IncludedFile)
		ix.newlySeenHeaders[resolved] = struct{}{}
	})
}

func resolveInclude(fromFile, included string) string {
	if filepath.IsAbs(included) {
		return included
	}
	return filepath.Join(filepath.Dir(fromFile), included)
}

// visitForSymbols implements spec.md §4.E's "AST visitation": a depth-first
// VisitChildren walk starting at the TU's root cursor, tracking the
// "::"-joined qualification of scope-producing cursors (namespaces,
// records) via a cursor-hash keyed map, descending only into the cursor
// just emitted or a namespace/linkage-spec/unexposed-stmt wrapper, exactly
// as CursorKind.IsDescendable and IsScopeProducing document.
func visitForSymbols(native *nativeparser.TU) []types.Symbol {
	var symbols []types.Symbol
	qualifications := make(map[uint64]string)

	root := native.Cursor()
	qualifications[cursorHash(root)] = ""

	nativeparser.VisitChildren(root, func(cursor, parent nativeparser.Cursor) nativeparser.VisitResult {
		parentQual := qualifications[cursorHash(parent)]

		kind := cursor.Kind()
		symKind, isSymbol := symbolKindFor(kind)
		name := cursor.Spelling()

		if isSymbol && name != "" {
			symbols = append(symbols, types.Symbol{
				Name:          name,
				Qualification: parentQual,
				Kind:          symKind,
				Location:      cursor.Location(),
			})
		}

		// Namespace/LinkageSpec cursors are never symbols themselves
		// (symbolKindFor reports isSymbol=false for them) but still
		// extend the qualification their children are recorded under,
		// same as a class/struct does.
		qualForChildren := parentQual
		if kind.IsScopeProducing() && name != "" {
			qualForChildren = joinQualification(parentQual, name)
		}

		qualifications[cursorHash(cursor)] = qualForChildren

		if isSymbol || kind.IsDescendable() {
			return nativeparser.VisitRecurse
		}
		return nativeparser.VisitContinue
	})

	return symbols
}

func joinQualification(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "::" + name
}

// symbolKindFor implements spec.md §4.E's CursorKind -> SymbolKind mapping
// for the kinds the indexer actually emits into D.
func symbolKindFor(kind nativeparser.CursorKind) (types.SymbolKind, bool) {
	switch {
	case kind.IsRecordLike():
		return types.KindClass, true
	}
	switch kind {
	case nativeparser.KindEnumDecl:
		return types.KindEnum, true
	case nativeparser.KindCXXMethod, nativeparser.KindFunctionTemplate:
		return types.KindMethod, true
	case nativeparser.KindFunctionDecl:
		return types.KindFunction, true
	case nativeparser.KindConstructor:
		return types.KindConstructor, true
	case nativeparser.KindDestructor:
		return types.KindDestructor, true
	case nativeparser.KindVarDecl, nativeparser.KindFieldDecl, nativeparser.KindTypedefDecl:
		return types.KindDeclaration, true
	default:
		return types.KindUnknown, false
	}
}

// cursorHash keys the qualification map on a cursor's (file, extent)
// identity via xxhash, grounded on the same hashing approach
// internal/symboldb uses for its composite keys.
func cursorHash(c nativeparser.Cursor) uint64 {
	start, end := c.Extent()
	loc := c.Location()
	h := xxhash.New()
	h.WriteString(loc.FileName)
	var b [16]byte
	putInt(b[0:8], start)
	putInt(b[8:16], end)
	h.Write(b[:])
	return h.Sum64()
}

func putInt(b []byte, v int) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

// headerAlreadyProcessed implements the header-suppression half of
// spec.md §4.E's inclusion tracking: once an implementation file's pass
// has reported a header in recordInclusions, that header's own pass (if
// scheduled, e.g. because it also appears standalone in a part) no longer
// contributes duplicate top-level symbols for ranges already covered.
// Symbol Database upsert-by-composite-key (spec.md §4.D) already collapses
// exact duplicates; this check exists so the second-pass header walk can
// skip re-parsing entirely when nothing new would result.
func (ix *Indexer) headerAlreadyProcessed(file string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.newlySeenHeaders[file]
	return ok
}

// foldBatch implements the batch-write half of spec.md §4.E's
// unordered-reduce pattern: symbols are inserted into D and, when a
// LiveUnits manager was wired, the resulting TU published so editor
// consumers see the freshest parse.
func (ix *Indexer) foldBatch(results []IndexingResult) {
	now := nowTimestamp()

	for _, res := range results {
		if res.File == "" {
			continue
		}
		for _, sym := range res.Symbols {
			ix.db.InsertSymbol(sym, now)
		}
		ix.db.InsertFile(res.File, now)
		ix.db.SetUpToDate(res.File, true)

		if ix.live != nil && res.TU != nil {
			published := tu.FromParsedHandle(ix.index, res.TU)
			ix.live.UpdateUnit(res.File, published)
		}
	}
}
