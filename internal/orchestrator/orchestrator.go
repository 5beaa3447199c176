// Package orchestrator implements the Orchestrator (C8): the top-level
// index() pipeline that wires discovery, diffing, parsing, chunking,
// summarization, embedding, symbol extraction, and persistence together.
//
// Grounded on the teacher's internal/indexer/indexer_v2.go (5-step Index()
// flow: detect changes, delete removed, process changed, emit stats) and
// internal/indexer/processor.go (per-file parse/chunk/embed/write
// pipeline), rebuilt with the bounded two-pool concurrency model of
// spec.md §5: the teacher's processor runs everything on one goroutine.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/codegraph-dev/codegraph/internal/chunker"
	"github.com/codegraph-dev/codegraph/internal/diff"
	"github.com/codegraph-dev/codegraph/internal/discovery"
	"github.com/codegraph-dev/codegraph/internal/embedding"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/summary"
	"github.com/codegraph-dev/codegraph/internal/symbols"
)

// Store is the persistence surface the orchestrator needs, satisfied by
// *internal/store.Store. Declared narrowly so the orchestrator can be
// tested against a fake.
type Store interface {
	diff.HashLookup
	diff.Deleter
	UpsertRepository(ctx context.Context, repo model.Repository) error
	WriteFile(ctx context.Context, file model.CodeFile, content string) error
	WriteChunksBatch(ctx context.Context, chunks []model.CodeChunk) error
	WriteSymbolsBatch(ctx context.Context, symbols []model.CodeSymbol) error
}

// Options configures one index() call, per spec.md's index_repository tool.
type Options struct {
	RepoID          string
	RepoName        string
	RepoType        model.RepoType
	Metadata        map[string]any
	Incremental     bool
	RespectGitignore bool
	IncludeMarkdown bool
	MaxFileLines    int
	LanguagesAllowlist []string
	SummaryMethod   summary.Method

	// PFiles bounds the CPU-bound worker pool (parse/chunk/symbols).
	// Default min(8, NumCPU).
	PFiles int
	// PEmbed bounds the embedding worker pool. Default 4.
	PEmbed int

	// OnFileDone, if set, is called once per discovered file after it
	// either completes or fails, for progress reporting. err is nil on
	// success. Called from the files worker pool while holding the stats
	// mutex, so calls never overlap.
	OnFileDone func(filePath string, err error)
}

func (o Options) filesConcurrency() int64 {
	if o.PFiles > 0 {
		return int64(o.PFiles)
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return int64(n)
}

func (o Options) embedConcurrency() int64 {
	if o.PEmbed > 0 {
		return int64(o.PEmbed)
	}
	return 4
}

// StageTiming records the wall-clock duration spent in one named pipeline
// stage across all files, for per_stage_timings.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// FileError is one per-file failure recorded in stats.errors, never
// propagated past index().
type FileError struct {
	FilePath string
	Stage    string
	Err      error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: stage %s: %v", e.FilePath, e.Stage, e.Err)
}

// Stats is IndexingStats from spec.md §4.C8.
type Stats struct {
	FilesTotal        int
	FilesProcessed    int
	FilesFailed       int
	ChunksTotal       int
	ChunksEmbedded    int
	SymbolsExtracted  int
	SummariesLLM      int
	SummariesFallback int
	TotalTime         time.Duration
	PerStageTimings   []StageTiming
	Errors            []FileError
}

// Aborted is returned when a fatal, pipeline-wide failure aborts
// index() before per-file stats can be collected: persisting the
// repository header, discovery, incremental classification or applying
// incremental deletions failed, per spec.md §7.
type Aborted struct {
	Reason string
	Err    error
}

func (e *Aborted) Error() string { return fmt.Sprintf("indexing aborted: %s: %v", e.Reason, e.Err) }
func (e *Aborted) Unwrap() error { return e.Err }

// Orchestrator wires C1-C7 and the store into the index() pipeline.
type Orchestrator struct {
	discoverer *discovery.Discoverer
	differ     *diff.Differ
	parsers    *parser.Facade
	chunker    *chunker.Chunker
	summarizer *summary.Generator
	embedder   *embedding.Embedder
	symbols    *symbols.Extractor
	store      Store
	log        *slog.Logger
}

// New builds an Orchestrator from its already-constructed collaborators.
func New(
	discoverer *discovery.Discoverer,
	differ *diff.Differ,
	parsers *parser.Facade,
	ck *chunker.Chunker,
	summarizer *summary.Generator,
	embedder *embedding.Embedder,
	symbolExtractor *symbols.Extractor,
	store Store,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		discoverer: discoverer,
		differ:     differ,
		parsers:    parsers,
		chunker:    ck,
		summarizer: summarizer,
		embedder:   embedder,
		symbols:    symbolExtractor,
		store:      store,
		log:        log,
	}
}

// stageTimer accumulates per-stage durations under a single mutex, the
// process-wide counter model spec.md §5 describes for the progress
// tracker.
type stageTimer struct {
	mu    sync.Mutex
	totals map[string]time.Duration
}

func newStageTimer() *stageTimer {
	return &stageTimer{totals: make(map[string]time.Duration)}
}

func (t *stageTimer) add(stage string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals[stage] += d
}

func (t *stageTimer) snapshot() []StageTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StageTiming, 0, len(t.totals))
	for stage, d := range t.totals {
		out = append(out, StageTiming{Stage: stage, Duration: d})
	}
	return out
}

// Index runs the full pipeline described in spec.md §4.C8 and returns
// IndexingStats. A *Aborted error means the pipeline never reached
// per-file stats: repository-header, discovery, classification or
// deletion failure. Index runs no schema check of its own.
func (o *Orchestrator) Index(ctx context.Context, repoPath string, opts Options) (Stats, error) {
	start := time.Now()
	stats := Stats{}
	timer := newStageTimer()

	// Step 1: persist repository header.
	repoType := opts.RepoType
	if repoType == "" {
		repoType = model.RepoTypeMonolithic
	}
	repo := model.Repository{
		RepoID: opts.RepoID, RepoName: opts.RepoName, RepoPath: repoPath,
		RepoType: repoType, Metadata: opts.Metadata, IndexedAt: time.Now(),
	}
	if err := o.store.UpsertRepository(ctx, repo); err != nil {
		return stats, &Aborted{Reason: "persist repository header", Err: err}
	}

	// Step 2: discover all files.
	discOpts := discovery.Options{
		RespectIgnoreFile: opts.RespectGitignore,
		MaxFileLines:      opts.MaxFileLines,
		IncludeDocs:       opts.IncludeMarkdown,
		LanguagesAllowlist: opts.LanguagesAllowlist,
	}
	discovered, _, err := o.discoverer.Discover(repoPath, discOpts)
	if err != nil {
		return stats, &Aborted{Reason: "discovery", Err: err}
	}
	stats.FilesTotal = len(discovered)

	toProcess := discovered

	// Step 3: incremental classify + delete stale.
	if opts.Incremental {
		items := make([]diff.Discovered, len(discovered))
		for i, d := range discovered {
			items[i] = diff.Discovered{FilePath: d.RelativePath, FileHash: d.FileHash}
		}
		plan, _, err := o.differ.Classify(ctx, repoPath, items)
		if err != nil {
			return stats, &Aborted{Reason: "incremental classify", Err: err}
		}
		if len(plan.ToProcess) == 0 && len(plan.ToDelete) == 0 {
			stats.TotalTime = time.Since(start)
			return stats, nil
		}
		toProcessSet := make(map[string]bool, len(plan.ToProcess))
		for _, p := range plan.ToProcess {
			toProcessSet[p] = true
		}
		filtered := make([]discovery.DiscoveredFile, 0, len(plan.ToProcess))
		for _, d := range discovered {
			if toProcessSet[d.RelativePath] {
				filtered = append(filtered, d)
			}
		}
		toProcess = filtered

		// plan.ToProcess mixes new and modified files; deleting a new
		// file's (nonexistent) rows is a no-op, so passing the whole
		// set clears stale chunk/symbol rows for every modified file
		// before the per-file pipeline re-inserts fresh ones.
		if err := o.differ.Apply(ctx, o.store, repoPath, plan, plan.ToProcess); err != nil {
			return stats, &Aborted{Reason: "apply incremental deletions", Err: err}
		}
	}

	if len(toProcess) == 0 {
		stats.TotalTime = time.Since(start)
		return stats, nil
	}

	// Step 5: process each file through the bounded two-pool pipeline.
	fileSem := semaphore.NewWeighted(opts.filesConcurrency())
	embedSem := semaphore.NewWeighted(opts.embedConcurrency())

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, d := range toProcess {
		d := d
		if err := fileSem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer fileSem.Release(1)
			result, ferr := o.processFile(gctx, repoPath, d, embedSem, timer)
			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				stats.FilesFailed++
				var fe FileError
				if asFileError(ferr, &fe) {
					stats.Errors = append(stats.Errors, fe)
				} else {
					stats.Errors = append(stats.Errors, FileError{FilePath: d.RelativePath, Stage: "unknown", Err: ferr})
				}
				if opts.OnFileDone != nil {
					opts.OnFileDone(d.RelativePath, ferr)
				}
				return nil
			}
			stats.FilesProcessed++
			stats.ChunksTotal += result.chunksWritten
			stats.ChunksEmbedded += result.chunksEmbedded
			stats.SymbolsExtracted += result.symbolsExtracted
			if result.summaryMethod == summary.MethodLLM {
				stats.SummariesLLM++
			} else {
				stats.SummariesFallback++
			}
			if opts.OnFileDone != nil {
				opts.OnFileDone(d.RelativePath, nil)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, &Aborted{Reason: "per-file pipeline cancelled", Err: err}
	}

	stats.PerStageTimings = timer.snapshot()
	stats.TotalTime = time.Since(start)
	return stats, nil
}

func asFileError(err error, out *FileError) bool {
	fe, ok := err.(FileError)
	if ok {
		*out = fe
	}
	return ok
}

type fileResult struct {
	chunksWritten    int
	chunksEmbedded   int
	symbolsExtracted int
	summaryMethod    summary.Method
}

// processFile runs stages (a)-(f) of spec.md §4.C8 for one file, in strict
// order, recording per-stage timing under timer.
func (o *Orchestrator) processFile(
	ctx context.Context,
	repoPath string,
	d discovery.DiscoveredFile,
	embedSem *semaphore.Weighted,
	timer *stageTimer,
) (fileResult, error) {
	var res fileResult

	content, err := os.ReadFile(d.AbsolutePath)
	if err != nil {
		return res, FileError{FilePath: d.RelativePath, Stage: "read", Err: err}
	}

	// a. Parse (C2).
	parseStart := time.Now()
	parseResult := o.parsers.Parse(content, d.RelativePath)
	timer.add("parse", time.Since(parseStart))
	if !parseResult.Success && !parseResult.UsedFallback {
		return res, FileError{FilePath: d.RelativePath, Stage: "parse", Err: parseResult.Error}
	}

	file := model.CodeFile{
		RepoPath: repoPath, FilePath: d.RelativePath, Language: d.Language,
		LineCount: d.LineCount, FileHash: d.FileHash, LastModified: time.Now(),
	}

	// b. Chunk (C3).
	chunkStart := time.Now()
	chunkResult := o.chunker.Chunk(file, parseResult, string(content))
	timer.add("chunk", time.Since(chunkStart))
	isLarge := len(chunkResult.Chunks) == 1 && chunkResult.Chunks[0].ChunkType == model.ChunkStructureOnly

	// c. Summarize (C4).
	summaryStart := time.Now()
	fileSummary := o.summarizer.Summarize(ctx, file, string(content), parseResult)
	timer.add("summarize", time.Since(summaryStart))
	file.Summary = fileSummary.Text
	res.summaryMethod = fileSummary.Method

	imports := make([]model.ImportRef, 0, len(parseResult.Imports))
	for _, imp := range parseResult.Imports {
		imports = append(imports, model.ImportRef{Source: imp.Source, Symbols: imp.Symbols, Line: imp.Line})
	}
	file.Imports = imports
	exports := make([]string, 0, len(parseResult.Exports))
	for _, exp := range parseResult.Exports {
		exports = append(exports, exp.Symbols...)
	}
	file.Exports = exports

	// d. Batch-embed chunks and embed summary (C5).
	if err := embedSem.Acquire(ctx, 1); err != nil {
		return res, FileError{FilePath: d.RelativePath, Stage: "embed", Err: err}
	}
	embedStart := time.Now()
	err = o.embedChunksAndSummary(ctx, &file, chunkResult.Chunks)
	embedSem.Release(1)
	timer.add("embed", time.Since(embedStart))
	if err != nil {
		return res, FileError{FilePath: d.RelativePath, Stage: "embed", Err: err}
	}
	res.chunksEmbedded = len(chunkResult.Chunks)

	// e. Extract symbols (C6) - skipped for structure-only.
	var syms []model.CodeSymbol
	if !isLarge {
		symStart := time.Now()
		syms, err = o.symbols.Extract(ctx, file, parseResult)
		timer.add("symbols", time.Since(symStart))
		if err != nil {
			return res, FileError{FilePath: d.RelativePath, Stage: "symbols", Err: err}
		}
	}

	// f. Persist: file row, chunks with embeddings, symbols. One unit of
	// commit per file; retried once on failure per spec.md §7.
	persistStart := time.Now()
	err = o.persistFile(ctx, file, string(content), chunkResult.Chunks, syms)
	timer.add("persist", time.Since(persistStart))
	if err != nil {
		err = o.persistFile(ctx, file, string(content), chunkResult.Chunks, syms)
		if err != nil {
			return res, FileError{FilePath: d.RelativePath, Stage: "persist", Err: err}
		}
	}

	res.chunksWritten = len(chunkResult.Chunks)
	res.symbolsExtracted = len(syms)
	return res, nil
}

func (o *Orchestrator) embedChunksAndSummary(ctx context.Context, file *model.CodeFile, chunks []model.CodeChunk) error {
	if o.embedder == nil {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := o.embedder.EmbedBatch(ctx, texts, embedding.ModePassage)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		if i < len(embeddings) {
			chunks[i].Embedding = embeddings[i]
		}
	}
	file.SummaryEmbedding = o.embedder.EmbedText(ctx, embedding.ModePassage, file.Summary)
	return nil
}

func (o *Orchestrator) persistFile(ctx context.Context, file model.CodeFile, content string, chunks []model.CodeChunk, syms []model.CodeSymbol) error {
	if err := o.store.WriteFile(ctx, file, content); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if len(chunks) > 0 {
		if err := o.store.WriteChunksBatch(ctx, chunks); err != nil {
			return fmt.Errorf("write chunks: %w", err)
		}
	}
	if len(syms) > 0 {
		if err := o.store.WriteSymbolsBatch(ctx, syms); err != nil {
			return fmt.Errorf("write symbols: %w", err)
		}
	}
	return nil
}
