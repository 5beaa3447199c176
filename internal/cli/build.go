// Package cli implements codegraph's Cobra command tree: index, serve, and
// the repository inspection commands, all wired against SPEC_FULL.md's
// collaborators (internal/store, internal/orchestrator, internal/mcpserver)
// rather than the teacher's SQLite-chunk-cache indexer.
//
// Grounded on the teacher's internal/cli (root.go's cobra.OnInitialize +
// persistent-flag idiom, version.go's ldflags/debug.BuildInfo fallback),
// rebuilt around this domain's commands instead of the teacher's
// index/mcp/clean/cache command set.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/codegraph-dev/codegraph/internal/apienrich"
	"github.com/codegraph-dev/codegraph/internal/chunker"
	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/diff"
	"github.com/codegraph-dev/codegraph/internal/discovery"
	"github.com/codegraph-dev/codegraph/internal/embedding"
	"github.com/codegraph-dev/codegraph/internal/graphindex"
	"github.com/codegraph-dev/codegraph/internal/keyword"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/orchestrator"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/parser/treesitter"
	"github.com/codegraph-dev/codegraph/internal/query"
	"github.com/codegraph-dev/codegraph/internal/retrieval"
	"github.com/codegraph-dev/codegraph/internal/store"
	"github.com/codegraph-dev/codegraph/internal/summary"
	"github.com/codegraph-dev/codegraph/internal/symbols"
)

// collaborators holds every long-lived component the index and serve
// commands build from config, so both can share one construction path
// instead of duplicating the wiring.
type collaborators struct {
	cfg   *config.Config
	log   *slog.Logger
	store *store.Store

	discoverer *discovery.Discoverer
	differ     *diff.Differ
	parsers    *parser.Facade
	chunks     *chunker.Chunker
	summaries  *summary.Generator
	embedder   *embedding.Embedder
	symbols    *symbols.Extractor
}

// newCollaborators opens its own store handle and constructs every
// pipeline stage needed by "index", per orchestrator.New's parameter list.
func newCollaborators(cfg *config.Config, log *slog.Logger) (*collaborators, error) {
	st, err := store.Open(cfg.Store.Path, cfg.Store.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	cb, err := newPipeline(cfg, log, st, embedder)
	if err != nil {
		embedder.Close()
		st.Close()
		return nil, err
	}
	return cb, nil
}

// newPipeline constructs the index pipeline's stages over an already-open
// store and embedder, so "serve" can share both handles with the
// orchestrator its index_repository tool drives instead of opening the
// database and the embedding backend a second time.
func newPipeline(cfg *config.Config, log *slog.Logger, st *store.Store, embedder *embedding.Embedder) (*collaborators, error) {
	discoverer, err := discovery.New(cfg.Discovery.IgnoreGlobs, cfg.Discovery.SecretGlobs)
	if err != nil {
		return nil, fmt.Errorf("build discoverer: %w", err)
	}

	return &collaborators{
		cfg:        cfg,
		log:        log,
		store:      st,
		discoverer: discoverer,
		differ:     diff.New(st),
		parsers:    newParserFacade(),
		chunks: chunker.New(chunker.Config{
			ChunkSizeMin:       cfg.Chunking.ChunkSizeMin,
			ChunkSizeMax:       cfg.Chunking.ChunkSizeMax,
			FallbackWindowSize: cfg.Chunking.FallbackWindowSize,
			LargeFileThreshold: cfg.Chunking.LargeFileThreshold,
		}),
		summaries: summary.New(nil, summary.Config{
			HeadLines: cfg.Summary.HeadLines,
			Timeout:   cfg.Summary.Timeout,
		}),
		embedder: embedder,
		symbols:  symbols.New(embedder, symbols.Config{MaxDefinitionChars: cfg.Symbols.MaxDefinitionChars}),
	}, nil
}

// Close releases the embedder and the store handle the collaborators hold,
// whichever constructor built them. Callers that passed their own handles
// to newPipeline close those themselves instead of calling Close.
func (c *collaborators) Close() error {
	var err error
	if c.embedder != nil {
		err = c.embedder.Close()
	}
	if c.store != nil {
		if cerr := c.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// newEmbedder builds the embedding.Embedder over the configured provider.
// "mock" backs `codegraph index --dry-run` and local experimentation with
// no embedding backend reachable; "http" talks to a real embedding server.
func newEmbedder(cfg *config.Config) (*embedding.Embedder, error) {
	var provider embedding.Provider
	switch cfg.Embedding.Provider {
	case "http":
		provider = embedding.NewHTTPProvider(cfg.Embedding.Endpoint, cfg.Store.Dimensions, cfg.Embedding.Timeout)
	default:
		provider = embedding.NewMockProvider(cfg.Store.Dimensions)
	}
	return embedding.New(provider, embedding.Config{
		BatchSize:      cfg.Embedding.BatchSize,
		MaxRetries:     cfg.Embedding.MaxRetries,
		RetryBaseDelay: cfg.Embedding.RetryBaseDelay,
		CacheEntries:   cfg.Embedding.CacheEntries,
		CacheTTL:       cfg.Embedding.CacheTTL,
	}, slog.Default())
}

// newParserFacade registers every language the corpus carries tree-sitter
// grammars for, plus the regex-based fallback for anything else.
func newParserFacade() *parser.Facade {
	f := parser.NewFacade()
	f.Register(parser.NewGoParser())
	f.Register(treesitter.NewCParser())
	f.Register(treesitter.NewJavaParser())
	f.Register(treesitter.NewPHPParser())
	f.Register(treesitter.NewPythonParser())
	f.Register(treesitter.NewRubyParser())
	f.Register(treesitter.NewRustParser())
	f.Register(treesitter.NewTypeScriptParser())
	return f
}

// orchestratorOptions translates the loaded config and CLI flags into
// orchestrator.Options for one index() call. repoPath is passed to
// orchestrator.Index separately, alongside these Options.
func orchestratorOptions(cfg *config.Config, repoID, repoName string, repoType model.RepoType, incremental bool, onFileDone func(string, error)) orchestrator.Options {
	return orchestrator.Options{
		RepoID:             repoID,
		RepoName:           repoName,
		RepoType:           repoType,
		Incremental:        incremental,
		RespectGitignore:   cfg.Discovery.RespectGitignore,
		IncludeMarkdown:    cfg.Discovery.IncludeMarkdown,
		MaxFileLines:       cfg.Discovery.MaxFileLines,
		LanguagesAllowlist: cfg.Discovery.LanguagesAllowlist,
		SummaryMethod:      summary.Method(cfg.Summary.Method),
		OnFileDone:         onFileDone,
	}
}

// repoTypeLookup builds a retrieval.RepoTypeLookup backed by one upfront
// ListRepositories call, since the MCP tools call it per result row and a
// per-call store round trip would be wasteful.
func repoTypeLookup(ctx context.Context, st *store.Store) (retrieval.RepoTypeLookup, error) {
	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	byID := make(map[string]model.RepoType, len(repos))
	for _, r := range repos {
		byID[r.RepoID] = r.RepoType
	}
	return func(repoID string) model.RepoType { return byID[repoID] }, nil
}

// serveDeps bundles every serve-time collaborator, built over the
// already-open store by buildServeDeps.
type serveDeps struct {
	embedder   *embedding.Embedder
	query      *query.Processor
	files      *retrieval.FileRetriever
	chunks     *retrieval.ChunkRetriever
	symbols    *retrieval.SymbolResolver
	imports    *graphindex.ImportExpander
	apis       *apienrich.Enricher
	keyword    *keyword.Index
	repoType   retrieval.RepoTypeLookup
}

// buildServeDeps wires query processing, retrieval, graph expansion, API
// enrichment, and keyword search over st, then rebuilds the in-memory
// keyword index from the store's persisted chunks and endpoints (bleve's
// MemOnly index holds nothing across process restarts).
func buildServeDeps(ctx context.Context, cfg *config.Config, st *store.Store) (*serveDeps, error) {
	lookup, err := repoTypeLookup(ctx, st)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	imports, err := graphindex.New(st, st)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("build import expander: %w", err)
	}

	kw, err := keyword.New()
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("build keyword index: %w", err)
	}
	if err := rebuildKeywordIndex(ctx, st, kw); err != nil {
		embedder.Close()
		return nil, fmt.Errorf("rebuild keyword index: %w", err)
	}

	return &serveDeps{
		embedder: embedder,
		query:    query.New(embedder),
		files:    retrieval.NewFileRetriever(st, lookup),
		chunks:   retrieval.NewChunkRetriever(st, lookup),
		symbols:  retrieval.NewSymbolResolver(st),
		imports:  imports,
		apis:     apienrich.New(st),
		keyword:  kw,
		repoType: lookup,
	}, nil
}

// rebuildKeywordIndex walks every indexed repository's files/chunks and
// services/endpoints to repopulate the process-local bleve index.
func rebuildKeywordIndex(ctx context.Context, st *store.Store, kw *keyword.Index) error {
	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}
	for _, repo := range repos {
		files, err := st.FilesInRepo(ctx, repo.RepoID)
		if err != nil {
			return fmt.Errorf("list files for %s: %w", repo.RepoID, err)
		}
		fileKeys := make([]string, 0, len(files))
		for _, f := range files {
			fileKeys = append(fileKeys, repo.RepoPath+"::"+f.FilePath)
		}
		chunks, err := st.ChunksByFilePaths(ctx, fileKeys)
		if err != nil {
			return fmt.Errorf("list chunks for %s: %w", repo.RepoID, err)
		}
		if err := kw.IndexChunks(ctx, chunks); err != nil {
			return fmt.Errorf("index chunks for %s: %w", repo.RepoID, err)
		}

		services, err := st.ListServices(ctx, repo.RepoID)
		if err != nil {
			return fmt.Errorf("list services for %s: %w", repo.RepoID, err)
		}
		serviceIDs := make([]string, 0, len(services))
		for _, svc := range services {
			serviceIDs = append(serviceIDs, svc.ServiceID)
		}
		if len(serviceIDs) == 0 {
			continue
		}
		endpoints, err := st.EndpointsForServices(ctx, serviceIDs)
		if err != nil {
			return fmt.Errorf("list endpoints for %s: %w", repo.RepoID, err)
		}
		if err := kw.IndexEndpoints(ctx, endpoints); err != nil {
			return fmt.Errorf("index endpoints for %s: %w", repo.RepoID, err)
		}
	}
	return nil
}

// cmdContext returns cmd's context, falling back to context.Background()
// when the command was invoked directly (e.g. from a test) rather than
// through rootCmd.Execute(), which would otherwise leave it nil.
func cmdContext(cmd interface{ Context() context.Context }) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newLogger builds the shared slog.Logger every command logs through, per
// cfg.Log's level/format.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
