// Package graphindex implements the ImportExpander (C13): a bounded BFS
// over the file-to-file import relation stored by C18, used by
// get_file_context and search_codebase's include_imports option.
//
// The traversal shape — depth-capped BFS, a visited-set for cycle
// detection, truncation reasons surfaced per edge rather than silently
// dropped — is grounded on the teacher's internal/graph/searcher.go
// queryCallers/queryCallees traversal and its otter-backed cache for
// repeatedly-read lookups (there: file content for context lines; here:
// per-repo workspace aliases).
package graphindex

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/maypok86/otter"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// ScopeMode is the crossing policy for workspace_scope/service_scope,
// spec.md §6's search_codebase option.
type ScopeMode string

const (
	ScopeStrict       ScopeMode = "strict"
	ScopeInclusive    ScopeMode = "inclusive"
	ScopeUnrestricted ScopeMode = "unrestricted"
)

// DefaultImportDepth is spec.md C13's default import_depth.
const DefaultImportDepth = 3

// Options configures one Expand call.
type Options struct {
	Depth          int
	WorkspaceScope ScopeMode
	ServiceScope   ScopeMode
}

// ImportChain is one visited edge in the import graph, per spec.md C13.
type ImportChain struct {
	FilePath         string
	ImportedFrom     string
	Depth            int
	Exports          []string
	Circular         bool
	Truncated        bool
	TruncationReason string
	CrossWorkspace   bool
	CrossService     bool
}

// FileSource is the store surface ImportExpander needs to read imports and
// hydrate resolved file paths.
type FileSource interface {
	FilesByIDs(ctx context.Context, keys []string) ([]model.CodeFile, error)
}

// AliasSource loads the workspace_aliases rows used to resolve aliased
// import specifiers (e.g. "@app/*") before falling back to relative-path
// resolution.
type AliasSource interface {
	AliasesForRepo(ctx context.Context, repoID string) ([]model.WorkspaceAlias, error)
}

// ImportExpander implements C13.
type ImportExpander struct {
	files   FileSource
	aliases AliasSource

	// aliasCache avoids refetching a repo's aliases on every BFS frontier
	// node, the same per-request bounded-cache shape as embedding.entryCache.
	aliasCache otter.Cache[string, []model.WorkspaceAlias]
}

// New builds an ImportExpander, failing only if the alias cache can't be
// constructed.
func New(files FileSource, aliases AliasSource) (*ImportExpander, error) {
	cache, err := otter.MustBuilder[string, []model.WorkspaceAlias](1024).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build alias cache: %w", err)
	}
	return &ImportExpander{files: files, aliases: aliases, aliasCache: cache}, nil
}

func compositeKey(repoPath, filePath string) string {
	return repoPath + "::" + filePath
}

type frontier struct {
	file  model.CodeFile
	depth int
}

// Expand runs the BFS described in spec.md C13, starting from seedPaths at
// depth 0 and capping at opts.Depth; a Depth outside 1..3 is replaced by
// DefaultImportDepth.
func (e *ImportExpander) Expand(ctx context.Context, repoPath string, seedPaths []string, opts Options) ([]ImportChain, error) {
	maxDepth := opts.Depth
	if maxDepth <= 0 || maxDepth > 3 {
		maxDepth = DefaultImportDepth
	}

	seedKeys := make([]string, len(seedPaths))
	for i, p := range seedPaths {
		seedKeys[i] = compositeKey(repoPath, p)
	}
	seedFiles, err := e.files.FilesByIDs(ctx, seedKeys)
	if err != nil {
		return nil, fmt.Errorf("hydrate seed files: %w", err)
	}

	// g records every file visited during the BFS as a vertex and every
	// traversed import as an edge; whether a node was visited before (the
	// circular= marker) is decided by the visitDepth map, not by g.
	g := graph.New(graph.StringHash, graph.Directed())

	visitDepth := make(map[string]int, len(seedFiles))
	queue := make([]frontier, 0, len(seedFiles))
	for _, f := range seedFiles {
		key := compositeKey(f.RepoPath, f.FilePath)
		_ = g.AddVertex(key)
		visitDepth[key] = 0
		queue = append(queue, frontier{file: f, depth: 0})
	}

	var chains []ImportChain
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		aliases, err := e.cachedAliases(ctx, cur.file.RepoID)
		if err != nil {
			return nil, err
		}

		for _, imp := range cur.file.Imports {
			chain, next, ok := e.visitImport(ctx, repoPath, cur, imp, aliases, opts, maxDepth, visitDepth, g)
			if !ok {
				chains = append(chains, chain)
				continue
			}
			chains = append(chains, chain)
			if next != nil {
				queue = append(queue, *next)
			}
		}
	}

	return chains, nil
}

// visitImport resolves and classifies one import edge. ok reports whether
// the edge was successfully expanded (next is non-nil in that case); when
// ok is false the returned chain is still emitted, just truncated or
// terminal.
func (e *ImportExpander) visitImport(
	ctx context.Context,
	repoPath string,
	cur frontier,
	imp model.ImportRef,
	aliases []model.WorkspaceAlias,
	opts Options,
	maxDepth int,
	visitDepth map[string]int,
	g graph.Graph[string, string],
) (ImportChain, *frontier, bool) {
	depth := cur.depth + 1

	resolvedPath, resolvable := resolveSpecifier(cur.file, imp.Source, aliases)
	if !resolvable {
		return ImportChain{
			FilePath:         imp.Source,
			ImportedFrom:     cur.file.FilePath,
			Depth:            depth,
			Truncated:        true,
			TruncationReason: "external_dependency",
		}, nil, false
	}

	candidates := candidatePaths(resolvedPath, cur.file.Language)
	candidateKeys := make([]string, len(candidates))
	for i, c := range candidates {
		candidateKeys[i] = compositeKey(repoPath, c)
	}
	hydrated, err := e.files.FilesByIDs(ctx, candidateKeys)
	if err != nil || len(hydrated) == 0 {
		return ImportChain{
			FilePath:         resolvedPath,
			ImportedFrom:     cur.file.FilePath,
			Depth:            depth,
			Truncated:        true,
			TruncationReason: "external_dependency",
		}, nil, false
	}
	target := pickFirst(hydrated, repoPath, candidateKeys)
	key := compositeKey(target.RepoPath, target.FilePath)

	crossWorkspace := target.WorkspaceID != "" && cur.file.WorkspaceID != "" && target.WorkspaceID != cur.file.WorkspaceID
	crossService := target.ServiceID != "" && cur.file.ServiceID != "" && target.ServiceID != cur.file.ServiceID

	chain := ImportChain{
		FilePath:       target.FilePath,
		ImportedFrom:   cur.file.FilePath,
		Depth:          depth,
		Exports:        target.Exports,
		CrossWorkspace: crossWorkspace,
		CrossService:   crossService,
	}

	if boundaryCrossed(crossWorkspace, crossService, opts) {
		chain.Truncated = true
		chain.TruncationReason = "boundary_crossed"
		return chain, nil, false
	}
	if depth > maxDepth {
		chain.Truncated = true
		chain.TruncationReason = "depth_limit"
		return chain, nil, false
	}
	if _, seen := visitDepth[key]; seen {
		chain.Circular = true
		_ = g.AddEdge(compositeKey(cur.file.RepoPath, cur.file.FilePath), key)
		return chain, nil, false
	}

	visitDepth[key] = depth
	_ = g.AddVertex(key)
	_ = g.AddEdge(compositeKey(cur.file.RepoPath, cur.file.FilePath), key)
	return chain, &frontier{file: target, depth: depth}, true
}

func boundaryCrossed(crossWorkspace, crossService bool, opts Options) bool {
	if crossWorkspace && opts.WorkspaceScope == ScopeStrict {
		return true
	}
	if crossService && opts.ServiceScope == ScopeStrict {
		return true
	}
	return false
}

func (e *ImportExpander) cachedAliases(ctx context.Context, repoID string) ([]model.WorkspaceAlias, error) {
	if repoID == "" {
		return nil, nil
	}
	if v, ok := e.aliasCache.Get(repoID); ok {
		return v, nil
	}
	aliases, err := e.aliases.AliasesForRepo(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("load workspace aliases for %s: %w", repoID, err)
	}
	e.aliasCache.Set(repoID, aliases)
	return aliases, nil
}

// resolveSpecifier resolves one import source to a repo-relative file
// path, per spec.md C13: alias table first, then relative-path resolution,
// else unresolved ("external").
func resolveSpecifier(file model.CodeFile, source string, aliases []model.WorkspaceAlias) (string, bool) {
	for _, a := range aliases {
		if strings.HasPrefix(source, a.AliasPattern) {
			rest := strings.TrimPrefix(source, a.AliasPattern)
			return path.Clean(path.Join(a.ResolvedPath, rest)), true
		}
	}
	if strings.HasPrefix(source, ".") {
		dir := path.Dir(file.FilePath)
		return path.Clean(path.Join(dir, source)), true
	}
	return "", false
}

// candidatePaths expands a resolved path lacking an extension into the
// file paths that could actually be indexed, per the source language's
// conventions (bare imports resolving to a file or its directory index).
func candidatePaths(resolved, language string) []string {
	ext := extensionForLanguage(language)
	candidates := []string{resolved}
	if ext == "" {
		return candidates
	}
	if !strings.HasSuffix(resolved, ext) {
		candidates = append(candidates, resolved+ext)
		candidates = append(candidates, path.Join(resolved, "index"+ext))
	}
	return candidates
}

func extensionForLanguage(language string) string {
	switch language {
	case "go":
		return ".go"
	case "typescript":
		return ".ts"
	case "javascript":
		return ".js"
	case "python":
		return ".py"
	case "java":
		return ".java"
	case "rust":
		return ".rs"
	default:
		return ""
	}
}

// pickFirst returns the hydrated file matching the earliest candidate key,
// since candidatePaths lists resolution attempts in preference order.
func pickFirst(files []model.CodeFile, repoPath string, candidateKeys []string) model.CodeFile {
	byKey := make(map[string]model.CodeFile, len(files))
	for _, f := range files {
		byKey[compositeKey(f.RepoPath, f.FilePath)] = f
	}
	for _, k := range candidateKeys {
		if f, ok := byKey[k]; ok {
			return f
		}
	}
	return files[0]
}
