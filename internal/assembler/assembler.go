// Package assembler implements the ContextAssembler (C16): it aggregates
// every other stage's output into one result, counts tokens, groups
// entities by workspace/service/repo, and emits warnings.
//
// The result-shaping (one struct combining every retrieved entity plus a
// warnings list) is grounded on internal/mcp/models.go's response
// conventions; the token-count formula and warning thresholds come from
// spec.md C16 directly.
package assembler

import (
	"time"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/query"
)

// Warning is one entry in ContextAssembler's warnings list, per spec.md
// C16.
type Warning struct {
	Code    string
	Message string
}

const (
	WarningContextSize      = "context_size"
	WarningPartialResults   = "partial_results"
	WarningBoundaryCrossed  = "boundary_crossed"
	WarningOutdatedRef      = "outdated_reference"
)

// DefaultWarnContextTokens is spec.md C16's default warn_context_tokens.
const DefaultWarnContextTokens = 100000

// ReferenceStaleness is the age past which an included reference repo
// triggers outdated_reference, per spec.md C16.
const ReferenceStaleness = 90 * 24 * time.Hour

// ImportChain mirrors graphindex.ImportChain's shape without importing
// that package, since assembler only needs to read these fields.
type ImportChain struct {
	FilePath       string
	ImportedFrom   string
	Depth          int
	Exports        []string
	Circular       bool
	Truncated      bool
	TruncationReason string
	CrossWorkspace bool
	CrossService   bool
}

// Group holds the entities belonging to one workspace/service/repo, per
// spec.md C16's grouping requirement.
type Group struct {
	Files   []model.CodeFile
	Chunks  []model.CodeChunk
	Symbols []model.CodeSymbol
	Imports []ImportChain
}

// Input carries every stage's output into one Assemble call.
type Input struct {
	Query     string
	QueryType query.Type
	Files     []model.CodeFile
	Chunks    []model.CodeChunk
	Symbols   []model.CodeSymbol
	Imports   []ImportChain

	WarnContextTokens int
	// ReferenceRepoLastIndexed maps repo_id -> last_indexed for every
	// included reference-type repo, so outdated_reference can be checked
	// without a store round-trip inside Assemble.
	ReferenceRepoLastIndexed map[string]time.Time
}

// Context is C16's result: {query, query_type, warnings, metadata,
// context}, per spec.md C16.
type Context struct {
	Query       string
	QueryType   query.Type
	Warnings    []Warning
	Metadata    map[string]any
	Files       []model.CodeFile
	Chunks      []model.CodeChunk
	Symbols     []model.CodeSymbol
	Imports     []ImportChain
	TokenCount  int
	ByWorkspace map[string]Group
	ByService   map[string]Group
	ByRepo      map[string]Group
}

// Assembler implements C16.
type Assembler struct{}

func New() *Assembler {
	return &Assembler{}
}

// Assemble combines every stage's output per spec.md C16.
func (a *Assembler) Assemble(in Input) Context {
	warnTokens := in.WarnContextTokens
	if warnTokens <= 0 {
		warnTokens = DefaultWarnContextTokens
	}

	tokenCount := 0
	for _, c := range in.Chunks {
		tokenCount += c.TokenCount
	}
	tokenCount += 50 * len(in.Symbols)
	tokenCount += 30 * len(in.Imports)

	ctx := Context{
		Query:      in.Query,
		QueryType:  in.QueryType,
		Files:      in.Files,
		Chunks:     in.Chunks,
		Symbols:    in.Symbols,
		Imports:    in.Imports,
		TokenCount: tokenCount,
		Metadata:   map[string]any{},
	}

	ctx.ByWorkspace, ctx.ByService, ctx.ByRepo = group(in)
	ctx.Warnings = warnings(in, tokenCount, warnTokens)

	return ctx
}

func group(in Input) (byWorkspace, byService, byRepo map[string]Group) {
	byWorkspace = map[string]Group{}
	byService = map[string]Group{}
	byRepo = map[string]Group{}

	fileWorkspace := map[string]string{}
	fileService := map[string]string{}

	addTo := func(m map[string]Group, key string, mutate func(*Group)) {
		if key == "" {
			return
		}
		g := m[key]
		mutate(&g)
		m[key] = g
	}

	for _, f := range in.Files {
		fileWorkspace[f.FilePath] = f.WorkspaceID
		fileService[f.FilePath] = f.ServiceID
		addTo(byWorkspace, f.WorkspaceID, func(g *Group) { g.Files = append(g.Files, f) })
		addTo(byService, f.ServiceID, func(g *Group) { g.Files = append(g.Files, f) })
		addTo(byRepo, f.RepoID, func(g *Group) { g.Files = append(g.Files, f) })
	}
	for _, c := range in.Chunks {
		addTo(byWorkspace, c.WorkspaceID, func(g *Group) { g.Chunks = append(g.Chunks, c) })
		addTo(byService, c.ServiceID, func(g *Group) { g.Chunks = append(g.Chunks, c) })
		addTo(byRepo, c.RepoID, func(g *Group) { g.Chunks = append(g.Chunks, c) })
	}
	for _, s := range in.Symbols {
		addTo(byWorkspace, s.WorkspaceID, func(g *Group) { g.Symbols = append(g.Symbols, s) })
		addTo(byService, s.ServiceID, func(g *Group) { g.Symbols = append(g.Symbols, s) })
		addTo(byRepo, s.RepoID, func(g *Group) { g.Symbols = append(g.Symbols, s) })
	}
	for _, imp := range in.Imports {
		addTo(byWorkspace, fileWorkspace[imp.ImportedFrom], func(g *Group) { g.Imports = append(g.Imports, imp) })
		addTo(byService, fileService[imp.ImportedFrom], func(g *Group) { g.Imports = append(g.Imports, imp) })
	}

	return byWorkspace, byService, byRepo
}

func warnings(in Input, tokenCount, warnTokens int) []Warning {
	var out []Warning

	if tokenCount > warnTokens {
		out = append(out, Warning{Code: WarningContextSize, Message: "assembled context exceeds the configured token warning threshold"})
	}

	if len(in.Files) == 0 {
		out = append(out, Warning{Code: WarningPartialResults, Message: "no files matched this query"})
	} else if len(in.Chunks) == 0 {
		out = append(out, Warning{Code: WarningPartialResults, Message: "files matched but no chunks survived retrieval"})
	}

	for _, imp := range in.Imports {
		if imp.CrossWorkspace || imp.CrossService {
			out = append(out, Warning{Code: WarningBoundaryCrossed, Message: "result includes imports crossing a workspace or service boundary"})
			break
		}
	}

	now := time.Now()
	for repoID, lastIndexed := range in.ReferenceRepoLastIndexed {
		if now.Sub(lastIndexed) > ReferenceStaleness {
			out = append(out, Warning{Code: WarningOutdatedRef, Message: "reference repo " + repoID + " has not been reindexed in over 90 days"})
		}
	}

	return out
}
