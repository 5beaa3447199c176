// Package model holds the core data-model types from spec.md §3, shared by
// every indexing and retrieval component. These are plain structs, not ORM
// models — storage mapping lives in internal/store.
package model

import "time"

// RepoType classifies how a repository relates to the rest of the indexed
// corpus, used by the Deduplicator's priority mode (C15).
type RepoType string

const (
	RepoTypeMonolithic   RepoType = "monolithic"
	RepoTypeMicroservice RepoType = "microservice"
	RepoTypeMonorepo     RepoType = "monorepo"
	RepoTypeLibrary      RepoType = "library"
	RepoTypeReference    RepoType = "reference"
	RepoTypeDocumentation RepoType = "documentation"
)

// DedupPriority returns the repo-type priority multiplier used by C15's
// priority mode.
func (t RepoType) DedupPriority() float64 {
	switch t {
	case RepoTypeLibrary:
		return 0.9
	case RepoTypeReference:
		return 0.6
	case RepoTypeDocumentation:
		return 0.5
	default:
		return 1.0
	}
}

// Repository is the top-level indexed unit.
type Repository struct {
	RepoID     string
	RepoName   string
	RepoPath   string
	RepoType   RepoType
	Metadata   map[string]any
	IndexedAt  time.Time
	LastUpdated time.Time
}

// Workspace is a monorepo sub-package.
type Workspace struct {
	RepoID       string
	WorkspaceID  string
	PackageName  string
	WorkspacePath string
	Dependencies []string // other workspace IDs
	Metadata     map[string]any
}

// WorkspaceAlias maps an import specifier pattern to a resolved filesystem
// prefix, used by the ImportExpander (C13) to resolve workspace imports.
type WorkspaceAlias struct {
	RepoID        string
	WorkspaceID   string
	AliasType     string
	AliasPattern  string
	ResolvedPath  string
}

// WorkspaceDependency is an edge between two workspaces in the same repo.
type WorkspaceDependency struct {
	RepoID              string
	SourceWorkspaceID   string
	TargetWorkspaceID   string
	DependencyType      string
	VersionSpecifier    string
}

// APIType enumerates the kinds of API contract an endpoint can expose.
type APIType string

const (
	APITypeREST      APIType = "rest"
	APITypeGraphQL   APIType = "graphql"
	APITypeGRPC      APIType = "grpc"
	APITypeWebSocket APIType = "websocket"
)

// APIEndpoint is attached to a Service.
type APIEndpoint struct {
	ServiceID       string
	Method          string
	Path            string
	APIType         APIType
	RequestSchema   string
	ResponseSchema  string
	ImplFilePath    string
	ImplStartLine   int
	ImplEndLine     int
	Deprecated      bool
}

// Service is a deployable unit exposing API endpoints.
type Service struct {
	RepoID    string
	ServiceID string
	TypeTag   string
	PathRoot  string
	Endpoints []APIEndpoint
}

// CrossRepoDependency is an edge source_repo -> target_repo.
type CrossRepoDependency struct {
	SourceRepoID   string
	TargetRepoID   string
	DependencyType string // service, library, api, shared
	APIContracts   []string
}

// ImportRef is one import declaration on a CodeFile.
type ImportRef struct {
	Source  string
	Symbols []string
	Line    int
}

// CodeFile is the per-file indexed entity (C1/C8 output, C18 row).
type CodeFile struct {
	RepoPath        string
	FilePath        string
	Language        string
	LineCount       int
	FileHash        string
	Summary         string
	SummaryEmbedding []float32
	Imports         []ImportRef
	Exports         []string
	LastModified    time.Time
	RepoID          string
	WorkspaceID     string
	PackageName     string
	ServiceID       string
	IndexedAt       time.Time
}

// ChunkType enumerates the semantic chunk kinds produced by C3.
type ChunkType string

const (
	ChunkFileSummary   ChunkType = "file_summary"
	ChunkImportBlock   ChunkType = "import_block"
	ChunkFunction      ChunkType = "function"
	ChunkClass         ChunkType = "class"
	ChunkBlock         ChunkType = "block"
	ChunkFallback      ChunkType = "fallback"
	ChunkStructureOnly ChunkType = "structure_only"
)

// CodeChunk is a semantically coherent, embeddable span of a CodeFile.
type CodeChunk struct {
	ChunkID     string
	RepoPath    string
	FilePath    string
	ChunkType   ChunkType
	Content     string
	StartLine   int
	EndLine     int
	Language    string
	Embedding   []float32
	TokenCount  int
	Metadata    map[string]any
	RepoID      string
	WorkspaceID string
	PackageName string
	ServiceID   string
	IndexedAt   time.Time
}

// SymbolScope marks whether a symbol is part of a file's public surface.
type SymbolScope string

const (
	ScopeExported SymbolScope = "exported"
	ScopeInternal SymbolScope = "internal"
)

// CodeSymbol is a named top-level declaration (C6 output).
type CodeSymbol struct {
	RepoPath    string
	FilePath    string
	SymbolName  string
	SymbolType  string
	LineNumber  int
	Definition  string
	Embedding   []float32
	Scope       SymbolScope
	RepoID      string
	WorkspaceID string
	PackageName string
	ServiceID   string
}

// TokensFor estimates token count as ceil(bytes/4), the formula named
// throughout spec.md.
func TokensFor(content string) int {
	n := len(content)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
