// Package retrieval implements FileRetriever (C10), ChunkRetriever (C11),
// and SymbolResolver (C12): ANN queries against the store plus the
// conjunctive filter model spec.md §4.C10-C11 describes.
//
// The parallel-ANN-query shape is grounded on the teacher's
// internal/storage/vector_index.go QueryVectorSimilarity and
// Aman-CERP-amanmcp's parallel vector+keyword search (both issue one ANN
// query per candidate set and hydrate rows afterward).
package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// Filters is the conjunctive filter set shared by search_codebase and
// search_api_contracts, per spec.md §4.C10-C11 and §6.
type Filters struct {
	WorkspaceInclude, WorkspaceExclude   []string
	ServiceInclude, ServiceExclude       []string
	RepoInclude, RepoExclude             []string
	PackageInclude, PackageExclude       []string
	ServiceTypeInclude, ServiceTypeExclude []string
	ExcludeRepoTypes                     []model.RepoType
	IncludeReferences                    bool
	IncludeDocumentation                 bool
}

// RepoTypeLookup resolves a repo_id to its RepoType, needed because
// file/chunk/symbol rows carry only a repo_id foreign key.
type RepoTypeLookup func(repoID string) model.RepoType

type entity struct {
	workspaceID, serviceID, repoID, packageName string
}

func passesFilters(e entity, repoType model.RepoType, f Filters) bool {
	if !setIncludes(f.WorkspaceInclude, e.workspaceID) || setExcludes(f.WorkspaceExclude, e.workspaceID) {
		return false
	}
	if !setIncludes(f.ServiceInclude, e.serviceID) || setExcludes(f.ServiceExclude, e.serviceID) {
		return false
	}
	if !setIncludes(f.RepoInclude, e.repoID) || setExcludes(f.RepoExclude, e.repoID) {
		return false
	}
	if !setIncludes(f.PackageInclude, e.packageName) || setExcludes(f.PackageExclude, e.packageName) {
		return false
	}
	for _, excluded := range f.ExcludeRepoTypes {
		if repoType == excluded {
			return false
		}
	}
	if !f.IncludeReferences && repoType == model.RepoTypeReference {
		return false
	}
	if !f.IncludeDocumentation && repoType == model.RepoTypeDocumentation {
		return false
	}
	return true
}

func setIncludes(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	if value == "" {
		return false
	}
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

func setExcludes(set []string, value string) bool {
	if value == "" {
		return false
	}
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// similarity converts a cosine distance (0 = identical) into a
// similarity score (1 = identical), the convention spec.md's
// similarity_threshold options are expressed in.
func similarity(distance float64) float64 {
	return 1 - distance
}

// FileStore is the store surface FileRetriever needs.
type FileStore interface {
	QueryFileSimilarity(queryEmb []float32, limit int) ([]store.VectorMatch, error)
	FilesByIDs(ctx context.Context, keys []string) ([]model.CodeFile, error)
}

// FileMatch is one FileRetriever result.
type FileMatch struct {
	File       model.CodeFile
	Similarity float64
}

// FileRetriever implements C10.
type FileRetriever struct {
	store    FileStore
	repoType RepoTypeLookup
}

func NewFileRetriever(s FileStore, lookup RepoTypeLookup) *FileRetriever {
	return &FileRetriever{store: s, repoType: lookup}
}

// DefaultMaxFiles and DefaultFileSimilarityThreshold are spec.md C10's
// documented defaults.
const (
	DefaultMaxFiles               = 15
	DefaultFileSimilarityThreshold = 0.3
)

// Search runs the raw query vector against file summary vectors, per
// spec.md C10.
func (r *FileRetriever) Search(ctx context.Context, queryVec []float32, threshold float64, maxFiles int, filters Filters) ([]FileMatch, error) {
	if threshold <= 0 {
		threshold = DefaultFileSimilarityThreshold
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	// Overfetch before filtering since conjunctive filters can only
	// shrink the candidate set.
	candidates, err := r.store.QueryFileSimilarity(queryVec, maxFiles*4+20)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	scoreByID := make(map[string]float64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		scoreByID[c.ID] = similarity(c.Distance)
	}

	files, err := r.store.FilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var out []FileMatch
	for _, f := range files {
		score := scoreByID[fileID(f)]
		if score < threshold {
			continue
		}
		e := entity{workspaceID: f.WorkspaceID, serviceID: f.ServiceID, repoID: f.RepoID, packageName: f.PackageName}
		if !passesFilters(e, r.lookupRepoType(f.RepoID), filters) {
			continue
		}
		out = append(out, FileMatch{File: f, Similarity: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].File.FilePath < out[j].File.FilePath
	})
	if len(out) > maxFiles {
		out = out[:maxFiles]
	}
	return out, nil
}

func (r *FileRetriever) lookupRepoType(repoID string) model.RepoType {
	if r.repoType == nil {
		return ""
	}
	return r.repoType(repoID)
}

func fileID(f model.CodeFile) string {
	return f.RepoPath + "::" + f.FilePath
}

// ChunkStore is the store surface ChunkRetriever needs.
type ChunkStore interface {
	QueryChunkSimilarity(queryEmb []float32, limit int) ([]store.VectorMatch, error)
	ChunksByIDs(ctx context.Context, chunkIDs []string) ([]model.CodeChunk, error)
}

// ChunkMatch is one ChunkRetriever result.
type ChunkMatch struct {
	Chunk      model.CodeChunk
	Similarity float64
}

// ChunkRetriever implements C11.
type ChunkRetriever struct {
	store    ChunkStore
	repoType RepoTypeLookup
}

func NewChunkRetriever(s ChunkStore, lookup RepoTypeLookup) *ChunkRetriever {
	return &ChunkRetriever{store: s, repoType: lookup}
}

const (
	DefaultMaxSnippets               = 25
	DefaultChunkSimilarityThreshold = 0.2
)

// Search runs the enhanced vector when present, else the raw vector,
// against chunk vectors, per spec.md C11.
func (r *ChunkRetriever) Search(ctx context.Context, rawVec, enhancedVec []float32, threshold float64, maxSnippets int, filters Filters) ([]ChunkMatch, error) {
	queryVec := rawVec
	if len(enhancedVec) > 0 {
		queryVec = enhancedVec
	}
	if threshold <= 0 {
		threshold = DefaultChunkSimilarityThreshold
	}
	if maxSnippets <= 0 {
		maxSnippets = DefaultMaxSnippets
	}

	candidates, err := r.store.QueryChunkSimilarity(queryVec, maxSnippets*4+20)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	scoreByID := make(map[string]float64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		scoreByID[c.ID] = similarity(c.Distance)
	}

	chunks, err := r.store.ChunksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var out []ChunkMatch
	for _, c := range chunks {
		score := scoreByID[c.ChunkID]
		if score < threshold {
			continue
		}
		e := entity{workspaceID: c.WorkspaceID, serviceID: c.ServiceID, repoID: c.RepoID, packageName: c.PackageName}
		if !passesFilters(e, r.lookupRepoType(c.RepoID), filters) {
			continue
		}
		out = append(out, ChunkMatch{Chunk: c, Similarity: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].Chunk.FilePath != out[j].Chunk.FilePath {
			return out[i].Chunk.FilePath < out[j].Chunk.FilePath
		}
		return out[i].Chunk.StartLine < out[j].Chunk.StartLine
	})
	if len(out) > maxSnippets {
		out = out[:maxSnippets]
	}
	return out, nil
}

func (r *ChunkRetriever) lookupRepoType(repoID string) model.RepoType {
	if r.repoType == nil {
		return ""
	}
	return r.repoType(repoID)
}

// SymbolStore is the store surface SymbolResolver needs.
type SymbolStore interface {
	SymbolsByName(ctx context.Context, name string, scope model.SymbolScope) ([]model.CodeSymbol, error)
}

// ResolvedSymbol is one SymbolResolver result.
type ResolvedSymbol struct {
	Symbol model.CodeSymbol
}

// SymbolResolver implements C12.
type SymbolResolver struct {
	store SymbolStore
}

func NewSymbolResolver(s SymbolStore) *SymbolResolver {
	return &SymbolResolver{store: s}
}

const DefaultMaxUsages = 50

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Resolve tokenizes query into identifier-like words and looks each one
// up, deduplicating results and capping at maxUsages, per spec.md C12.
func (r *SymbolResolver) Resolve(ctx context.Context, query string, scope model.SymbolScope, maxUsages int) ([]ResolvedSymbol, error) {
	if maxUsages <= 0 {
		maxUsages = DefaultMaxUsages
	}

	words := identifierPattern.FindAllString(query, -1)
	seen := make(map[string]bool)
	var out []ResolvedSymbol
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		syms, err := r.store.SymbolsByName(ctx, word, scope)
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			key := s.RepoPath + "::" + s.FilePath + "::" + s.SymbolName + "::" + strings.TrimSpace(s.Definition)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ResolvedSymbol{Symbol: s})
			if len(out) >= maxUsages {
				return out, nil
			}
		}
	}
	return out, nil
}
