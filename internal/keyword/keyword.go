// Package keyword implements the exact/keyword index (D2): a process-local,
// rebuildable in-memory bleve index over chunk content and API-contract
// text, used directly by search_api_contracts and as the keyword leg the
// hybrid-search toggle (an Open Question decision, see DESIGN.md) could
// fuse in later without an interface change.
//
// Grounded on the teacher's internal/mcp/exact_searcher.go: same mapping
// shape (keyword-analyzed filterable fields, standard-analyzed searchable
// fields, term vectors for highlighting), same batch-indexing and
// UpdateIncremental conventions, retargeted from ContextChunk to
// model.CodeChunk/model.APIEndpoint.
package keyword

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// Document is one indexed unit: a chunk or an API endpoint flattened to
// searchable text.
type Document struct {
	ID        string
	Text      string
	FilePath  string
	Language  string
	Kind      string // "chunk" or "endpoint"
	ServiceID string
}

// Result is one keyword-search hit.
type Result struct {
	ID         string
	Score      float64
	Highlights []string
}

// Options filters a Search call, mirroring the teacher's
// ExactSearchOptions fields plus a service scope.
type Options struct {
	Language  string
	FilePath  string
	ServiceID string
	Kind      string // "chunk" or "endpoint"; empty matches either
	Limit     int
}

const DefaultLimit = 15

// Index implements D2 over an in-memory bleve index.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	keywordField.Store = true
	keywordField.Index = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("file_path", keywordField)
	doc.AddFieldMappingsAt("language", keywordField)
	doc.AddFieldMappingsAt("kind", keywordField)
	doc.AddFieldMappingsAt("service_id", keywordField)

	im.DefaultMapping = doc
	return im
}

// New builds an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: idx}, nil
}

func toDoc(d Document) map[string]any {
	return map[string]any{
		"text":       d.Text,
		"file_path":  d.FilePath,
		"language":   d.Language,
		"kind":       d.Kind,
		"service_id": d.ServiceID,
	}
}

// IndexChunks bulk-loads code chunks, per the teacher's 1000-doc batch
// size.
func (idx *Index) IndexChunks(ctx context.Context, chunks []model.CodeChunk) error {
	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		docs[i] = Document{ID: c.ChunkID, Text: c.Content, FilePath: c.FilePath, Language: c.Language, Kind: "chunk", ServiceID: c.ServiceID}
	}
	return idx.indexBatch(ctx, docs)
}

// IndexEndpoints bulk-loads API endpoints as searchable text, for
// search_api_contracts.
func (idx *Index) IndexEndpoints(ctx context.Context, endpoints []model.APIEndpoint) error {
	docs := make([]Document, len(endpoints))
	for i, ep := range endpoints {
		id := fmt.Sprintf("%s::%s::%s", ep.ServiceID, ep.Method, ep.Path)
		text := fmt.Sprintf("%s %s %s %s", ep.Method, ep.Path, ep.RequestSchema, ep.ResponseSchema)
		docs[i] = Document{ID: id, Text: text, FilePath: ep.ImplFilePath, Kind: "endpoint", ServiceID: ep.ServiceID}
	}
	return idx.indexBatch(ctx, docs)
}

const batchSize = 1000

func (idx *Index) indexBatch(ctx context.Context, docs []Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	batch := idx.index.NewBatch()
	for i, d := range docs {
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if err := batch.Index(d.ID, toDoc(d)); err != nil {
			return fmt.Errorf("add document %s to batch: %w", d.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := idx.index.Batch(batch); err != nil {
				return fmt.Errorf("execute batch: %w", err)
			}
			batch = idx.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.index.Batch(batch); err != nil {
			return fmt.Errorf("execute final batch: %w", err)
		}
	}
	return nil
}

// UpdateIncremental applies adds/updates and deletes in one batch, the
// teacher's convention for keeping the index in sync with re-indexing.
func (idx *Index) UpdateIncremental(ctx context.Context, upserts []Document, deletedIDs []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	batch := idx.index.NewBatch()
	for _, id := range deletedIDs {
		batch.Delete(id)
	}
	for _, d := range upserts {
		if err := batch.Index(d.ID, toDoc(d)); err != nil {
			return fmt.Errorf("add document %s to batch: %w", d.ID, err)
		}
	}
	return idx.index.Batch(batch)
}

// Search executes a bleve query-string search with AND-combined filters,
// per the teacher's Search method.
func (idx *Index) Search(ctx context.Context, queryStr string, opts Options) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = DefaultLimit
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queries := []bleveQuery.Query{bleve.NewQueryStringQuery(queryStr)}
	if opts.Language != "" {
		q := bleve.NewMatchQuery(opts.Language)
		q.SetField("language")
		queries = append(queries, q)
	}
	if opts.FilePath != "" {
		q := bleve.NewWildcardQuery(opts.FilePath)
		q.SetField("file_path")
		queries = append(queries, q)
	}
	if opts.ServiceID != "" {
		q := bleve.NewMatchQuery(opts.ServiceID)
		q.SetField("service_id")
		queries = append(queries, q)
	}
	if opts.Kind != "" {
		q := bleve.NewMatchQuery(opts.Kind)
		q.SetField("kind")
		queries = append(queries, q)
	}

	var final bleveQuery.Query
	if len(queries) == 1 {
		final = queries[0]
	} else {
		final = bleve.NewConjunctionQuery(queries...)
	}

	req := bleve.NewSearchRequestOptions(final, limit, 0, false)
	style := "html"
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Style = &style
	req.Highlight.Fields = []string{"text"}

	searchResult, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	results := make([]Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		results = append(results, Result{
			ID:         hit.ID,
			Score:      hit.Score,
			Highlights: extractHighlights(hit.Fragments),
		})
	}
	return results, nil
}

// extractHighlights caps highlight snippets per hit, matching the
// teacher's 3-per-result limit to avoid overwhelming the LLM.
func extractHighlights(fragments map[string][]string) []string {
	var out []string
	for _, snippets := range fragments {
		out = append(out, snippets...)
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// Close releases the underlying bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.index.Close()
}
