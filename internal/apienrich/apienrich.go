// Package apienrich implements the APIEnricher (C14): it resolves the
// services touched by a retrieval result against the registered endpoint
// catalog and flags chunk content that looks like a call into another
// service.
//
// There is no direct teacher analogue for this — internal/mcp/models.go
// shapes results but never cross-references an endpoint catalog — so the
// scan itself is built fresh per spec.md C14, in the teacher's small
// struct + pure function style.
package apienrich

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// CrossServiceCall is one detected call-shape in a chunk, per spec.md C14.
type CrossServiceCall struct {
	ChunkID         string
	FilePath        string
	MatchedText     string
	SourceServiceID string
	Endpoint        *model.APIEndpoint
	EndpointFound   bool
}

// APIContext is C14's result, per spec.md C14.
type APIContext struct {
	Endpoints         []model.APIEndpoint
	CrossServiceCalls []CrossServiceCall
	ContractLinks     []string
	APIsByService     map[string][]model.APIEndpoint
	EndpointsByChunk  map[string][]model.APIEndpoint
	Warnings          []string
}

// EndpointStore is the store surface APIEnricher needs.
type EndpointStore interface {
	EndpointsForServices(ctx context.Context, serviceIDs []string) ([]model.APIEndpoint, error)
}

// Enricher implements C14.
type Enricher struct {
	store EndpointStore
}

func New(store EndpointStore) *Enricher {
	return &Enricher{store: store}
}

// urlPattern matches absolute URLs and path-style API routes
// ("/api/v1/users/123", "/v2/orders"), the "URL patterns" spec.md C14
// names.
var urlPattern = regexp.MustCompile(`https?://[^\s"'` + "`" + `)]+|(?:^|[\s"'` + "`" + `(])(/(?:api/)?v?\d*/?[a-zA-Z][a-zA-Z0-9/_\-{}]*)`)

// rpcPattern matches common RPC/HTTP-client invocation idioms: gRPC stub
// calls and chained HTTP-verb client calls.
var rpcPattern = regexp.MustCompile(`\b\w+(?:Client|Stub)\.\w+\(|\.(?:Get|Post|Put|Delete|Patch)\(\s*["'` + "`" + `]`)

// Enrich scans the retrieved chunks' contents and resolves the services
// they belong to against the endpoint catalog, per spec.md C14.
func (e *Enricher) Enrich(ctx context.Context, chunks []model.CodeChunk) (APIContext, error) {
	serviceIDs := distinctServiceIDs(chunks)
	endpoints, err := e.store.EndpointsForServices(ctx, serviceIDs)
	if err != nil {
		return APIContext{}, fmt.Errorf("load endpoints for touched services: %w", err)
	}

	apisByService := make(map[string][]model.APIEndpoint)
	for _, ep := range endpoints {
		apisByService[ep.ServiceID] = append(apisByService[ep.ServiceID], ep)
	}

	endpointsByChunk := make(map[string][]model.APIEndpoint)
	for _, c := range chunks {
		for _, ep := range endpoints {
			if ep.ImplFilePath == c.FilePath && rangesOverlap(ep.ImplStartLine, ep.ImplEndLine, c.StartLine, c.EndLine) {
				endpointsByChunk[c.ChunkID] = append(endpointsByChunk[c.ChunkID], ep)
			}
		}
	}

	var calls []CrossServiceCall
	for _, c := range chunks {
		for _, m := range urlMatches(c.Content) {
			ep, found := matchEndpointPath(m, endpoints)
			call := CrossServiceCall{
				ChunkID: c.ChunkID, FilePath: c.FilePath, MatchedText: m,
				SourceServiceID: c.ServiceID, EndpointFound: found,
			}
			if found {
				epCopy := ep
				call.Endpoint = &epCopy
			}
			calls = append(calls, call)
		}
		for _, m := range rpcPattern.FindAllString(c.Content, -1) {
			calls = append(calls, CrossServiceCall{
				ChunkID: c.ChunkID, FilePath: c.FilePath, MatchedText: strings.TrimSpace(m),
				SourceServiceID: c.ServiceID, EndpointFound: false,
			})
		}
	}

	var warnings []string
	if len(serviceIDs) > 0 && len(endpoints) == 0 {
		warnings = append(warnings, "no registered endpoints for the services touched by this result")
	}

	return APIContext{
		Endpoints:         endpoints,
		CrossServiceCalls: calls,
		ContractLinks:     contractLinks(calls),
		APIsByService:     apisByService,
		EndpointsByChunk:  endpointsByChunk,
		Warnings:          warnings,
	}, nil
}

func distinctServiceIDs(chunks []model.CodeChunk) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range chunks {
		if c.ServiceID == "" || seen[c.ServiceID] {
			continue
		}
		seen[c.ServiceID] = true
		out = append(out, c.ServiceID)
	}
	return out
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	if aStart == 0 && aEnd == 0 {
		return false
	}
	return aStart <= bEnd && bStart <= aEnd
}

func urlMatches(content string) []string {
	raw := urlPattern.FindAllStringSubmatch(content, -1)
	var out []string
	for _, m := range raw {
		if m[0] == "" {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			out = append(out, m[1])
			continue
		}
		out = append(out, m[0])
	}
	return out
}

// matchEndpointPath compares a matched URL/path fragment against each
// registered endpoint's path template, treating "{param}" segments as
// wildcards.
func matchEndpointPath(matched string, endpoints []model.APIEndpoint) (model.APIEndpoint, bool) {
	for _, ep := range endpoints {
		if pathTemplateMatches(ep.Path, matched) {
			return ep, true
		}
	}
	return model.APIEndpoint{}, false
}

func pathTemplateMatches(template, candidate string) bool {
	if template == "" {
		return false
	}
	pattern := regexp.QuoteMeta(template)
	pattern = regexp.MustCompile(`\\\{[^}]+\\\}`).ReplaceAllString(pattern, `[^/]+`)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(candidate)
}

func contractLinks(calls []CrossServiceCall) []string {
	seen := make(map[string]bool)
	var out []string
	for _, call := range calls {
		if call.Endpoint == nil {
			continue
		}
		link := fmt.Sprintf("%s -> %s %s", call.SourceServiceID, call.Endpoint.Method, call.Endpoint.Path)
		if seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}
