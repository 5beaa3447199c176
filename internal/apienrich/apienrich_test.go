package apienrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/model"
)

type fakeEndpointStore struct {
	byService map[string][]model.APIEndpoint
}

func (f *fakeEndpointStore) EndpointsForServices(ctx context.Context, serviceIDs []string) ([]model.APIEndpoint, error) {
	var out []model.APIEndpoint
	for _, id := range serviceIDs {
		out = append(out, f.byService[id]...)
	}
	return out, nil
}

func TestEnrichGroupsEndpointsByService(t *testing.T) {
	store := &fakeEndpointStore{byService: map[string][]model.APIEndpoint{
		"billing": {{ServiceID: "billing", Method: "GET", Path: "/v1/invoices/{id}"}},
	}}
	e := New(store)

	chunks := []model.CodeChunk{{ChunkID: "c1", FilePath: "a.go", ServiceID: "billing", Content: "package main"}}
	ctx, err := e.Enrich(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, ctx.APIsByService["billing"], 1)
}

func TestEnrichDetectsMatchedEndpointCall(t *testing.T) {
	store := &fakeEndpointStore{byService: map[string][]model.APIEndpoint{
		"billing": {{ServiceID: "billing", Method: "GET", Path: "/v1/invoices/{id}"}},
	}}
	e := New(store)

	chunks := []model.CodeChunk{{
		ChunkID: "c1", FilePath: "a.go", ServiceID: "orders",
		Content: `resp, err := http.Get("https://billing.internal/v1/invoices/42")`,
	}}
	ctx, err := e.Enrich(context.Background(), chunks)
	require.NoError(t, err)
	require.NotEmpty(t, ctx.CrossServiceCalls)

	var found bool
	for _, call := range ctx.CrossServiceCalls {
		if call.EndpointFound {
			found = true
			require.Equal(t, "billing", call.Endpoint.ServiceID)
		}
	}
	require.True(t, found)
}

func TestEnrichFlagsUnmatchedCallAsEndpointNotFound(t *testing.T) {
	store := &fakeEndpointStore{byService: map[string][]model.APIEndpoint{}}
	e := New(store)

	chunks := []model.CodeChunk{{
		ChunkID: "c1", FilePath: "a.go", ServiceID: "orders",
		Content: `resp, err := http.Get("https://unknown.internal/v3/widgets/7")`,
	}}
	ctx, err := e.Enrich(context.Background(), chunks)
	require.NoError(t, err)
	// Both the URL literal and the `.Get("` client call are detected.
	require.Len(t, ctx.CrossServiceCalls, 2)
	require.False(t, ctx.CrossServiceCalls[0].EndpointFound)
}

func TestEnrichMapsEndpointsByChunkWhenImplOverlapsChunkRange(t *testing.T) {
	store := &fakeEndpointStore{byService: map[string][]model.APIEndpoint{
		"billing": {{ServiceID: "billing", Method: "GET", Path: "/v1/invoices", ImplFilePath: "handler.go", ImplStartLine: 10, ImplEndLine: 20}},
	}}
	e := New(store)

	chunks := []model.CodeChunk{{ChunkID: "c1", FilePath: "handler.go", ServiceID: "billing", StartLine: 5, EndLine: 25}}
	ctx, err := e.Enrich(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, ctx.EndpointsByChunk["c1"], 1)
}
