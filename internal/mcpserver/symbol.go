package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/model"
)

var findSymbolDefinitionKeys = []string{
	"symbol_name", "include_usages", "scope_filter", "max_usages",
	"include_workspaces", "exclude_workspaces", "include_services", "exclude_services",
	"include_repos", "exclude_repos",
}

func (s *Server) registerFindSymbolDefinition() {
	tool := mcp.NewTool(
		"find_symbol_definition",
		mcp.WithDescription("Look up a symbol's definition(s) by name, optionally its usage sites."),
		mcp.WithString("symbol_name", mcp.Required(), mcp.Description("Exact or partial symbol name")),
		mcp.WithBoolean("include_usages", mcp.Description("Include non-definition usage sites")),
		mcp.WithString("scope_filter", mcp.Description("all|exported|internal, default all")),
		mcp.WithNumber("max_usages", mcp.Description("1-100, default 50")),
	)
	s.mcp.AddTool(tool, s.handleFindSymbolDefinition)
}

func (s *Server) handleFindSymbolDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, findSymbolDefinitionKeys...); err != nil {
		return errorResult(err)
	}

	symbolName, err := argString(argsMap, "symbol_name", true)
	if err != nil {
		return errorResult(err)
	}
	scopeFilter, err := argEnum(argsMap, "scope_filter", "all", "all", "exported", "internal")
	if err != nil {
		return errorResult(err)
	}
	maxUsages, err := argIntRange(argsMap, "max_usages", 50, 1, 100)
	if err != nil {
		return errorResult(err)
	}
	// include_usages is accepted for API compatibility; Resolve always
	// returns every matching symbol (definitions and usages alike are
	// indexed as CodeSymbol rows in this model, there is no separate
	// usage-site table). When the flag is false only the first match is
	// kept, in both the formatted summary and the raw matches.
	includeUsages, err := argBool(argsMap, "include_usages", true)
	if err != nil {
		return errorResult(err)
	}

	scope := model.SymbolScope("")
	switch scopeFilter {
	case "exported":
		scope = model.ScopeExported
	case "internal":
		scope = model.ScopeInternal
	}

	resolved, err := s.deps.Symbols.Resolve(ctx, symbolName, scope, maxUsages)
	if err != nil {
		return nil, fmt.Errorf("resolve symbol: %w", err)
	}

	shown := resolved
	if !includeUsages && len(resolved) > 1 {
		shown = resolved[:1]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "symbol: %s, matches: %d\n", symbolName, len(shown))
	for _, r := range shown {
		fmt.Fprintf(&b, "- %s:%d %s (%s)\n", r.Symbol.FilePath, r.Symbol.LineNumber, r.Symbol.SymbolName, r.Symbol.Scope)
	}
	return textResult(b.String(), map[string]any{"matches": shown})
}
