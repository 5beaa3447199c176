package mcpserver

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/assembler"
	"github.com/codegraph-dev/codegraph/internal/graphindex"
	"github.com/codegraph-dev/codegraph/internal/model"
)

var getFileContextKeys = []string{
	"file_path", "repo_id", "include_callers", "include_callees", "import_depth",
	"include_workspaces", "exclude_workspaces", "include_services", "exclude_services",
	"include_repos", "exclude_repos", "include_references", "include_documentation", "exclude_repo_types",
}

func (s *Server) registerGetFileContext() {
	tool := mcp.NewTool(
		"get_file_context",
		mcp.WithDescription("Return one file's summary, symbols, and import graph, optionally its callers and callees."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path of the file to look up")),
		mcp.WithString("repo_id", mcp.Description("Disambiguates file_path across repos sharing the same relative path")),
		mcp.WithBoolean("include_callers", mcp.Description("Include files that import this one")),
		mcp.WithBoolean("include_callees", mcp.Description("Include files this one imports")),
		mcp.WithNumber("import_depth", mcp.Description("1-3, default 3")),
	)
	s.mcp.AddTool(tool, s.handleGetFileContext)
}

func (s *Server) handleGetFileContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, getFileContextKeys...); err != nil {
		return errorResult(err)
	}

	filePath, err := argString(argsMap, "file_path", true)
	if err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", false)
	if err != nil {
		return errorResult(err)
	}
	includeCallers, err := argBool(argsMap, "include_callers", false)
	if err != nil {
		return errorResult(err)
	}
	includeCallees, err := argBool(argsMap, "include_callees", false)
	if err != nil {
		return errorResult(err)
	}
	importDepth, err := argIntRange(argsMap, "import_depth", graphindex.DefaultImportDepth, 1, 3)
	if err != nil {
		return errorResult(err)
	}

	matches, err := s.deps.Store.FilesByPath(ctx, filePath, repoID)
	if err != nil {
		return nil, fmt.Errorf("look up file: %w", err)
	}
	if len(matches) == 0 {
		return textResult(fmt.Sprintf("no indexed file found at %s", filePath), map[string]any{"files": []model.CodeFile{}})
	}
	target := matches[0]

	var imports []assembler.ImportChain
	if includeCallees {
		chains, cerr := s.deps.Imports.Expand(ctx, target.RepoPath, []string{target.FilePath}, graphindex.Options{Depth: importDepth})
		if cerr != nil {
			return nil, fmt.Errorf("expand callees: %w", cerr)
		}
		imports = toAssemblerChains(chains)
	}

	var callers []model.CodeFile
	if includeCallers && target.RepoID != "" {
		siblings, serr := s.deps.Store.FilesInRepo(ctx, target.RepoID)
		if serr != nil {
			return nil, fmt.Errorf("list repo files for caller search: %w", serr)
		}
		callers = findCallers(target, siblings)
	}

	assembled := s.deps.Assembler.Assemble(assembler.Input{
		Files: append([]model.CodeFile{target}, callers...), Imports: imports,
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %d lines)\n%s\n", target.FilePath, target.Language, target.LineCount, target.Summary)
	if len(callers) > 0 {
		fmt.Fprintf(&b, "callers: %d\n", len(callers))
	}
	if len(imports) > 0 {
		fmt.Fprintf(&b, "callees: %d\n", len(imports))
	}
	raw := map[string]any{"file": target, "callers": callers, "imports": imports, "context": assembled}
	return textResult(b.String(), raw)
}

// findCallers is a best-effort reverse-import search: a file is a caller
// of target when one of its import specifiers resolves to target's base
// name. Exact specifier resolution (aliases, relative paths) is the
// ImportExpander's job in the forward direction; this direction has no
// equivalent in spec.md, so it is approximated rather than exact.
func findCallers(target model.CodeFile, candidates []model.CodeFile) []model.CodeFile {
	targetBase := strings.TrimSuffix(path.Base(target.FilePath), path.Ext(target.FilePath))
	var out []model.CodeFile
	for _, c := range candidates {
		if c.FilePath == target.FilePath {
			continue
		}
		for _, imp := range c.Imports {
			if strings.Contains(imp.Source, targetBase) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
