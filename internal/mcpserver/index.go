package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/orchestrator"
	"github.com/codegraph-dev/codegraph/internal/summary"
)

var indexRepositoryKeys = []string{
	"repo_path", "incremental", "languages", "include_markdown", "respect_gitignore",
	"max_file_size", "summary_method", "repo_id", "repo_name", "repo_type",
	"detect_workspaces", "detect_services", "link_to_repos", "version", "force_reindex", "metadata",
}

func (s *Server) registerIndexRepository() {
	tool := mcp.NewTool(
		"index_repository",
		mcp.WithDescription("Index (or re-index) a repository: discover files, chunk, summarize, embed, extract symbols, and persist."),
		mcp.WithString("repo_path", mcp.Required(), mcp.Description("Filesystem path to the repository root")),
		mcp.WithBoolean("incremental", mcp.Description("Only process changed files, default true")),
		mcp.WithArray("languages", mcp.Description("Restrict discovery to these languages")),
		mcp.WithBoolean("include_markdown", mcp.Description("Index markdown/documentation files")),
		mcp.WithBoolean("respect_gitignore", mcp.Description("Apply the configured discovery ignore globs, default true; no .gitignore file is read")),
		mcp.WithNumber("max_file_size", mcp.Description("100-10000 lines, per-file cap")),
		mcp.WithString("summary_method", mcp.Description("llm|rule-based, default rule-based")),
		mcp.WithString("repo_id", mcp.Description("Stable identifier; defaults to repo_path")),
		mcp.WithString("repo_name", mcp.Description("Display name; defaults to repo_id")),
		mcp.WithString("repo_type", mcp.Description("monolithic|microservice|monorepo|library|reference|documentation")),
		mcp.WithArray("link_to_repos", mcp.Description("repo_ids to register as cross_repo_dependencies targets")),
		mcp.WithBoolean("force_reindex", mcp.Description("Ignore incremental state and reprocess every file")),
	)
	s.mcp.AddTool(tool, s.handleIndexRepository)
}

func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, indexRepositoryKeys...); err != nil {
		return errorResult(err)
	}

	repoPath, err := argString(argsMap, "repo_path", true)
	if err != nil {
		return errorResult(err)
	}
	incremental, err := argBool(argsMap, "incremental", true)
	if err != nil {
		return errorResult(err)
	}
	forceReindex, err := argBool(argsMap, "force_reindex", false)
	if err != nil {
		return errorResult(err)
	}
	if forceReindex {
		incremental = false
	}
	languages, err := argStringArray(argsMap, "languages")
	if err != nil {
		return errorResult(err)
	}
	includeMarkdown, err := argBool(argsMap, "include_markdown", false)
	if err != nil {
		return errorResult(err)
	}
	respectGitignore, err := argBool(argsMap, "respect_gitignore", true)
	if err != nil {
		return errorResult(err)
	}
	maxFileSize, err := argIntRange(argsMap, "max_file_size", 2000, 100, 10000)
	if err != nil {
		return errorResult(err)
	}
	summaryMethod, err := argEnum(argsMap, "summary_method", "rule-based", "llm", "rule-based")
	if err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", false)
	if err != nil {
		return errorResult(err)
	}
	if repoID == "" {
		repoID = repoPath
	}
	repoName, err := argString(argsMap, "repo_name", false)
	if err != nil {
		return errorResult(err)
	}
	if repoName == "" {
		repoName = repoID
	}
	repoTypeStr, err := argEnum(argsMap, "repo_type", string(model.RepoTypeMonolithic),
		string(model.RepoTypeMonolithic), string(model.RepoTypeMicroservice), string(model.RepoTypeMonorepo),
		string(model.RepoTypeLibrary), string(model.RepoTypeReference), string(model.RepoTypeDocumentation))
	if err != nil {
		return errorResult(err)
	}
	linkToRepos, err := argStringArray(argsMap, "link_to_repos")
	if err != nil {
		return errorResult(err)
	}
	metadata, err := argMap(argsMap, "metadata")
	if err != nil {
		return errorResult(err)
	}

	method := summary.MethodRuleBased
	if summaryMethod == "llm" {
		method = summary.MethodLLM
	}

	opts := orchestrator.Options{
		RepoID: repoID, RepoName: repoName, RepoType: model.RepoType(repoTypeStr),
		Metadata: toAnyMap(metadata), Incremental: incremental,
		RespectGitignore: respectGitignore, IncludeMarkdown: includeMarkdown,
		MaxFileLines: maxFileSize, LanguagesAllowlist: languages, SummaryMethod: method,
	}

	stats, err := s.deps.Orchestrator.Index(ctx, repoPath, opts)
	if err != nil {
		return nil, fmt.Errorf("index repository: %w", err)
	}

	for _, target := range linkToRepos {
		dep := model.CrossRepoDependency{SourceRepoID: repoID, TargetRepoID: target, DependencyType: "linked"}
		if lerr := s.deps.Store.UpsertCrossRepoDependency(ctx, dep); lerr != nil {
			return nil, fmt.Errorf("link repo %s -> %s: %w", repoID, target, lerr)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "indexed %s: %d/%d files processed (%d failed), %d chunks, %d symbols, took %s\n",
		repoID, stats.FilesProcessed, stats.FilesTotal, stats.FilesFailed, stats.ChunksTotal, stats.SymbolsExtracted, stats.TotalTime)
	for _, e := range stats.Errors {
		fmt.Fprintf(&b, "error: %s\n", e.Error())
	}
	return textResult(b.String(), stats)
}

func toAnyMap(m map[string]interface{}) map[string]any {
	if m == nil {
		return nil
	}
	return m
}

var deleteRepositoryKeys = []string{"repo_ids"}

func (s *Server) registerDeleteRepository() {
	tool := mcp.NewTool(
		"delete_repository",
		mcp.WithDescription("Delete one or more indexed repositories and every row they own."),
		mcp.WithArray("repo_ids", mcp.Required(), mcp.Description("At least one repo_id to delete")),
	)
	s.mcp.AddTool(tool, s.handleDeleteRepository)
}

func (s *Server) handleDeleteRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, deleteRepositoryKeys...); err != nil {
		return errorResult(err)
	}
	repoIDs, err := argStringArray(argsMap, "repo_ids")
	if err != nil {
		return errorResult(err)
	}
	if len(repoIDs) == 0 {
		return errorResult(invalidArg("repo_ids must contain at least one entry"))
	}

	deleted := make([]string, 0, len(repoIDs))
	for _, id := range repoIDs {
		if err := s.deps.Store.DeleteRepository(ctx, id); err != nil {
			return nil, fmt.Errorf("delete repository %s: %w", id, err)
		}
		deleted = append(deleted, id)
	}

	return textResult(fmt.Sprintf("deleted %d repositories", len(deleted)), map[string]any{"deleted": deleted, "at": time.Now().UTC()})
}
