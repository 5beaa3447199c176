package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// UpsertRepository writes the repository header row, step 1 of C8's
// index() pipeline ("persist repository header").
func (s *Store) UpsertRepository(ctx context.Context, repo model.Repository) error {
	metaJSON, err := marshalJSON(repo.Metadata)
	if err != nil {
		return fmt.Errorf("marshal repository metadata: %w", err)
	}
	repoType := repo.RepoType
	if repoType == "" {
		repoType = model.RepoTypeMonolithic
	}
	_, err = sq.Insert("repositories").
		Columns("repo_id", "repo_name", "repo_path", "repo_type", "metadata_json", "indexed_at", "last_updated").
		Values(
			repo.RepoID, repo.RepoName, repo.RepoPath, string(repoType), metaJSON,
			timeOrNow(repo.IndexedAt).UTC().Format(time.RFC3339),
			time.Now().UTC().Format(time.RFC3339),
		).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert repositories row for %s: %w", repo.RepoID, err)
	}
	return nil
}

// DeleteRepository cascades through every child entity of a repo_id,
// the explicit-operator-action deletion spec.md §3's Repository entity
// describes.
func (s *Store) DeleteRepository(ctx context.Context, repoID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		chunkRows, err := tx.QueryContext(ctx, "SELECT chunk_id FROM code_chunks WHERE repo_id = ?", repoID)
		if err != nil {
			return fmt.Errorf("list chunk ids for repo deletion: %w", err)
		}
		var chunkIDs []string
		for chunkRows.Next() {
			var id string
			if err := chunkRows.Scan(&id); err != nil {
				chunkRows.Close()
				return err
			}
			chunkIDs = append(chunkIDs, id)
		}
		chunkRows.Close()
		if err := chunkRows.Err(); err != nil {
			return err
		}
		if err := deleteChunkVectors(tx, chunkIDs); err != nil {
			return err
		}

		tables := []string{
			"code_chunks", "code_symbols", "code_files",
			"workspace_aliases", "workspace_dependencies", "workspaces",
			"services",
		}
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE repo_id = ?", table), repoID); err != nil {
				return fmt.Errorf("delete %s rows for repo %s: %w", table, repoID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM cross_repo_dependencies WHERE source_repo_id = ?", repoID); err != nil {
			return fmt.Errorf("delete cross_repo_dependencies rows for repo %s: %w", repoID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM repositories WHERE repo_id = ?", repoID); err != nil {
			return fmt.Errorf("delete repositories row for %s: %w", repoID, err)
		}
		return nil
	})
}

// ListRepositories backs list_indexed_repos (§6).
func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := sq.Select("repo_id", "repo_name", "repo_path", "repo_type", "indexed_at", "last_updated").
		From("repositories").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var out []model.Repository
	for rows.Next() {
		var r model.Repository
		var repoType, indexedAt, lastUpdated string
		if err := rows.Scan(&r.RepoID, &r.RepoName, &r.RepoPath, &repoType, &indexedAt, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan repositories row: %w", err)
		}
		r.RepoType = model.RepoType(repoType)
		r.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
		r.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertWorkspace writes one monorepo workspace row.
func (s *Store) UpsertWorkspace(ctx context.Context, ws model.Workspace) error {
	depsJSON, err := marshalJSON(ws.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal workspace dependencies: %w", err)
	}
	id := fmt.Sprintf("%s::%s", ws.RepoID, ws.WorkspaceID)
	_, err = sq.Insert("workspaces").
		Columns("id", "repo_id", "workspace_id", "package_name", "workspace_path", "dependencies_json").
		Values(id, ws.RepoID, ws.WorkspaceID, ws.PackageName, ws.WorkspacePath, depsJSON).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert workspaces row for %s: %w", ws.WorkspaceID, err)
	}
	return nil
}

// ListWorkspaces backs list_workspaces (§6).
func (s *Store) ListWorkspaces(ctx context.Context, repoID string) ([]model.Workspace, error) {
	rows, err := sq.Select("repo_id", "workspace_id", "package_name", "workspace_path").
		From("workspaces").
		Where(sq.Eq{"repo_id": repoID}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	var out []model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.RepoID, &w.WorkspaceID, &w.PackageName, &w.WorkspacePath); err != nil {
			return nil, fmt.Errorf("scan workspaces row: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpsertWorkspaceAlias writes one import-alias row, used by the
// ImportExpander (C13) to resolve workspace-scoped specifiers like "@app/*".
func (s *Store) UpsertWorkspaceAlias(ctx context.Context, alias model.WorkspaceAlias) error {
	id := fmt.Sprintf("%s::%s::%s", alias.RepoID, alias.WorkspaceID, alias.AliasPattern)
	_, err := sq.Insert("workspace_aliases").
		Columns("id", "repo_id", "workspace_id", "alias_type", "alias_pattern", "resolved_path").
		Values(id, alias.RepoID, alias.WorkspaceID, alias.AliasType, alias.AliasPattern, alias.ResolvedPath).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert workspace_aliases row for %s: %w", alias.AliasPattern, err)
	}
	return nil
}

// AliasesForRepo loads every import alias registered for a repo, for C13
// to resolve specifiers before falling back to relative-path resolution.
func (s *Store) AliasesForRepo(ctx context.Context, repoID string) ([]model.WorkspaceAlias, error) {
	rows, err := sq.Select("repo_id", "workspace_id", "alias_type", "alias_pattern", "resolved_path").
		From("workspace_aliases").
		Where(sq.Eq{"repo_id": repoID}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query workspace_aliases: %w", err)
	}
	defer rows.Close()

	var out []model.WorkspaceAlias
	for rows.Next() {
		var a model.WorkspaceAlias
		if err := rows.Scan(&a.RepoID, &a.WorkspaceID, &a.AliasType, &a.AliasPattern, &a.ResolvedPath); err != nil {
			return nil, fmt.Errorf("scan workspace_aliases row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertWorkspaceDependency writes one source->target workspace edge, read
// back by get_workspace_context (§6).
func (s *Store) UpsertWorkspaceDependency(ctx context.Context, dep model.WorkspaceDependency) error {
	id := fmt.Sprintf("%s::%s::%s", dep.RepoID, dep.SourceWorkspaceID, dep.TargetWorkspaceID)
	_, err := sq.Insert("workspace_dependencies").
		Columns("id", "repo_id", "source_workspace_id", "target_workspace_id", "dependency_type", "version_specifier").
		Values(id, dep.RepoID, dep.SourceWorkspaceID, dep.TargetWorkspaceID, dep.DependencyType, nullableString(dep.VersionSpecifier)).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert workspace_dependencies row for %s->%s: %w", dep.SourceWorkspaceID, dep.TargetWorkspaceID, err)
	}
	return nil
}

// WorkspaceDependencies loads every dependency edge touching workspaceID,
// in either direction: outgoing ("dependencies") when it is the source,
// incoming ("dependents") when it is the target.
func (s *Store) WorkspaceDependencies(ctx context.Context, repoID, workspaceID string) (dependencies, dependents []model.WorkspaceDependency, err error) {
	rows, err := sq.Select("repo_id", "source_workspace_id", "target_workspace_id", "dependency_type", "version_specifier").
		From("workspace_dependencies").
		Where(sq.Eq{"repo_id": repoID}).
		Where(sq.Or{
			sq.Eq{"source_workspace_id": workspaceID},
			sq.Eq{"target_workspace_id": workspaceID},
		}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("query workspace_dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d model.WorkspaceDependency
		var versionSpecifier sql.NullString
		if err := rows.Scan(&d.RepoID, &d.SourceWorkspaceID, &d.TargetWorkspaceID, &d.DependencyType, &versionSpecifier); err != nil {
			return nil, nil, fmt.Errorf("scan workspace_dependencies row: %w", err)
		}
		d.VersionSpecifier = versionSpecifier.String
		if d.SourceWorkspaceID == workspaceID {
			dependencies = append(dependencies, d)
		}
		if d.TargetWorkspaceID == workspaceID {
			dependents = append(dependents, d)
		}
	}
	return dependencies, dependents, rows.Err()
}

// UpsertService writes one service row, including its endpoints as a JSON
// blob the APIEnricher (C14) later decodes.
func (s *Store) UpsertService(ctx context.Context, svc model.Service) error {
	id := fmt.Sprintf("%s::%s", svc.RepoID, svc.ServiceID)
	endpointsJSON, err := marshalJSON(svc.Endpoints)
	if err != nil {
		return fmt.Errorf("marshal service endpoints: %w", err)
	}
	_, err = sq.Insert("services").
		Columns("id", "service_id", "service_name", "repo_id", "service_path", "service_type", "api_endpoints_json").
		Values(id, svc.ServiceID, svc.ServiceID, svc.RepoID, svc.PathRoot, svc.TypeTag, endpointsJSON).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert services row for %s: %w", svc.ServiceID, err)
	}
	return nil
}

// EndpointsForServices loads the API endpoints registered for a set of
// service_ids, the lookup the APIEnricher (C14) needs to resolve
// cross-service calls found in retrieved chunks.
func (s *Store) EndpointsForServices(ctx context.Context, serviceIDs []string) ([]model.APIEndpoint, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	rows, err := sq.Select("service_id", "api_endpoints_json").
		From("services").
		Where(sq.Eq{"service_id": serviceIDs}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query service endpoints: %w", err)
	}
	defer rows.Close()

	var out []model.APIEndpoint
	for rows.Next() {
		var serviceID string
		var endpointsJSON sql.NullString
		if err := rows.Scan(&serviceID, &endpointsJSON); err != nil {
			return nil, fmt.Errorf("scan service endpoints row: %w", err)
		}
		endpoints, err := unmarshalJSON[[]model.APIEndpoint](endpointsJSON)
		if err != nil {
			return nil, fmt.Errorf("unmarshal endpoints for %s: %w", serviceID, err)
		}
		out = append(out, endpoints...)
	}
	return out, rows.Err()
}

// ListServices backs list_services (§6).
func (s *Store) ListServices(ctx context.Context, repoID string) ([]model.Service, error) {
	rows, err := sq.Select("repo_id", "service_id", "service_type", "service_path").
		From("services").
		Where(sq.Eq{"repo_id": repoID}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var svc model.Service
		var servicePath sql.NullString
		if err := rows.Scan(&svc.RepoID, &svc.ServiceID, &svc.TypeTag, &servicePath); err != nil {
			return nil, fmt.Errorf("scan services row: %w", err)
		}
		svc.PathRoot = servicePath.String
		out = append(out, svc)
	}
	return out, rows.Err()
}

// UpsertCrossRepoDependency writes one source->target repo edge, created
// only by index_repository's link_to_repos (detected API calls are never
// persisted), per spec.md §3's CrossRepoDependency entity.
func (s *Store) UpsertCrossRepoDependency(ctx context.Context, dep model.CrossRepoDependency) error {
	id := fmt.Sprintf("%s::%s::%s", dep.SourceRepoID, dep.TargetRepoID, dep.DependencyType)
	contractsJSON, err := marshalJSON(dep.APIContracts)
	if err != nil {
		return fmt.Errorf("marshal api contracts: %w", err)
	}
	_, err = sq.Insert("cross_repo_dependencies").
		Columns("id", "source_repo_id", "target_repo_id", "dependency_type", "api_contracts_json").
		Values(id, dep.SourceRepoID, dep.TargetRepoID, dep.DependencyType, contractsJSON).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert cross_repo_dependencies row for %s->%s: %w", dep.SourceRepoID, dep.TargetRepoID, err)
	}
	return nil
}

// CrossRepoDependenciesForRepo loads every repo-level dependency edge
// touching repoID, for get_service_context.
func (s *Store) CrossRepoDependenciesForRepo(ctx context.Context, repoID string) ([]model.CrossRepoDependency, error) {
	rows, err := sq.Select("source_repo_id", "target_repo_id", "dependency_type", "api_contracts_json").
		From("cross_repo_dependencies").
		Where(sq.Or{
			sq.Eq{"source_repo_id": repoID},
			sq.Eq{"target_repo_id": repoID},
		}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query cross_repo_dependencies: %w", err)
	}
	defer rows.Close()

	var out []model.CrossRepoDependency
	for rows.Next() {
		var d model.CrossRepoDependency
		var contractsJSON sql.NullString
		if err := rows.Scan(&d.SourceRepoID, &d.TargetRepoID, &d.DependencyType, &contractsJSON); err != nil {
			return nil, fmt.Errorf("scan cross_repo_dependencies row: %w", err)
		}
		contracts, err := unmarshalJSON[[]string](contractsJSON)
		if err != nil {
			return nil, fmt.Errorf("unmarshal api contracts: %w", err)
		}
		d.APIContracts = contracts
		out = append(out, d)
	}
	return out, rows.Err()
}
