package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// WriteSymbolsBatch upserts symbols and their vector index entries,
// mirroring WriteChunksBatch's delete-by-key-then-insert upsert shape.
func (s *Store) WriteSymbolsBatch(ctx context.Context, symbols []model.CodeSymbol) error {
	if len(symbols) == 0 {
		return nil
	}
	return s.withTx(func(tx *sql.Tx) error {
		for _, sym := range symbols {
			key := symbolKey(sym)
			_, err := sq.Insert("code_symbols").
				Columns(
					"id", "repo_path", "symbol_name", "symbol_type", "file_path", "line_number",
					"definition", "embedding", "scope", "repo_id", "workspace_id", "package_name", "service_id",
				).
				Values(
					key, sym.RepoPath, sym.SymbolName, sym.SymbolType, sym.FilePath, sym.LineNumber,
					sym.Definition, serializeEmbedding(sym.Embedding), string(sym.Scope),
					nullableString(sym.RepoID), nullableString(sym.WorkspaceID),
					nullableString(sym.PackageName), nullableString(sym.ServiceID),
				).
				Options("OR REPLACE").
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("upsert code_symbols row for %s: %w", sym.SymbolName, err)
			}
			if err := upsertSymbolVector(tx, key, sym.Embedding); err != nil {
				return err
			}
		}
		return nil
	})
}

func symbolKey(sym model.CodeSymbol) string {
	return fmt.Sprintf("%s::%s::%s::%d", sym.RepoPath, sym.FilePath, sym.SymbolName, sym.LineNumber)
}

// SymbolsByName finds symbols matching an exact name, optionally scoped,
// for find_symbol_definition (§6).
func (s *Store) SymbolsByName(ctx context.Context, name string, scope model.SymbolScope) ([]model.CodeSymbol, error) {
	builder := sq.Select(
		"repo_path", "symbol_name", "symbol_type", "file_path", "line_number",
		"definition", "scope", "repo_id", "workspace_id", "package_name", "service_id",
	).From("code_symbols").Where(sq.Eq{"symbol_name": name})
	if scope != "" {
		builder = builder.Where(sq.Eq{"scope": string(scope)})
	}

	rows, err := builder.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_symbols by name: %w", err)
	}
	defer rows.Close()

	var out []model.CodeSymbol
	for rows.Next() {
		var sym model.CodeSymbol
		var scopeStr string
		var repoID, workspaceID, packageName, serviceID sql.NullString
		if err := rows.Scan(
			&sym.RepoPath, &sym.SymbolName, &sym.SymbolType, &sym.FilePath, &sym.LineNumber,
			&sym.Definition, &scopeStr, &repoID, &workspaceID, &packageName, &serviceID,
		); err != nil {
			return nil, fmt.Errorf("scan code_symbols row: %w", err)
		}
		sym.Scope = model.SymbolScope(scopeStr)
		sym.RepoID = repoID.String
		sym.WorkspaceID = workspaceID.String
		sym.PackageName = packageName.String
		sym.ServiceID = serviceID.String
		out = append(out, sym)
	}
	return out, rows.Err()
}

// SymbolsByIDs loads full symbol rows by their symbol_key (the identifier
// QuerySymbolSimilarity returns), reordered to match input order.
func (s *Store) SymbolsByIDs(ctx context.Context, keys []string) ([]model.CodeSymbol, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := sq.Select(
		"id", "repo_path", "symbol_name", "symbol_type", "file_path", "line_number",
		"definition", "scope", "repo_id", "workspace_id", "package_name", "service_id",
	).From("code_symbols").Where(sq.Eq{"id": keys}).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_symbols by id: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]model.CodeSymbol, len(keys))
	for rows.Next() {
		var key string
		var sym model.CodeSymbol
		var scopeStr string
		var repoID, workspaceID, packageName, serviceID sql.NullString
		if err := rows.Scan(
			&key, &sym.RepoPath, &sym.SymbolName, &sym.SymbolType, &sym.FilePath, &sym.LineNumber,
			&sym.Definition, &scopeStr, &repoID, &workspaceID, &packageName, &serviceID,
		); err != nil {
			return nil, fmt.Errorf("scan code_symbols row: %w", err)
		}
		sym.Scope = model.SymbolScope(scopeStr)
		sym.RepoID = repoID.String
		sym.WorkspaceID = workspaceID.String
		sym.PackageName = packageName.String
		sym.ServiceID = serviceID.String
		byKey[key] = sym
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.CodeSymbol, 0, len(keys))
	for _, k := range keys {
		if sym, ok := byKey[k]; ok {
			ordered = append(ordered, sym)
		}
	}
	return ordered, nil
}
