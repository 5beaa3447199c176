package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// FileHashes implements diff.HashLookup: {file_path -> file_hash} for the
// given repo, grounded on the teacher's change_detector.go DB-side lookup.
func (s *Store) FileHashes(ctx context.Context, repoPath string) (map[string]string, error) {
	rows, err := sq.Select("file_path", "file_hash").
		From("code_files").
		Where(sq.Eq{"repo_path": repoPath}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query file hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var filePath, hash string
		if err := rows.Scan(&filePath, &hash); err != nil {
			return nil, fmt.Errorf("scan file hash row: %w", err)
		}
		hashes[filePath] = hash
	}
	return hashes, rows.Err()
}

// DeleteFile implements diff.Deleter: removes the code_files row plus all
// code_chunks/code_symbols rows (and their vector index entries) keyed by
// (repo_path, file_path), the cascade spec.md C7's apply() requires.
func (s *Store) DeleteFile(ctx context.Context, repoPath, filePath string) error {
	return s.withTx(func(tx *sql.Tx) error {
		chunkIDRows, err := tx.QueryContext(ctx,
			"SELECT chunk_id FROM code_chunks WHERE repo_path = ? AND file_path = ?", repoPath, filePath)
		if err != nil {
			return fmt.Errorf("list chunk ids for deletion: %w", err)
		}
		var chunkIDs []string
		for chunkIDRows.Next() {
			var id string
			if err := chunkIDRows.Scan(&id); err != nil {
				chunkIDRows.Close()
				return fmt.Errorf("scan chunk id: %w", err)
			}
			chunkIDs = append(chunkIDs, id)
		}
		chunkIDRows.Close()
		if err := chunkIDRows.Err(); err != nil {
			return err
		}

		if err := deleteChunkVectors(tx, chunkIDs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM code_chunks WHERE repo_path = ? AND file_path = ?", repoPath, filePath); err != nil {
			return fmt.Errorf("delete code_chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM code_symbols WHERE repo_path = ? AND file_path = ?", repoPath, filePath); err != nil {
			return fmt.Errorf("delete code_symbols: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM code_files WHERE repo_path = ? AND file_path = ?", repoPath, filePath); err != nil {
			return fmt.Errorf("delete code_files: %w", err)
		}
		if err := deleteFileVector(tx, fileKey(repoPath, filePath)); err != nil {
			return err
		}
		return nil
	})
}

// fileKey is the code_files.id / code_files_vec.file_key identifier.
func fileKey(repoPath, filePath string) string {
	return fmt.Sprintf("%s::%s", repoPath, filePath)
}

// WriteFile upserts a single CodeFile row plus its summary embedding and
// full-text content (for code_files_fts).
func (s *Store) WriteFile(ctx context.Context, file model.CodeFile, content string) error {
	return s.withTx(func(tx *sql.Tx) error {
		return s.writeFileTx(ctx, tx, file, content)
	})
}

// WriteFilesBatch upserts many files in one transaction, the batching
// convention grounded on the teacher's WriteFileStatsBatch.
func (s *Store) WriteFilesBatch(ctx context.Context, files []model.CodeFile, contents map[string]string) error {
	if len(files) == 0 {
		return nil
	}
	return s.withTx(func(tx *sql.Tx) error {
		for _, f := range files {
			if err := s.writeFileTx(ctx, tx, f, contents[f.FilePath]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) writeFileTx(ctx context.Context, tx *sql.Tx, file model.CodeFile, content string) error {
	importsJSON, err := marshalJSON(importRefsToAny(file.Imports))
	if err != nil {
		return fmt.Errorf("marshal imports: %w", err)
	}
	exportsJSON, err := marshalJSON(file.Exports)
	if err != nil {
		return fmt.Errorf("marshal exports: %w", err)
	}

	id := fileKey(file.RepoPath, file.FilePath)
	_, err = sq.Insert("code_files").
		Columns(
			"id", "repo_path", "file_path", "file_summary", "summary_embedding", "language",
			"total_lines", "imports_json", "exports_json", "file_hash", "last_modified",
			"repo_id", "workspace_id", "package_name", "service_id", "indexed_at", "content",
		).
		Values(
			id, file.RepoPath, file.FilePath, file.Summary, serializeEmbedding(file.SummaryEmbedding),
			file.Language, file.LineCount, importsJSON, exportsJSON, file.FileHash,
			file.LastModified.UTC().Format(time.RFC3339),
			nullableString(file.RepoID), nullableString(file.WorkspaceID),
			nullableString(file.PackageName), nullableString(file.ServiceID),
			timeOrNow(file.IndexedAt).UTC().Format(time.RFC3339), content,
		).
		Options("OR REPLACE").
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert code_files row for %s: %w", file.FilePath, err)
	}
	return upsertFileVector(tx, id, file.SummaryEmbedding)
}

// FilesByIDs loads full code_files rows by their file_key (repo_path::
// file_path, the identifier QueryFileSimilarity returns), reordered to
// match input order like ChunksByIDs/SymbolsByIDs.
func (s *Store) FilesByIDs(ctx context.Context, keys []string) ([]model.CodeFile, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := sq.Select(
		"id", "repo_path", "file_path", "file_summary", "language", "total_lines",
		"imports_json", "exports_json",
		"file_hash", "last_modified", "repo_id", "workspace_id", "package_name", "service_id", "indexed_at",
	).From("code_files").Where(sq.Eq{"id": keys}).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_files by id: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]model.CodeFile, len(keys))
	for rows.Next() {
		var key, lastModified, indexedAt string
		var importsJSON, exportsJSON sql.NullString
		var repoID, workspaceID, packageName, serviceID sql.NullString
		var f model.CodeFile
		if err := rows.Scan(
			&key, &f.RepoPath, &f.FilePath, &f.Summary, &f.Language, &f.LineCount,
			&importsJSON, &exportsJSON,
			&f.FileHash, &lastModified, &repoID, &workspaceID, &packageName, &serviceID, &indexedAt,
		); err != nil {
			return nil, fmt.Errorf("scan code_files row: %w", err)
		}
		f.LastModified, _ = time.Parse(time.RFC3339, lastModified)
		f.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
		f.RepoID = repoID.String
		f.WorkspaceID = workspaceID.String
		f.PackageName = packageName.String
		f.ServiceID = serviceID.String
		if raw, err := unmarshalJSON[[]model.ImportRef](importsJSON); err == nil {
			f.Imports = raw
		}
		if raw, err := unmarshalJSON[[]string](exportsJSON); err == nil {
			f.Exports = raw
		}
		byKey[key] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.CodeFile, 0, len(keys))
	for _, k := range keys {
		if f, ok := byKey[k]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// FilesByPath loads every code_files row whose file_path matches,
// optionally scoped to one repo_id, for get_file_context (§6) — file_path
// alone is not globally unique across indexed repositories.
func (s *Store) FilesByPath(ctx context.Context, filePath, repoID string) ([]model.CodeFile, error) {
	q := sq.Select("id").From("code_files").Where(sq.Eq{"file_path": filePath})
	if repoID != "" {
		q = q.Where(sq.Eq{"repo_id": repoID})
	}
	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_files by path: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan code_files key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.FilesByIDs(ctx, keys)
}

// FilesInRepo loads every code_files row for one repo_id, used by
// get_file_context's caller search (§6 include_callers): the set of
// candidate files whose imports must be checked against the target path.
func (s *Store) FilesInRepo(ctx context.Context, repoID string) ([]model.CodeFile, error) {
	rows, err := sq.Select("id").From("code_files").Where(sq.Eq{"repo_id": repoID}).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_files for repo: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan code_files key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.FilesByIDs(ctx, keys)
}

func importRefsToAny(refs []model.ImportRef) []map[string]any {
	if len(refs) == 0 {
		return nil
	}
	out := make([]map[string]any, len(refs))
	for i, r := range refs {
		out[i] = map[string]any{"source": r.Source, "symbols": r.Symbols, "line": r.Line}
	}
	return out
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
