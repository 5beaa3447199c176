package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/codegraph-dev/codegraph/internal/model"
)

// WriteChunksBatch upserts chunks and their vector index entries in one
// transaction, grounded on the teacher's ChunkWriter.WriteChunksIncremental
// delete-by-file-then-insert pattern.
func (s *Store) WriteChunksBatch(ctx context.Context, chunks []model.CodeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return s.withTx(func(tx *sql.Tx) error {
		for _, c := range chunks {
			metaJSON, err := marshalJSON(c.Metadata)
			if err != nil {
				return fmt.Errorf("marshal chunk metadata for %s: %w", c.ChunkID, err)
			}
			id := fmt.Sprintf("%s::%s", c.FilePath, c.ChunkID)
			_, err = sq.Insert("code_chunks").
				Columns(
					"id", "chunk_id", "repo_path", "file_path", "chunk_type", "chunk_content",
					"start_line", "end_line", "language", "embedding", "token_count", "metadata_json",
					"repo_id", "workspace_id", "package_name", "service_id", "indexed_at",
				).
				Values(
					id, c.ChunkID, c.RepoPath, c.FilePath, string(c.ChunkType), c.Content,
					c.StartLine, c.EndLine, c.Language, serializeEmbedding(c.Embedding), maxInt1(c.TokenCount), metaJSON,
					nullableString(c.RepoID), nullableString(c.WorkspaceID),
					nullableString(c.PackageName), nullableString(c.ServiceID),
					timeOrNow(c.IndexedAt).UTC().Format(time.RFC3339),
				).
				Options("OR REPLACE").
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("upsert code_chunks row %s: %w", c.ChunkID, err)
			}
			if err := upsertChunkVector(tx, c.ChunkID, c.Embedding); err != nil {
				return err
			}
		}
		return nil
	})
}

// ChunksByIDs loads full chunk rows for a set of chunk_ids, reordered to
// match the input order (the ANN distance order from code_chunks_vec),
// used by retrieval (C11) after an ANN lookup returns bare ids.
func (s *Store) ChunksByIDs(ctx context.Context, chunkIDs []string) ([]model.CodeChunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	rows, err := sq.Select(
		"chunk_id", "repo_path", "file_path", "chunk_type", "chunk_content",
		"start_line", "end_line", "language", "token_count", "metadata_json",
		"repo_id", "workspace_id", "package_name", "service_id",
	).
		From("code_chunks").
		Where(sq.Eq{"chunk_id": chunkIDs}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_chunks by id: %w", err)
	}
	defer rows.Close()

	var out []model.CodeChunk
	for rows.Next() {
		var c model.CodeChunk
		var startLine, endLine sql.NullInt64
		var repoID, workspaceID, packageName, serviceID, metaJSON sql.NullString
		var chunkType string
		if err := rows.Scan(
			&c.ChunkID, &c.RepoPath, &c.FilePath, &chunkType, &c.Content,
			&startLine, &endLine, &c.Language, &c.TokenCount, &metaJSON,
			&repoID, &workspaceID, &packageName, &serviceID,
		); err != nil {
			return nil, fmt.Errorf("scan code_chunks row: %w", err)
		}
		c.ChunkType = model.ChunkType(chunkType)
		c.StartLine = int(startLine.Int64)
		c.EndLine = int(endLine.Int64)
		c.RepoID = repoID.String
		c.WorkspaceID = workspaceID.String
		c.PackageName = packageName.String
		c.ServiceID = serviceID.String
		meta, err := unmarshalJSON[map[string]any](metaJSON)
		if err != nil {
			return nil, fmt.Errorf("unmarshal chunk metadata for %s: %w", c.ChunkID, err)
		}
		c.Metadata = meta
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]model.CodeChunk, len(out))
	for _, c := range out {
		byID[c.ChunkID] = c
	}
	ordered := make([]model.CodeChunk, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// ChunksByFilePaths loads every chunk belonging to the given
// "repo_path::file_path" composite keys, for find_cross_service_calls
// (§6): the APIEnricher needs the chunk content of one source file, not
// an ANN neighborhood.
func (s *Store) ChunksByFilePaths(ctx context.Context, fileKeys []string) ([]model.CodeChunk, error) {
	if len(fileKeys) == 0 {
		return nil, nil
	}
	idRows, err := sq.Select("chunk_id").
		From("code_chunks").
		Where(sq.Eq{"repo_path || '::' || file_path": fileKeys}).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query code_chunks ids by file path: %w", err)
	}
	var chunkIDs []string
	for idRows.Next() {
		var id string
		if err := idRows.Scan(&id); err != nil {
			idRows.Close()
			return nil, fmt.Errorf("scan code_chunks id: %w", err)
		}
		chunkIDs = append(chunkIDs, id)
	}
	idRows.Close()
	if err := idRows.Err(); err != nil {
		return nil, err
	}
	return s.ChunksByIDs(ctx, chunkIDs)
}

func maxInt1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
