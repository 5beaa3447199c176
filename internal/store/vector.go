package store

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// InitVectorExtension registers sqlite-vec with all future connections.
// Must be called once, before opening any database handle.
func InitVectorExtension() {
	sqlite_vec.Auto()
}

// CreateChunkVectorIndex creates the vec0 virtual table backing ANN search
// over code_chunks.embedding, grounded on the teacher's CreateVectorIndex.
func CreateChunkVectorIndex(db *sql.DB, dimensions int) error {
	ddl := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS code_chunks_vec USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d]
		)
	`, dimensions)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create code_chunks_vec: %w", err)
	}
	return nil
}

// CreateFileVectorIndex mirrors CreateChunkVectorIndex for code_files'
// file-summary embeddings, used by the FileRetriever (C10).
func CreateFileVectorIndex(db *sql.DB, dimensions int) error {
	ddl := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS code_files_vec USING vec0(
			file_key TEXT PRIMARY KEY,
			embedding float[%d]
		)
	`, dimensions)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create code_files_vec: %w", err)
	}
	return nil
}

// CreateSymbolVectorIndex mirrors CreateChunkVectorIndex for code_symbols.
func CreateSymbolVectorIndex(db *sql.DB, dimensions int) error {
	ddl := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS code_symbols_vec USING vec0(
			symbol_key TEXT PRIMARY KEY,
			embedding float[%d]
		)
	`, dimensions)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create code_symbols_vec: %w", err)
	}
	return nil
}

// upsertChunkVector deletes then reinserts, since vec0 tables don't support
// INSERT OR REPLACE (same upsert-by-delete pattern as the teacher's
// UpdateVectorIndex).
func upsertChunkVector(tx *sql.Tx, chunkID string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	if _, err := tx.Exec("DELETE FROM code_chunks_vec WHERE chunk_id = ?", chunkID); err != nil {
		return fmt.Errorf("delete stale vector for chunk %s: %w", chunkID, err)
	}
	embBytes, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding for chunk %s: %w", chunkID, err)
	}
	if _, err := tx.Exec("INSERT INTO code_chunks_vec (chunk_id, embedding) VALUES (?, ?)", chunkID, embBytes); err != nil {
		return fmt.Errorf("insert vector for chunk %s: %w", chunkID, err)
	}
	return nil
}

func upsertSymbolVector(tx *sql.Tx, symbolKey string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	if _, err := tx.Exec("DELETE FROM code_symbols_vec WHERE symbol_key = ?", symbolKey); err != nil {
		return fmt.Errorf("delete stale vector for symbol %s: %w", symbolKey, err)
	}
	embBytes, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding for symbol %s: %w", symbolKey, err)
	}
	if _, err := tx.Exec("INSERT INTO code_symbols_vec (symbol_key, embedding) VALUES (?, ?)", symbolKey, embBytes); err != nil {
		return fmt.Errorf("insert vector for symbol %s: %w", symbolKey, err)
	}
	return nil
}

func upsertFileVector(tx *sql.Tx, fileKey string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	if _, err := tx.Exec("DELETE FROM code_files_vec WHERE file_key = ?", fileKey); err != nil {
		return fmt.Errorf("delete stale vector for file %s: %w", fileKey, err)
	}
	embBytes, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding for file %s: %w", fileKey, err)
	}
	if _, err := tx.Exec("INSERT INTO code_files_vec (file_key, embedding) VALUES (?, ?)", fileKey, embBytes); err != nil {
		return fmt.Errorf("insert vector for file %s: %w", fileKey, err)
	}
	return nil
}

func deleteFileVector(tx *sql.Tx, fileKey string) error {
	if _, err := tx.Exec("DELETE FROM code_files_vec WHERE file_key = ?", fileKey); err != nil {
		return fmt.Errorf("delete vector for file %s: %w", fileKey, err)
	}
	return nil
}

func deleteChunkVectors(tx *sql.Tx, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("DELETE FROM code_chunks_vec WHERE chunk_id = ?")
	if err != nil {
		return fmt.Errorf("prepare chunk vector delete: %w", err)
	}
	defer stmt.Close()
	for _, id := range chunkIDs {
		if _, err := stmt.Exec(id); err != nil {
			return fmt.Errorf("delete vector for chunk %s: %w", id, err)
		}
	}
	return nil
}

// VectorMatch is one ANN result: an identifier and its cosine distance
// (lower is more similar).
type VectorMatch struct {
	ID       string
	Distance float64
}

// QueryChunkSimilarity performs cosine-distance KNN over code_chunks_vec,
// grounded on the teacher's QueryVectorSimilarity.
func QueryChunkSimilarity(db *sql.DB, queryEmb []float32, limit int) ([]VectorMatch, error) {
	return queryVectorTable(db, "code_chunks_vec", "chunk_id", queryEmb, limit)
}

// QuerySymbolSimilarity mirrors QueryChunkSimilarity for code_symbols_vec.
func QuerySymbolSimilarity(db *sql.DB, queryEmb []float32, limit int) ([]VectorMatch, error) {
	return queryVectorTable(db, "code_symbols_vec", "symbol_key", queryEmb, limit)
}

// QueryFileSimilarity mirrors QueryChunkSimilarity for code_files_vec.
func QueryFileSimilarity(db *sql.DB, queryEmb []float32, limit int) ([]VectorMatch, error) {
	return queryVectorTable(db, "code_files_vec", "file_key", queryEmb, limit)
}

// QueryFileSimilarity is the (*Store)-bound form of the package-level
// QueryFileSimilarity, for callers that only hold a *Store (the
// FileRetriever, C10).
func (s *Store) QueryFileSimilarity(queryEmb []float32, limit int) ([]VectorMatch, error) {
	return QueryFileSimilarity(s.db, queryEmb, limit)
}

// QueryChunkSimilarity is the (*Store)-bound form, for the ChunkRetriever
// (C11).
func (s *Store) QueryChunkSimilarity(queryEmb []float32, limit int) ([]VectorMatch, error) {
	return QueryChunkSimilarity(s.db, queryEmb, limit)
}

// QuerySymbolSimilarity is the (*Store)-bound form, for the SymbolResolver
// (C12).
func (s *Store) QuerySymbolSimilarity(queryEmb []float32, limit int) ([]VectorMatch, error) {
	return QuerySymbolSimilarity(s.db, queryEmb, limit)
}

func queryVectorTable(db *sql.DB, table, idColumn string, queryEmb []float32, limit int) ([]VectorMatch, error) {
	queryBytes, err := sqlite_vec.SerializeFloat32(queryEmb)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s, vec_distance_cosine(embedding, ?) as distance
		FROM %s
		ORDER BY distance
		LIMIT ?
	`, idColumn, table)

	rows, err := db.Query(query, queryBytes, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var results []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.ID, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan %s result: %w", table, err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}
