package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateSchema creates every table, index, and virtual table named in
// spec.md §6's persisted schema, extended with the multi-project tables
// (repositories/workspaces/services/cross_repo_dependencies) SPEC_FULL §4.3
// adds on top of the teacher's single-repo cache.
//
// Grounded on the teacher's internal/storage/schema.go table-list-then-tx
// pattern. The FTS5 table is created inside the transaction; the vec0
// virtual tables and the FTS triggers are created after it commits.
func CreateSchema(db *sql.DB, dimensions int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"repositories", createRepositoriesTable},
		{"workspaces", createWorkspacesTable},
		{"workspace_aliases", createWorkspaceAliasesTable},
		{"workspace_dependencies", createWorkspaceDependenciesTable},
		{"services", createServicesTable},
		{"cross_repo_dependencies", createCrossRepoDependenciesTable},
		{"code_files", createCodeFilesTable},
		{"code_files_fts", createCodeFilesFTSTable},
		{"code_chunks", createCodeChunksTable},
		{"code_symbols", createCodeSymbolsTable},
		{"cache_metadata", createCacheMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", table.name, err)
		}
	}

	for i, idx := range allIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	if err := CreateFileVectorIndex(db, dimensions); err != nil {
		return fmt.Errorf("create code_files vector index: %w", err)
	}
	if err := CreateChunkVectorIndex(db, dimensions); err != nil {
		return fmt.Errorf("create code_chunks vector index: %w", err)
	}
	if err := CreateSymbolVectorIndex(db, dimensions); err != nil {
		return fmt.Errorf("create code_symbols vector index: %w", err)
	}
	if err := createFTSTriggers(db); err != nil {
		return fmt.Errorf("create FTS triggers: %w", err)
	}

	tx, err = db.Begin()
	if err != nil {
		return fmt.Errorf("begin metadata transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrap := `
		INSERT INTO cache_metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?),
			('embedding_dimensions', ?, ?)
	`
	if _, err := tx.Exec(bootstrap, SchemaVersion, now, fmt.Sprint(dimensions), now); err != nil {
		return fmt.Errorf("bootstrap cache_metadata: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion is bumped whenever the DDL below changes shape.
const SchemaVersion = "1.0"

// GetSchemaVersion mirrors the teacher's lookup, returning "0" for a fresh
// database with no cache_metadata table yet.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var exists int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='cache_metadata'",
	).Scan(&exists); err != nil {
		return "", fmt.Errorf("check cache_metadata existence: %w", err)
	}
	if exists == 0 {
		return "0", nil
	}

	var version string
	err := db.QueryRow("SELECT value FROM cache_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in cache_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

const createRepositoriesTable = `
CREATE TABLE repositories (
    repo_id            TEXT PRIMARY KEY,
    repo_name          TEXT NOT NULL,
    repo_path          TEXT NOT NULL,
    repo_type          TEXT NOT NULL DEFAULT 'monolithic',
    workspace_config   TEXT,
    workspace_patterns TEXT,
    metadata_json      TEXT,
    indexed_at         TEXT NOT NULL,
    last_updated       TEXT NOT NULL
)
`

const createWorkspacesTable = `
CREATE TABLE workspaces (
    id                       TEXT PRIMARY KEY,
    repo_id                  TEXT NOT NULL,
    workspace_id             TEXT NOT NULL,
    package_name             TEXT NOT NULL,
    workspace_path           TEXT NOT NULL,
    package_json_path        TEXT,
    version                  TEXT,
    dependencies_json        TEXT,
    dev_dependencies_json    TEXT,
    tsconfig_paths_json      TEXT,
    metadata_json            TEXT,
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE,
    UNIQUE(repo_id, workspace_id)
)
`

const createWorkspaceAliasesTable = `
CREATE TABLE workspace_aliases (
    id            TEXT PRIMARY KEY,
    repo_id       TEXT NOT NULL,
    workspace_id  TEXT NOT NULL,
    alias_type    TEXT NOT NULL,
    alias_pattern TEXT NOT NULL,
    resolved_path TEXT NOT NULL,
    metadata_json TEXT,
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)
`

const createWorkspaceDependenciesTable = `
CREATE TABLE workspace_dependencies (
    id                  TEXT PRIMARY KEY,
    repo_id             TEXT NOT NULL,
    source_workspace_id TEXT NOT NULL,
    target_workspace_id TEXT NOT NULL,
    dependency_type     TEXT NOT NULL,
    version_specifier   TEXT,
    metadata_json       TEXT,
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)
`

const createServicesTable = `
CREATE TABLE services (
    id                TEXT PRIMARY KEY,
    service_id        TEXT NOT NULL,
    service_name      TEXT NOT NULL,
    repo_id           TEXT NOT NULL,
    service_path      TEXT,
    service_type      TEXT NOT NULL,
    api_endpoints_json TEXT,
    dependencies_json TEXT,
    metadata_json     TEXT,
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE,
    UNIQUE(repo_id, service_id)
)
`

const createCrossRepoDependenciesTable = `
CREATE TABLE cross_repo_dependencies (
    id                 TEXT PRIMARY KEY,
    source_repo_id     TEXT NOT NULL,
    target_repo_id     TEXT NOT NULL,
    dependency_type    TEXT NOT NULL,
    source_service_id  TEXT,
    target_service_id  TEXT,
    api_contracts_json TEXT,
    metadata_json      TEXT,
    FOREIGN KEY (source_repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)
`

const createCodeFilesTable = `
CREATE TABLE code_files (
    id                TEXT PRIMARY KEY,
    repo_path         TEXT NOT NULL,
    file_path         TEXT NOT NULL,
    file_summary      TEXT,
    summary_embedding BLOB,
    language          TEXT NOT NULL,
    total_lines       INTEGER NOT NULL DEFAULT 0,
    imports_json      TEXT,
    exports_json      TEXT,
    file_hash         TEXT NOT NULL,
    last_modified     TEXT NOT NULL,
    repo_id           TEXT,
    workspace_id      TEXT,
    package_name      TEXT,
    service_id        TEXT,
    indexed_at        TEXT NOT NULL,
    content           TEXT,
    UNIQUE(repo_path, file_path)
)
`

const createCodeFilesFTSTable = `
CREATE VIRTUAL TABLE code_files_fts USING fts5(
    repo_path UNINDEXED,
    file_path UNINDEXED,
    content,
    tokenize = "unicode61 separators '._'"
)
`

const createCodeChunksTable = `
CREATE TABLE code_chunks (
    id            TEXT PRIMARY KEY,
    chunk_id      TEXT NOT NULL UNIQUE,
    repo_path     TEXT NOT NULL,
    file_path     TEXT NOT NULL,
    chunk_type    TEXT NOT NULL,
    chunk_content TEXT NOT NULL,
    start_line    INTEGER,
    end_line      INTEGER,
    language      TEXT,
    embedding     BLOB,
    token_count   INTEGER NOT NULL DEFAULT 1,
    metadata_json TEXT,
    repo_id       TEXT,
    workspace_id  TEXT,
    package_name  TEXT,
    service_id    TEXT,
    indexed_at    TEXT NOT NULL
)
`

const createCodeSymbolsTable = `
CREATE TABLE code_symbols (
    id           TEXT PRIMARY KEY,
    repo_path    TEXT NOT NULL,
    symbol_name  TEXT NOT NULL,
    symbol_type  TEXT NOT NULL,
    file_path    TEXT NOT NULL,
    line_number  INTEGER NOT NULL,
    definition   TEXT,
    embedding    BLOB,
    scope        TEXT NOT NULL,
    repo_id      TEXT,
    workspace_id TEXT,
    package_name TEXT,
    service_id   TEXT,
    UNIQUE(repo_path, file_path, symbol_name, line_number)
)
`

const createCacheMetadataTable = `
CREATE TABLE cache_metadata (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

func allIndexes() []string {
	return []string{
		"CREATE INDEX idx_code_files_repo_path_file_path ON code_files(repo_path, file_path)",
		"CREATE INDEX idx_code_files_repo_id ON code_files(repo_id)",
		"CREATE INDEX idx_code_files_workspace_id ON code_files(workspace_id)",
		"CREATE INDEX idx_code_files_service_id ON code_files(service_id)",

		"CREATE INDEX idx_code_chunks_repo_path_file_path ON code_chunks(repo_path, file_path)",
		"CREATE INDEX idx_code_chunks_chunk_type ON code_chunks(chunk_type)",
		"CREATE INDEX idx_code_chunks_repo_id ON code_chunks(repo_id)",
		"CREATE INDEX idx_code_chunks_workspace_id ON code_chunks(workspace_id)",
		"CREATE INDEX idx_code_chunks_service_id ON code_chunks(service_id)",

		"CREATE INDEX idx_code_symbols_symbol_name ON code_symbols(symbol_name)",
		"CREATE INDEX idx_code_symbols_repo_path_file_path ON code_symbols(repo_path, file_path)",
		"CREATE INDEX idx_code_symbols_repo_id ON code_symbols(repo_id)",
		"CREATE INDEX idx_code_symbols_scope ON code_symbols(scope)",

		"CREATE INDEX idx_workspaces_repo_id ON workspaces(repo_id)",
		"CREATE INDEX idx_services_repo_id ON services(repo_id)",
		"CREATE INDEX idx_cross_repo_deps_source ON cross_repo_dependencies(source_repo_id)",
		"CREATE INDEX idx_cross_repo_deps_target ON cross_repo_dependencies(target_repo_id)",
	}
}

// createFTSTriggers keeps code_files_fts synced with code_files.content,
// mirroring the teacher's files_fts trigger set.
func createFTSTriggers(db *sql.DB) error {
	triggers := []string{
		`CREATE TRIGGER code_files_fts_insert AFTER INSERT ON code_files
		BEGIN
			DELETE FROM code_files_fts WHERE repo_path = NEW.repo_path AND file_path = NEW.file_path;
			INSERT INTO code_files_fts(repo_path, file_path, content)
			SELECT NEW.repo_path, NEW.file_path, NEW.content
			WHERE NEW.content IS NOT NULL;
		END`,
		`CREATE TRIGGER code_files_fts_update AFTER UPDATE OF content ON code_files
		BEGIN
			DELETE FROM code_files_fts WHERE repo_path = OLD.repo_path AND file_path = OLD.file_path;
			INSERT INTO code_files_fts(repo_path, file_path, content)
			SELECT NEW.repo_path, NEW.file_path, NEW.content
			WHERE NEW.content IS NOT NULL;
		END`,
		`CREATE TRIGGER code_files_fts_delete AFTER DELETE ON code_files
		WHEN OLD.content IS NOT NULL
		BEGIN
			DELETE FROM code_files_fts WHERE repo_path = OLD.repo_path AND file_path = OLD.file_path;
		END`,
	}
	for i, trig := range triggers {
		if _, err := db.Exec(trig); err != nil {
			return fmt.Errorf("create trigger %d: %w", i+1, err)
		}
	}
	return nil
}
