// Package config defines codegraph's configuration surface: the knobs the
// CLI's index and serve commands need to construct every SPEC_FULL.md
// collaborator (store, embedder, chunker, summarizer, discoverer, symbol
// extractor).
//
// Grounded on the teacher's internal/config/config.go (nested
// mapstructure-tagged sub-configs plus a Default() factory), rebuilt around
// this domain's own collaborators rather than the teacher's embedding/
// paths/chunking/storage shape.
package config

import "time"

// Config is the root configuration object, populated by Loader.Load.
type Config struct {
	Store      StoreConfig      `mapstructure:"store"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Chunking   ChunkingConfig   `mapstructure:"chunking"`
	Summary    SummaryConfig    `mapstructure:"summary"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	Symbols    SymbolsConfig    `mapstructure:"symbols"`
	Log        LogConfig        `mapstructure:"log"`
}

// StoreConfig configures internal/store's SQLite-backed vector store.
type StoreConfig struct {
	Path       string `mapstructure:"path"`
	Dimensions int    `mapstructure:"dimensions"`
}

// EmbeddingConfig configures internal/embedding's Embedder facade.
type EmbeddingConfig struct {
	// Provider selects the backend: "http" (NewHTTPProvider) or "mock"
	// (NewMockProvider, for index --dry-run and local experimentation).
	Provider       string        `mapstructure:"provider"`
	Endpoint       string        `mapstructure:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	CacheEntries   int           `mapstructure:"cache_entries"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// ChunkingConfig configures internal/chunker's structural chunker.
type ChunkingConfig struct {
	ChunkSizeMin       int `mapstructure:"chunk_size_min"`
	ChunkSizeMax       int `mapstructure:"chunk_size_max"`
	FallbackWindowSize int `mapstructure:"fallback_window_size"`
	LargeFileThreshold int `mapstructure:"large_file_threshold"`
}

// SummaryConfig configures internal/summary's Generator.
type SummaryConfig struct {
	// Method is "llm" or "rule_based" (summary.MethodLLM / MethodRuleBased).
	// "llm" with no LLM client configured falls back to rule-based per file.
	Method    string        `mapstructure:"method"`
	HeadLines int           `mapstructure:"head_lines"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DiscoveryConfig configures internal/discovery's file walk.
type DiscoveryConfig struct {
	RespectGitignore   bool     `mapstructure:"respect_gitignore"`
	IncludeMarkdown    bool     `mapstructure:"include_markdown"`
	MaxFileLines       int      `mapstructure:"max_file_lines"`
	LanguagesAllowlist []string `mapstructure:"languages_allowlist"`
	IgnoreGlobs        []string `mapstructure:"ignore_globs"`
	SecretGlobs        []string `mapstructure:"secret_globs"`
}

// SymbolsConfig configures internal/symbols' definition extractor.
type SymbolsConfig struct {
	MaxDefinitionChars int `mapstructure:"max_definition_chars"`
}

// LogConfig configures the shared slog.Logger every command builds.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Default returns codegraph's built-in defaults, the bottom of the
// priority chain Loader.Load applies (env > file > defaults).
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:       ".codegraph/index.db",
			Dimensions: 1024,
		},
		Embedding: EmbeddingConfig{
			Provider:       "mock",
			Endpoint:       "",
			Timeout:        30 * time.Second,
			BatchSize:      64,
			MaxRetries:     3,
			RetryBaseDelay: 200 * time.Millisecond,
			CacheEntries:   10000,
			CacheTTL:       30 * time.Minute,
		},
		Chunking: ChunkingConfig{
			ChunkSizeMin:       10,
			ChunkSizeMax:       100,
			FallbackWindowSize: 60,
			LargeFileThreshold: 5000,
		},
		Summary: SummaryConfig{
			Method:    "rule_based",
			HeadLines: 100,
			Timeout:   10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			RespectGitignore: true,
			IncludeMarkdown:  true,
			MaxFileLines:     0,
			IgnoreGlobs: []string{
				"**/.git/**", "**/node_modules/**", "**/vendor/**",
				"**/dist/**", "**/build/**",
			},
			SecretGlobs: []string{
				"**/.env", "**/.env.*", "**/*secret*", "**/*.pem", "**/*.key",
			},
		},
		Symbols: SymbolsConfig{
			MaxDefinitionChars: 4000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
