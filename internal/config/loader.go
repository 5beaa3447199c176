package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration from file and environment variables.
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a configuration loader rooted at rootDir, searching for
// a ".codegraph.yaml" in rootDir and then in rootDir/.codegraph/.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewLoaderWithFile creates a loader that reads configFile explicitly
// instead of searching rootDir, for the CLI's --config flag.
func NewLoaderWithFile(rootDir, configFile string) Loader {
	return &loader{rootDir: rootDir, configFile: configFile}
}

// Load loads configuration with the following priority (highest to
// lowest): environment variables (CODEGRAPH_*), config file, defaults.
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(".codegraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
		v.AddConfigPath(filepath.Join(l.rootDir, ".codegraph"))
	}

	v.SetEnvPrefix("CODEGRAPH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"store.path", "store.dimensions",
		"embedding.provider", "embedding.endpoint", "embedding.timeout",
		"embedding.batch_size", "embedding.max_retries",
		"summary.method",
		"discovery.respect_gitignore", "discovery.include_markdown",
		"discovery.max_file_lines",
		"log.level", "log.format",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %q: %w", key, err)
		}
	}

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.dimensions", d.Store.Dimensions)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)
	v.SetDefault("embedding.max_retries", d.Embedding.MaxRetries)
	v.SetDefault("embedding.retry_base_delay", d.Embedding.RetryBaseDelay)
	v.SetDefault("embedding.cache_entries", d.Embedding.CacheEntries)
	v.SetDefault("embedding.cache_ttl", d.Embedding.CacheTTL)

	v.SetDefault("chunking.chunk_size_min", d.Chunking.ChunkSizeMin)
	v.SetDefault("chunking.chunk_size_max", d.Chunking.ChunkSizeMax)
	v.SetDefault("chunking.fallback_window_size", d.Chunking.FallbackWindowSize)
	v.SetDefault("chunking.large_file_threshold", d.Chunking.LargeFileThreshold)

	v.SetDefault("summary.method", d.Summary.Method)
	v.SetDefault("summary.head_lines", d.Summary.HeadLines)
	v.SetDefault("summary.timeout", d.Summary.Timeout)

	v.SetDefault("discovery.respect_gitignore", d.Discovery.RespectGitignore)
	v.SetDefault("discovery.include_markdown", d.Discovery.IncludeMarkdown)
	v.SetDefault("discovery.max_file_lines", d.Discovery.MaxFileLines)
	v.SetDefault("discovery.languages_allowlist", d.Discovery.LanguagesAllowlist)
	v.SetDefault("discovery.ignore_globs", d.Discovery.IgnoreGlobs)
	v.SetDefault("discovery.secret_globs", d.Discovery.SecretGlobs)

	v.SetDefault("symbols.max_definition_chars", d.Symbols.MaxDefinitionChars)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
