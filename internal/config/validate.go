package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProvider   = errors.New("invalid embedding provider")
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")
	ErrInvalidChunkSize  = errors.New("invalid chunk size")
	ErrEmptyEndpoint     = errors.New("empty embedding endpoint")
	ErrInvalidMethod     = errors.New("invalid summary method")
	ErrInvalidStorePath  = errors.New("invalid store path")
)

// Validate checks that cfg is complete and internally consistent.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateStore(&cfg.Store); err != nil {
		errs = append(errs, err)
	}
	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}
	if err := validateSummary(&cfg.Summary); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateStore(cfg *StoreConfig) error {
	if strings.TrimSpace(cfg.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidStorePath)
	}
	if cfg.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions)
	}
	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "mock" && provider != "http" {
		errs = append(errs, fmt.Errorf("%w: must be 'mock' or 'http', got %q", ErrInvalidProvider, cfg.Provider))
	}
	if provider == "http" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required for the http provider", ErrEmptyEndpoint))
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidChunkSize, cfg.BatchSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error

	if cfg.ChunkSizeMin <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk_size_min must be positive, got %d", ErrInvalidChunkSize, cfg.ChunkSizeMin))
	}
	if cfg.ChunkSizeMax < cfg.ChunkSizeMin {
		errs = append(errs, fmt.Errorf("%w: chunk_size_max (%d) must be >= chunk_size_min (%d)", ErrInvalidChunkSize, cfg.ChunkSizeMax, cfg.ChunkSizeMin))
	}
	if cfg.FallbackWindowSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: fallback_window_size must be positive, got %d", ErrInvalidChunkSize, cfg.FallbackWindowSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateSummary(cfg *SummaryConfig) error {
	method := strings.ToLower(cfg.Method)
	if method != "llm" && method != "rule_based" {
		return fmt.Errorf("%w: must be 'llm' or 'rule_based', got %q", ErrInvalidMethod, cfg.Method)
	}
	return nil
}

// joinErrors combines multiple errors into one, in the teacher's
// validation-failed-list format.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
