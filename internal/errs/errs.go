// Package errs implements the typed error-kind taxonomy from spec.md §7: a
// Kind classification plus a two-tier (headline + resolution hint) message,
// so callers can distinguish fatal-at-init kinds from per-request/per-file
// kinds without parsing strings.
package errs

import "fmt"

// Kind classifies an error per spec.md §7's taxonomy.
type Kind string

const (
	KindConfig             Kind = "config_error"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindStoreSchemaMismatch Kind = "store_schema_mismatch"
	KindEmbedderUnavailable Kind = "embedder_unavailable"
	KindSummaryUnavailable  Kind = "summary_unavailable"
	KindDiscoveryFailed     Kind = "discovery_failed"
	KindParseFailed         Kind = "parse_failed"
	KindPersistFailed       Kind = "persist_failed"
	KindQueryValidation     Kind = "query_validation_error"
	KindQueryExecution      Kind = "query_execution_error"
)

// Fatal reports whether errors of this kind abort the current top-level
// operation (init, a single index request, a single query request) rather
// than being captured in stats/warnings.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfig, KindStoreUnavailable, KindStoreSchemaMismatch,
		KindEmbedderUnavailable, KindSummaryUnavailable, KindDiscoveryFailed,
		KindQueryValidation:
		return true
	default:
		return false
	}
}

// Error is codegraph's error type: a Kind, a short headline, an optional
// resolution hint, and an optional wrapped cause.
type Error struct {
	Kind     Kind
	Headline string
	Hint     string
	Cause    error
}

func New(kind Kind, headline string) *Error {
	return &Error{Kind: kind, Headline: headline}
}

func Wrap(kind Kind, headline string, cause error) *Error {
	return &Error{Kind: kind, Headline: headline, Cause: cause}
}

func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Headline, e.Hint)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Headline, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Headline)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, defaulting to the empty Kind otherwise.
func KindOf(err error) Kind {
	var e *Error
	if asError(err, &e) {
		return e.Kind
	}
	return ""
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
