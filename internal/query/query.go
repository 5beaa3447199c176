// Package query implements the QueryProcessor (C9): classifying a raw
// search query and generating its raw and enhanced embeddings.
//
// No single teacher file implements this; the closed-set keyword/symbol
// detection and natural-language-phrase checks are built in the idiom of
// Aman-CERP-amanmcp's internal/search/patterns.go regex-classifier (a
// secondary grounding source for this pack), retargeted from its
// LEXICAL/SEMANTIC/MIXED taxonomy to spec.md's code_snippet/natural_language
// one. Concurrent raw+enhanced embedding generation is grounded on the same
// repo's engine.parallelSearch errgroup shape.
package query

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/codegraph-dev/codegraph/internal/embedding"
)

// Type is the detected query type, per spec.md C9.
type Type string

const (
	TypeCodeSnippet     Type = "code_snippet"
	TypeNaturalLanguage Type = "natural_language"
)

// keywordSet is the closed set of code keywords spec.md C9 names.
var keywordSet = map[string]bool{
	"function": true, "const": true, "class": true, "import": true,
	"export": true, "return": true, "async": true, "await": true,
	"interface": true, "struct": true, "func": true, "var": true,
}

// symbolSet is the closed set of code-symbol tokens spec.md C9 names.
var symbolSet = []string{"=>", "===", "!==", "++", "--", "&&", "||", "::"}

var structuralChars = "{}()[]=<>"

var nlPhrasePattern = regexp.MustCompile(`(?i)^(how|what|where|why|when|which|can|does|is|are|should|explain|describe|show|find|list)\b`)

// conceptEntry pairs a concept with its code keywords.
type conceptEntry struct {
	concept  string
	keywords []string
}

// conceptKeywords is a fixed-order concept-to-keywords map, used to build
// the deterministic enhanced-query appendix. A slice, not a map, so
// iteration order (and therefore the appendix text) never varies.
var conceptKeywords = []conceptEntry{
	{"error", []string{"error", "err", "exception", "panic", "recover"}},
	{"auth", []string{"auth", "token", "session", "login", "credential"}},
	{"cache", []string{"cache", "ttl", "evict", "lru"}},
	{"test", []string{"test", "mock", "assert", "fixture"}},
	{"config", []string{"config", "env", "flag", "option"}},
	{"http", []string{"http", "request", "response", "handler", "route"}},
	{"db", []string{"database", "query", "sql", "transaction", "migration"}},
}

// Embedding is the QueryEmbedding return type, per spec.md C9.
type Embedding struct {
	QueryText         string
	QueryType         Type
	Vector            []float32
	EnhancedVector    []float32
	GenerationTimeMS  int64
}

// Processor implements C9.
type Processor struct {
	embedder *embedding.Embedder
}

func New(embedder *embedding.Embedder) *Processor {
	return &Processor{embedder: embedder}
}

// Process implements process(query) -> QueryEmbedding.
func (p *Processor) Process(ctx context.Context, raw string) (Embedding, error) {
	qType := classify(raw)
	preprocessed := preprocess(raw, qType)
	appendix := enhancementAppendix(preprocessed)

	result := Embedding{QueryText: preprocessed, QueryType: qType}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Vector = p.embedder.EmbedText(gctx, embedding.ModeQuery, preprocessed)
		return nil
	})
	if appendix != "" {
		enhanced := preprocessed + "\nCode context: " + appendix
		g.Go(func() error {
			result.EnhancedVector = p.embedder.EmbedText(gctx, embedding.ModeQuery, enhanced)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Embedding{}, err
	}
	return result, nil
}

// classify implements the type-detection rule of spec.md C9.
func classify(query string) Type {
	lower := strings.ToLower(query)

	keywordCount := 0
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if keywordSet[word] {
			keywordCount++
		}
	}

	symbolCount := 0
	for _, sym := range symbolSet {
		symbolCount += strings.Count(query, sym)
	}

	structural := 0
	for _, r := range query {
		if strings.ContainsRune(structuralChars, r) {
			structural++
		}
	}
	density := 0.0
	if len(query) > 0 {
		density = float64(structural) / float64(len(query))
	}

	if keywordCount >= 2 || symbolCount >= 1 || density > 0.1 {
		return TypeCodeSnippet
	}
	// Both branches below resolve to natural_language today; kept
	// separate because the NL-phrase/"?" check is its own named rule.
	if nlPhrasePattern.MatchString(strings.TrimSpace(query)) || strings.Contains(query, "?") {
		return TypeNaturalLanguage
	}
	return TypeNaturalLanguage
}

// preprocess trims, collapses whitespace, and for natural-language
// queries strips a trailing sentence terminator, per spec.md C9.
func preprocess(query string, qType Type) string {
	trimmed := strings.TrimSpace(query)
	collapsed := strings.Join(strings.Fields(trimmed), " ")
	if qType == TypeNaturalLanguage {
		collapsed = strings.TrimRight(collapsed, ".!?")
	}
	return collapsed
}

// enhancementAppendix builds the deterministic "Code context: <keywords>"
// appendix from the fixed concept map, returning "" when no concept
// matches (so no enhanced embedding is generated).
func enhancementAppendix(query string) string {
	lower := strings.ToLower(query)
	var matched []string
	for _, entry := range conceptKeywords {
		if strings.Contains(lower, entry.concept) {
			matched = append(matched, entry.keywords...)
		}
	}
	if len(matched) == 0 {
		return ""
	}
	return strings.Join(matched, " ")
}
