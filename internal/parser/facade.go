package parser

import (
	"path/filepath"
	"strings"
)

var extToLanguage = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".py":   "python",
	".rb":   "ruby",
	".java": "java",
	".php":  "php",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
}

// Facade dispatches to a registered per-language Parser, falling back to
// the regex extractor when no parser is registered or the parser errors.
// This is the "Parser facade" named C2 in spec.md.
type Facade struct {
	byLanguage map[string]Parser
}

// NewFacade builds a facade with no parsers registered; Register wires one
// in per language.
func NewFacade() *Facade {
	return &Facade{byLanguage: make(map[string]Parser)}
}

// Register wires a concrete Parser for the language it reports.
func (f *Facade) Register(p Parser) {
	f.byLanguage[p.Language()] = p
}

// DetectLanguage maps a relative path's extension to a language tag.
func DetectLanguage(relativePath string) string {
	ext := strings.ToLower(filepath.Ext(relativePath))
	return extToLanguage[ext]
}

// Parse implements the C2 operation: parse(content, relative_path) ->
// ParseResult.
func (f *Facade) Parse(content []byte, relativePath string) Result {
	lang := DetectLanguage(relativePath)

	if p, ok := f.byLanguage[lang]; ok {
		result, err := p.Parse(content, relativePath)
		if err == nil && result.Success {
			result.UsedFallback = false
			return result
		}
	}

	return regexFallback(content, relativePath, lang)
}
