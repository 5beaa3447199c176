package parser

import (
	"bytes"
	"regexp"
)

// Regex-based recovery used when no structural parser is registered for a
// language, or the structural parser declines. Recovers function
// signatures, class/interface headers, and import/export lines from the
// common-language shapes spec.md C2 names.
var (
	reFuncGo         = regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	reFuncJSPy       = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?(?:function|def)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	reClass          = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:abstract\s+)?class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reInterface      = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reImportJS       = regexp.MustCompile(`(?m)^\s*import\s+.*?from\s+['"]([^'"]+)['"]`)
	reImportPy       = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([A-Za-z0-9_.]+)`)
	reImportGo       = regexp.MustCompile(`(?m)^\s*"([A-Za-z0-9_./-]+)"\s*$`)
	reExportJS       = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:const|function|class|interface|let|var)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

func lineOf(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte{'\n'}) + 1
}

// regexFallback never fails: it always returns success=true with
// used_fallback=true, possibly with zero nodes, matching spec.md C2's
// "success is true whenever either path produced usable output" — an empty
// but well-formed result is usable output.
func regexFallback(content []byte, relativePath, lang string) Result {
	var nodes []Node
	var imports []Import
	var exports []Export

	for _, m := range reFuncGo.FindAllSubmatchIndex(content, -1) {
		nodes = append(nodes, Node{
			Kind:      KindFunction,
			Name:      string(content[m[2]:m[3]]),
			StartLine: lineOf(content, m[0]),
			EndLine:   lineOf(content, m[0]),
			RawText:   string(content[m[0]:m[1]]),
		})
	}
	for _, m := range reFuncJSPy.FindAllSubmatchIndex(content, -1) {
		nodes = append(nodes, Node{
			Kind:      KindFunction,
			Name:      string(content[m[2]:m[3]]),
			StartLine: lineOf(content, m[0]),
			EndLine:   lineOf(content, m[0]),
			RawText:   string(content[m[0]:m[1]]),
		})
	}
	for _, m := range reClass.FindAllSubmatchIndex(content, -1) {
		nodes = append(nodes, Node{
			Kind:      KindClass,
			Name:      string(content[m[2]:m[3]]),
			StartLine: lineOf(content, m[0]),
			EndLine:   lineOf(content, m[0]),
			RawText:   string(content[m[0]:m[1]]),
		})
	}
	for _, m := range reInterface.FindAllSubmatchIndex(content, -1) {
		nodes = append(nodes, Node{
			Kind:      KindInterface,
			Name:      string(content[m[2]:m[3]]),
			StartLine: lineOf(content, m[0]),
			EndLine:   lineOf(content, m[0]),
			RawText:   string(content[m[0]:m[1]]),
		})
	}

	switch lang {
	case "python":
		for _, m := range reImportPy.FindAllSubmatchIndex(content, -1) {
			imports = append(imports, Import{Source: string(content[m[2]:m[3]]), Line: lineOf(content, m[0])})
		}
	case "go":
		for _, m := range reImportGo.FindAllSubmatchIndex(content, -1) {
			imports = append(imports, Import{Source: string(content[m[2]:m[3]]), Line: lineOf(content, m[0])})
		}
	default:
		for _, m := range reImportJS.FindAllSubmatchIndex(content, -1) {
			imports = append(imports, Import{Source: string(content[m[2]:m[3]]), Line: lineOf(content, m[0])})
		}
	}

	for _, m := range reExportJS.FindAllSubmatchIndex(content, -1) {
		exports = append(exports, Export{Symbols: []string{string(content[m[2]:m[3]])}, Line: lineOf(content, m[0])})
	}

	return Result{
		Success:      true,
		UsedFallback: true,
		Nodes:        nodes,
		Imports:      imports,
		Exports:      exports,
	}
}
