// Package chunker implements the Chunker (C3): turning a parser.Result into
// the ordered semantic chunks spec.md C3 names (file summary, import block,
// function, class, merged block, fallback windows, structure-only).
//
// The merge-small-blocks-until-target-size algorithm is grounded on the
// teacher's internal/indexer/chunker.go paragraph-accumulation loop in
// splitByParagraphs, generalized from markdown paragraphs to top-level
// parse nodes.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
)

// Config controls chunk sizing thresholds, per spec.md C3.
type Config struct {
	ChunkSizeMin       int // lines; blocks smaller than this are merged
	ChunkSizeMax       int // lines; merged blocks never exceed this
	FallbackWindowSize int // lines per fallback window
	LargeFileThreshold int // lines; above this, emit structure_only only
}

func DefaultConfig() Config {
	return Config{
		ChunkSizeMin:       10,
		ChunkSizeMax:       100,
		FallbackWindowSize: 60,
		LargeFileThreshold: 5000,
	}
}

// Result is the ChunkingResult named in spec.md C3.
type Result struct {
	Chunks []model.CodeChunk
}

// Chunker implements C3.
type Chunker struct {
	cfg Config
}

func New(cfg Config) *Chunker {
	return &Chunker{cfg: cfg}
}

// Chunk implements chunk(file, parse, content) -> ChunkingResult.
func (c *Chunker) Chunk(file model.CodeFile, parse parser.Result, content string) Result {
	lines := strings.Split(content, "\n")
	n := len(lines)

	if n > c.cfg.LargeFileThreshold {
		return Result{Chunks: []model.CodeChunk{c.structureOnlyChunk(file, parse, content, n)}}
	}

	var chunks []model.CodeChunk
	chunks = append(chunks, c.fileSummaryChunk(file, content, n))

	importChunk, importLineSet := c.importBlockChunk(file, parse, lines)
	if importChunk != nil {
		chunks = append(chunks, *importChunk)
	}

	if parse.UsedFallback && !hasNodes(parse.Nodes) {
		chunks = append(chunks, c.fallbackWindows(file, lines, importLineSet)...)
		return Result{Chunks: chunks}
	}

	chunks = append(chunks, c.nodeChunks(file, parse.Nodes, lines, importLineSet)...)
	return Result{Chunks: chunks}
}

func hasNodes(nodes []parser.Node) bool { return len(nodes) > 0 }

func (c *Chunker) fileSummaryChunk(file model.CodeFile, content string, lineCount int) model.CodeChunk {
	return model.CodeChunk{
		ChunkID:   uuid.NewString(),
		RepoPath:  file.RepoPath,
		FilePath:  file.FilePath,
		ChunkType: model.ChunkFileSummary,
		Content:   content,
		StartLine: 1,
		EndLine:   lineCount,
		Language:  file.Language,
		TokenCount: max1(model.TokensFor(content)),
		Metadata:  map[string]any{"total_lines": lineCount},
	}
}

func (c *Chunker) importBlockChunk(file model.CodeFile, parse parser.Result, lines []string) (*model.CodeChunk, map[int]bool) {
	lineSet := map[int]bool{}
	if len(parse.Imports) == 0 {
		return nil, lineSet
	}
	minLine, maxLine := parse.Imports[0].Line, parse.Imports[0].Line
	for _, imp := range parse.Imports {
		if imp.Line < minLine {
			minLine = imp.Line
		}
		if imp.Line > maxLine {
			maxLine = imp.Line
		}
		lineSet[imp.Line] = true
	}
	body := extractLines(lines, minLine, maxLine)
	names := make([]string, 0, len(parse.Imports))
	for _, imp := range parse.Imports {
		names = append(names, imp.Source)
	}
	chunk := model.CodeChunk{
		ChunkID:   uuid.NewString(),
		RepoPath:  file.RepoPath,
		FilePath:  file.FilePath,
		ChunkType: model.ChunkImportBlock,
		Content:   body,
		StartLine: minLine,
		EndLine:   maxLine,
		Language:  file.Language,
		TokenCount: max1(model.TokensFor(body)),
		Metadata:  map[string]any{"imports": names},
	}
	return &chunk, lineSet
}

// nodeChunks builds function/class chunks for top-level nodes, merging
// adjacent small blocks and leaving any remaining body lines to the merge
// pass below.
func (c *Chunker) nodeChunks(file model.CodeFile, nodes []parser.Node, lines []string, importLines map[int]bool) []model.CodeChunk {
	var chunks []model.CodeChunk
	var pendingSmall []parser.Node

	flushSmall := func() {
		if len(pendingSmall) == 0 {
			return
		}
		chunks = append(chunks, c.mergeIntoBlocks(file, pendingSmall, lines)...)
		pendingSmall = nil
	}

	for _, node := range nodes {
		size := node.EndLine - node.StartLine + 1
		switch node.Kind {
		case parser.KindFunction, parser.KindMethod:
			if size < c.cfg.ChunkSizeMin {
				pendingSmall = append(pendingSmall, node)
				continue
			}
			flushSmall()
			chunks = append(chunks, c.functionChunk(file, node, lines))
		case parser.KindClass, parser.KindInterface:
			flushSmall()
			chunks = append(chunks, c.classChunk(file, node, lines))
		default:
			if size < c.cfg.ChunkSizeMin {
				pendingSmall = append(pendingSmall, node)
			}
		}
	}
	flushSmall()
	return chunks
}

func (c *Chunker) functionChunk(file model.CodeFile, node parser.Node, lines []string) model.CodeChunk {
	body := extractLines(lines, node.StartLine, node.EndLine)
	return model.CodeChunk{
		ChunkID:   uuid.NewString(),
		RepoPath:  file.RepoPath,
		FilePath:  file.FilePath,
		ChunkType: model.ChunkFunction,
		Content:   body,
		StartLine: node.StartLine,
		EndLine:   node.EndLine,
		Language:  file.Language,
		TokenCount: max1(model.TokensFor(body)),
		Metadata: map[string]any{
			"function_names": []string{node.Name},
			"has_async":      node.IsAsync,
			"complexity":     node.Complexity,
		},
	}
}

func (c *Chunker) classChunk(file model.CodeFile, node parser.Node, lines []string) model.CodeChunk {
	body := extractLines(lines, node.StartLine, node.EndLine)
	methodNames := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		methodNames = append(methodNames, child.Name)
	}
	return model.CodeChunk{
		ChunkID:   uuid.NewString(),
		RepoPath:  file.RepoPath,
		FilePath:  file.FilePath,
		ChunkType: model.ChunkClass,
		Content:   body,
		StartLine: node.StartLine,
		EndLine:   node.EndLine,
		Language:  file.Language,
		TokenCount: max1(model.TokensFor(body)),
		Metadata: map[string]any{
			"class_names":  []string{node.Name},
			"method_names": methodNames,
		},
	}
}

// mergeIntoBlocks accumulates adjacent small nodes into block chunks up to
// ChunkSizeMax lines, the algorithm grounded on the teacher's
// splitByParagraphs accumulation loop.
func (c *Chunker) mergeIntoBlocks(file model.CodeFile, nodes []parser.Node, lines []string) []model.CodeChunk {
	var out []model.CodeChunk
	var current []parser.Node
	currentLines := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		start := current[0].StartLine
		end := current[len(current)-1].EndLine
		body := extractLines(lines, start, end)
		names := make([]string, 0, len(current))
		for _, n := range current {
			names = append(names, n.Name)
		}
		out = append(out, model.CodeChunk{
			ChunkID:   uuid.NewString(),
			RepoPath:  file.RepoPath,
			FilePath:  file.FilePath,
			ChunkType: model.ChunkBlock,
			Content:   body,
			StartLine: start,
			EndLine:   end,
			Language:  file.Language,
			TokenCount: max1(model.TokensFor(body)),
			Metadata:  map[string]any{"names": names},
		})
		current = nil
		currentLines = 0
	}

	for _, node := range nodes {
		size := node.EndLine - node.StartLine + 1
		if currentLines > 0 && currentLines+size > c.cfg.ChunkSizeMax {
			flush()
		}
		current = append(current, node)
		currentLines += size
	}
	flush()
	return out
}

// fallbackWindows emits fixed-size windows over the body, skipping import
// lines, when the fallback parser found no structural nodes.
func (c *Chunker) fallbackWindows(file model.CodeFile, lines []string, importLines map[int]bool) []model.CodeChunk {
	var chunks []model.CodeChunk
	windowSize := c.cfg.FallbackWindowSize
	if windowSize <= 0 {
		windowSize = 60
	}
	for start := 1; start <= len(lines); start += windowSize {
		end := start + windowSize - 1
		if end > len(lines) {
			end = len(lines)
		}
		if allImportLines(start, end, importLines) {
			continue
		}
		body := extractLines(lines, start, end)
		if strings.TrimSpace(body) == "" {
			continue
		}
		chunks = append(chunks, model.CodeChunk{
			ChunkID:   uuid.NewString(),
			RepoPath:  file.RepoPath,
			FilePath:  file.FilePath,
			ChunkType: model.ChunkFallback,
			Content:   body,
			StartLine: start,
			EndLine:   end,
			Language:  file.Language,
			TokenCount: max1(model.TokensFor(body)),
		})
	}
	return chunks
}

func allImportLines(start, end int, importLines map[int]bool) bool {
	if len(importLines) == 0 {
		return false
	}
	for i := start; i <= end; i++ {
		if !importLines[i] {
			return false
		}
	}
	return true
}

func (c *Chunker) structureOnlyChunk(file model.CodeFile, parse parser.Result, content string, lineCount int) model.CodeChunk {
	var b strings.Builder
	b.WriteString("Imports:\n")
	for _, imp := range parse.Imports {
		b.WriteString("  ")
		b.WriteString(imp.Source)
		b.WriteByte('\n')
	}
	b.WriteString("Exports:\n")
	for _, exp := range parse.Exports {
		b.WriteString("  ")
		b.WriteString(strings.Join(exp.Symbols, ", "))
		b.WriteByte('\n')
	}
	b.WriteString("Declarations:\n")
	for _, n := range parse.Nodes {
		b.WriteString("  ")
		b.WriteString(string(n.Kind))
		b.WriteString(" ")
		b.WriteString(n.Name)
		b.WriteByte('\n')
	}

	return model.CodeChunk{
		ChunkID:   uuid.NewString(),
		RepoPath:  file.RepoPath,
		FilePath:  file.FilePath,
		ChunkType: model.ChunkStructureOnly,
		Content:   b.String(),
		StartLine: 1,
		EndLine:   lineCount,
		Language:  file.Language,
		TokenCount: max1(model.TokensFor(b.String())),
		Metadata: map[string]any{
			"total_declarations": len(parse.Nodes),
			"total_imports":      len(parse.Imports),
			"total_exports":      len(parse.Exports),
		},
	}
}

func extractLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
