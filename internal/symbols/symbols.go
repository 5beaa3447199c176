// Package symbols implements the SymbolExtractor (C6): turning a
// parser.Result into the flat CodeSymbol rows spec.md C6 names, each
// carrying its own embedding.
//
// Grounded on the teacher's internal/storage/models.go Type/Function shapes
// (is_exported, cyclomatic_complexity fields) re-targeted onto the single
// CodeSymbol entity, and internal/storage/treesitter_writer.go's batching
// convention for how those rows get built before a store write.
package symbols

import (
	"context"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/embedding"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
)

// Config bounds the definition text kept per symbol.
type Config struct {
	MaxDefinitionChars int
}

func DefaultConfig() Config {
	return Config{MaxDefinitionChars: 4000}
}

var extractableKinds = map[parser.NodeKind]string{
	parser.KindFunction:  "function",
	parser.KindMethod:    "method",
	parser.KindClass:     "class",
	parser.KindInterface: "interface",
	parser.KindType:      "type",
	parser.KindVariable:  "variable",
	parser.KindConstant:  "constant",
}

// Extractor implements C6.
type Extractor struct {
	embedder *embedding.Embedder
	cfg      Config
}

func New(embedder *embedding.Embedder, cfg Config) *Extractor {
	return &Extractor{embedder: embedder, cfg: cfg}
}

// Extract implements extract(parse, file) -> Symbol[].
func (e *Extractor) Extract(ctx context.Context, file model.CodeFile, parse parser.Result) ([]model.CodeSymbol, error) {
	symbols := e.collect(file, parse.Nodes, exportSet(parse.Exports))
	if e.embedder == nil || len(symbols) == 0 {
		return symbols, nil
	}

	texts := make([]string, len(symbols))
	for i, s := range symbols {
		texts[i] = s.SymbolName + "\n" + s.Definition
	}
	vecs, err := e.embedder.EmbedBatch(ctx, texts, embedding.ModePassage)
	if err != nil {
		return symbols, err
	}
	for i := range symbols {
		if i < len(vecs) {
			symbols[i].Embedding = vecs[i]
		}
	}
	return symbols, nil
}

func (e *Extractor) collect(file model.CodeFile, nodes []parser.Node, exported map[string]bool) []model.CodeSymbol {
	var out []model.CodeSymbol
	for _, n := range nodes {
		symType, ok := extractableKinds[n.Kind]
		if !ok {
			continue
		}
		out = append(out, model.CodeSymbol{
			RepoPath:   file.RepoPath,
			FilePath:   file.FilePath,
			SymbolName: n.Name,
			SymbolType: symType,
			LineNumber: n.StartLine,
			Definition: truncate(n.RawText, e.cfg.MaxDefinitionChars),
			Scope:      scopeFor(n, exported),
		})
		// Methods nested under a class/interface node are walked too, so
		// symbols are emitted for both the container and its members.
		out = append(out, e.collect(file, n.Children, exported)...)
	}
	return out
}

func scopeFor(n parser.Node, exported map[string]bool) model.SymbolScope {
	if n.Visibility == "exported" || exported[n.Name] {
		return model.ScopeExported
	}
	return model.ScopeInternal
}

func exportSet(exports []parser.Export) map[string]bool {
	set := make(map[string]bool)
	for _, e := range exports {
		for _, name := range e.Symbols {
			set[name] = true
		}
	}
	return set
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "…"
}
