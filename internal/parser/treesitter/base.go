// Package treesitter adapts the go-tree-sitter bindings into the
// parser.Parser contract. Grounded on the teacher's
// internal/indexer/parsers/treesitter.go base wrapper and its concrete
// per-language parsers.
package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// base holds the compiled grammar shared by every concrete language parser.
type base struct {
	language *sitter.Language
	lang     string
}

func newBase(lang *sitter.Language, name string) *base {
	return &base{language: lang, lang: name}
}

func (b *base) Language() string { return b.lang }

// walk visits n and every descendant depth-first, pre-order. visit returns
// false to skip descending into that node's children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		walk(n.Child(i), visit)
	}
}

func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

func linesOf(content []byte) []string {
	return strings.Split(string(content), "\n")
}

func startLine(n *sitter.Node) int { return int(n.StartPosition().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPosition().Row) + 1 }

// parseTree runs the grammar over source and returns the root node plus a
// close func, or ok=false when the content is unparseable.
func (b *base) parseTree(source []byte) (root *sitter.Node, closeFn func(), ok bool) {
	p := sitter.NewParser()
	p.SetLanguage(b.language)
	tree := p.Parse(source, nil)
	if tree == nil {
		p.Close()
		return nil, nil, false
	}
	return tree.RootNode(), func() { tree.Close(); p.Close() }, true
}
