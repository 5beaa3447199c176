package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codegraph-dev/codegraph/internal/parser"
)

// TypeScriptParser extracts classes, interfaces, type aliases, and
// functions, grounded directly on the teacher's
// internal/indexer/parsers/typescript.go node-kind walk.
type TypeScriptParser struct{ *base }

func NewTypeScriptParser() *TypeScriptParser {
	return &TypeScriptParser{base: newBase(sitter.NewLanguage(typescript.LanguageTypescript()), "typescript")}
}

func (p *TypeScriptParser) Parse(content []byte, _ string) (parser.Result, error) {
	root, closeFn, ok := p.parseTree(content)
	if !ok {
		return parser.Result{}, nil
	}
	defer closeFn()

	var result parser.Result
	result.Success = true

	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			result.Imports = append(result.Imports, parser.Import{Source: nodeText(n, content), Line: startLine(n)})
		case "class_declaration":
			result.Nodes = append(result.Nodes, namedNode(n, content, parser.KindClass))
		case "interface_declaration":
			result.Nodes = append(result.Nodes, namedNode(n, content, parser.KindInterface))
		case "type_alias_declaration":
			result.Nodes = append(result.Nodes, namedNode(n, content, parser.KindType))
		case "function_declaration":
			result.Nodes = append(result.Nodes, tsFunction(n, content))
		case "export_statement":
			result.Exports = append(result.Exports, parser.Export{Line: startLine(n)})
		}
		return true
	})

	return result, nil
}

func namedNode(n *sitter.Node, source []byte, kind parser.NodeKind) parser.Node {
	nameNode := n.ChildByFieldName("name")
	name := nodeText(nameNode, source)
	return parser.Node{
		Kind:       kind,
		Name:       name,
		StartLine:  startLine(n),
		EndLine:    endLine(n),
		RawText:    nodeText(n, source),
		Visibility: "exported",
	}
}

func tsFunction(n *sitter.Node, source []byte) parser.Node {
	nameNode := n.ChildByFieldName("name")
	paramsNode := n.ChildByFieldName("parameters")
	returnNode := n.ChildByFieldName("return_type")

	node := parser.Node{
		Kind:       parser.KindFunction,
		Name:       nodeText(nameNode, source),
		StartLine:  startLine(n),
		EndLine:    endLine(n),
		RawText:    nodeText(n, source),
		Visibility: "exported",
	}
	if paramsNode != nil {
		node.Parameters = []string{nodeText(paramsNode, source)}
	}
	if returnNode != nil {
		node.ReturnType = nodeText(returnNode, source)
	}
	return node
}
