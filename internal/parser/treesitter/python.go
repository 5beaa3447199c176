package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/codegraph-dev/codegraph/internal/parser"
)

// PythonParser extracts classes, methods, and functions from Python
// source, grounded directly on the teacher's
// internal/indexer/parsers/python.go node-kind walk.
type PythonParser struct{ *base }

func NewPythonParser() *PythonParser {
	return &PythonParser{base: newBase(sitter.NewLanguage(python.Language()), "python")}
}

func (p *PythonParser) Parse(content []byte, _ string) (parser.Result, error) {
	root, closeFn, ok := p.parseTree(content)
	if !ok {
		return parser.Result{}, nil
	}
	defer closeFn()

	lines := linesOf(content)
	var result parser.Result
	result.Success = true

	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "import_from_statement":
			result.Imports = append(result.Imports, parser.Import{
				Source: nodeText(n, content),
				Line:   startLine(n),
			})
		case "class_definition":
			result.Nodes = append(result.Nodes, extractPyClass(n, content, lines))
			return false
		case "function_definition":
			if isTopLevelPy(n) {
				result.Nodes = append(result.Nodes, extractPyFunc(n, content, "", false))
			}
		}
		return true
	})

	return result, nil
}

func isTopLevelPy(n *sitter.Node) bool {
	parentNode := n.Parent()
	for parentNode != nil {
		switch parentNode.Kind() {
		case "class_definition", "function_definition":
			return false
		case "module":
			return true
		}
		parentNode = parentNode.Parent()
	}
	return true
}

func extractPyClass(n *sitter.Node, source []byte, lines []string) parser.Node {
	nameNode := n.ChildByFieldName("name")
	name := nodeText(nameNode, source)

	node := parser.Node{
		Kind:      parser.KindClass,
		Name:      name,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		RawText:   joinLines(lines, startLine(n), endLine(n)),
		Visibility: visibilityFor(name),
	}

	body := n.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			child := body.Child(i)
			if child.Kind() == "function_definition" {
				node.Children = append(node.Children, extractPyFunc(child, source, name, true))
			}
		}
	}
	return node
}

func extractPyFunc(n *sitter.Node, source []byte, className string, isMethod bool) parser.Node {
	nameNode := n.ChildByFieldName("name")
	name := nodeText(nameNode, source)
	paramsNode := n.ChildByFieldName("parameters")
	returnNode := n.ChildByFieldName("return_type")

	kind := parser.KindFunction
	if isMethod {
		kind = parser.KindMethod
	}

	node := parser.Node{
		Kind:       kind,
		Name:       name,
		StartLine:  startLine(n),
		EndLine:    endLine(n),
		RawText:    nodeText(n, source),
		Visibility: visibilityFor(name),
	}
	if paramsNode != nil {
		node.Parameters = []string{nodeText(paramsNode, source)}
	}
	if returnNode != nil {
		node.ReturnType = nodeText(returnNode, source)
	}
	_ = className
	return node
}

func visibilityFor(name string) string {
	if len(name) > 0 && name[0] == '_' {
		return "internal"
	}
	return "exported"
}

func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	out := ""
	for i := start; i <= end; i++ {
		out += lines[i-1] + "\n"
	}
	return out
}
