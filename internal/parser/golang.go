package parser

import (
	"go/ast"
	goParser "go/parser"
	"go/token"
	"strings"
)

// GoParser parses Go source with the standard library's go/parser, the way
// the teacher's multiLanguageParser.parseGoFile does — Go is the one
// language the teacher parses natively rather than via tree-sitter.
type GoParser struct{}

func NewGoParser() *GoParser { return &GoParser{} }

func (g *GoParser) Language() string { return "go" }

func (g *GoParser) Parse(content []byte, relativePath string) (Result, error) {
	fset := token.NewFileSet()
	file, err := goParser.ParseFile(fset, relativePath, content, goParser.ParseComments)
	if err != nil {
		return Result{}, err
	}

	lines := strings.Split(string(content), "\n")
	var result Result
	result.Success = true

	for _, imp := range file.Imports {
		pos := fset.Position(imp.Pos())
		result.Imports = append(result.Imports, Import{
			Source: strings.Trim(imp.Path.Value, `"`),
			Line:   pos.Line,
		})
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.FuncDecl:
			result.Nodes = append(result.Nodes, goFuncNode(decl, fset, lines))
		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					result.Nodes = append(result.Nodes, goTypeNode(ts, fset, lines))
				}
			}
		}
		return true
	})

	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.CONST {
			result.Exports = append(result.Exports, goExportsFor(gd)...)
		}
	}

	return result, nil
}

func goFuncNode(decl *ast.FuncDecl, fset *token.FileSet, lines []string) Node {
	start := fset.Position(decl.Pos()).Line
	end := fset.Position(decl.End()).Line
	kind := KindFunction
	if decl.Recv != nil {
		kind = KindMethod
	}
	return Node{
		Kind:       kind,
		Name:       decl.Name.Name,
		StartLine:  start,
		EndLine:    end,
		RawText:    extractLines(lines, start, end),
		Visibility: goVisibility(decl.Name.Name),
	}
}

func goTypeNode(ts *ast.TypeSpec, fset *token.FileSet, lines []string) Node {
	start := fset.Position(ts.Pos()).Line
	end := fset.Position(ts.End()).Line
	kind := KindType
	switch ts.Type.(type) {
	case *ast.StructType:
		kind = KindClass
	case *ast.InterfaceType:
		kind = KindInterface
	}
	return Node{
		Kind:       kind,
		Name:       ts.Name.Name,
		StartLine:  start,
		EndLine:    end,
		RawText:    extractLines(lines, start, end),
		Visibility: goVisibility(ts.Name.Name),
	}
}

func goExportsFor(gd *ast.GenDecl) []Export {
	var exports []Export
	for _, spec := range gd.Specs {
		if vs, ok := spec.(*ast.ValueSpec); ok {
			var names []string
			for _, n := range vs.Names {
				if n.IsExported() {
					names = append(names, n.Name)
				}
			}
			if len(names) > 0 {
				exports = append(exports, Export{Symbols: names})
			}
		}
	}
	return exports
}

func goVisibility(name string) string {
	if name == "" {
		return "internal"
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return "exported"
	}
	return "internal"
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
