package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codegraph-dev/codegraph/internal/model"
)

func TestFindCallers(t *testing.T) {
	t.Parallel()

	target := model.CodeFile{FilePath: "src/util/parse.go"}
	caller := model.CodeFile{
		FilePath: "src/cmd/main.go",
		Imports:  []model.ImportRef{{Source: "myapp/util/parse"}},
	}
	unrelated := model.CodeFile{
		FilePath: "src/cmd/other.go",
		Imports:  []model.ImportRef{{Source: "myapp/util/format"}},
	}
	self := model.CodeFile{
		FilePath: "src/util/parse.go",
		Imports:  []model.ImportRef{{Source: "myapp/util/parse"}},
	}

	t.Run("matches substring of import specifier", func(t *testing.T) {
		out := findCallers(target, []model.CodeFile{caller, unrelated})
		assert.Equal(t, []model.CodeFile{caller}, out)
	})

	t.Run("excludes the target file itself", func(t *testing.T) {
		out := findCallers(target, []model.CodeFile{self})
		assert.Empty(t, out)
	})

	t.Run("no candidates no matches", func(t *testing.T) {
		out := findCallers(target, nil)
		assert.Empty(t, out)
	})
}
