// Package summary implements the SummaryGenerator (C4): one textual
// paragraph per file, produced by an LLM client when configured and falling
// back to a deterministic, rule-based summary otherwise.
//
// The rule-based fallback's declaration/import text shape is grounded on
// the teacher's internal/indexer/formatter.go FormatSymbols, generalized
// from a structured listing into prose.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
)

// Method tags a FileSummary's origin.
type Method string

const (
	MethodLLM      Method = "llm"
	MethodRuleBased Method = "rule_based"
)

// FileSummary is the operation's return type, per spec.md C4.
type FileSummary struct {
	Text       string
	Method     Method
	ModelName  string
	GeneratedAt time.Time
	Duration   time.Duration
}

// LLMClient is the outward collaborator for the LLM summarization call. It
// is intentionally minimal: codegraph never bundles a model runtime,
// matching spec.md §1's "no bundled LLM or embedding model runtime"
// non-goal.
type LLMClient interface {
	ModelName() string
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Config controls the generator's behaviour.
type Config struct {
	HeadLines int
	Timeout   time.Duration
}

func DefaultConfig() Config {
	return Config{HeadLines: 100, Timeout: 10 * time.Second}
}

const promptTemplate = "Summarize the purpose of this %s file in one paragraph:\n\n%s"

// Generator implements C4.
type Generator struct {
	client LLMClient // nil disables the LLM path entirely
	cfg    Config
}

func New(client LLMClient, cfg Config) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Summarize implements summarize(file, head_lines) -> FileSummary.
func (g *Generator) Summarize(ctx context.Context, file model.CodeFile, content string, parse parser.Result) FileSummary {
	start := timeNow()

	if g.client != nil {
		text, ok := g.tryLLM(ctx, file, content)
		if ok {
			return FileSummary{
				Text:        text,
				Method:      MethodLLM,
				ModelName:   g.client.ModelName(),
				GeneratedAt: start,
				Duration:    timeNow().Sub(start),
			}
		}
	}

	text := ruleBasedSummary(file, parse)
	return FileSummary{
		Text:        text,
		Method:      MethodRuleBased,
		GeneratedAt: start,
		Duration:    timeNow().Sub(start),
	}
}

func (g *Generator) tryLLM(ctx context.Context, file model.CodeFile, content string) (string, bool) {
	timeout := g.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	head := headLines(content, g.cfg.HeadLines)
	prompt := fmt.Sprintf(promptTemplate, file.Language, head)

	text, err := g.client.Summarize(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	return strings.TrimSpace(text), true
}

func headLines(content string, n int) string {
	if n <= 0 {
		n = 100
	}
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// ruleBasedSummary is a pure function of file/parse, satisfying spec.md
// C4's determinism requirement for the fallback path.
func ruleBasedSummary(file model.CodeFile, parse parser.Result) string {
	var funcs, classes, types []string
	for _, n := range parse.Nodes {
		switch n.Kind {
		case parser.KindFunction, parser.KindMethod:
			funcs = append(funcs, n.Name)
		case parser.KindClass, parser.KindInterface:
			classes = append(classes, n.Name)
		case parser.KindType:
			types = append(types, n.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This %s file", orUnknown(file.Language))
	if len(classes) > 0 {
		fmt.Fprintf(&b, " defines %s", enumerate(classes, "type"))
	}
	if len(funcs) > 0 {
		if len(classes) > 0 {
			b.WriteString(" and")
		} else {
			b.WriteString(" defines")
		}
		fmt.Fprintf(&b, " %s", enumerate(funcs, "function"))
	}
	if len(classes) == 0 && len(funcs) == 0 {
		b.WriteString(" contains no top-level declarations recognized by the parser")
	}
	if len(parse.Imports) > 0 {
		fmt.Fprintf(&b, ". It imports %d package(s)", len(parse.Imports))
	}
	if len(types) > 0 {
		fmt.Fprintf(&b, " and declares %d additional type(s)", len(types))
	}
	b.WriteString(".")
	return b.String()
}

func enumerate(names []string, noun string) string {
	const maxShown = 5
	shown := names
	suffix := ""
	if len(shown) > maxShown {
		shown = shown[:maxShown]
		suffix = fmt.Sprintf(" and %d more", len(names)-maxShown)
	}
	plural := noun
	if len(names) != 1 {
		plural = noun + "s"
	}
	return fmt.Sprintf("%d %s (%s)%s", len(names), plural, strings.Join(shown, ", "), suffix)
}

func orUnknown(language string) string {
	if language == "" {
		return "unrecognized-language"
	}
	return language
}

// timeNow is a seam over time.Now so tests can assert on Method/ModelName
// without depending on wall-clock values.
var timeNow = time.Now
