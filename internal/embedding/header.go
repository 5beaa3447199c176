package embedding

import "strings"

// ChunkHeader carries the small structured prefix derived from chunk
// metadata and the file summary that spec.md C5 says is prepended to a
// chunk body before embedding.
type ChunkHeader struct {
	FilePath    string
	ChunkType   string
	Names       []string // function/class names in this chunk
	FileSummary string
}

// BuildChunkText composes the text actually sent to the embedding backend
// for a chunk: an optional header followed by the raw chunk body.
func BuildChunkText(h ChunkHeader, body string) string {
	var b strings.Builder
	if h.FilePath != "" {
		b.WriteString("File: ")
		b.WriteString(h.FilePath)
		b.WriteByte('\n')
	}
	if h.ChunkType != "" {
		b.WriteString("Type: ")
		b.WriteString(h.ChunkType)
		b.WriteByte('\n')
	}
	if len(h.Names) > 0 {
		b.WriteString("Symbols: ")
		b.WriteString(strings.Join(h.Names, ", "))
		b.WriteByte('\n')
	}
	if h.FileSummary != "" {
		b.WriteString("Context: ")
		b.WriteString(h.FileSummary)
		b.WriteByte('\n')
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}
