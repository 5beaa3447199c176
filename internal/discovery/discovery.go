// Package discovery implements the Discoverer (C1): recursive file
// enumeration with ignore-pattern, size, and binary/generated/minified
// filtering, emitting DiscoveredFile records with content hashes.
//
// Grounded on the teacher's internal/indexer/discovery.go glob-walk shape,
// extended with the hashing, classification, and secret-pattern exclusion
// spec.md C1 requires.
package discovery

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// hardIgnoredDirs are always skipped regardless of ignore files, per
// spec.md C1.
var hardIgnoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"coverage":     true,
}

var generatorBanners = []string{
	"Code generated by",
	"DO NOT EDIT",
	"@generated",
	"This file was automatically generated",
}

var extToLanguage = map[string]string{
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".py":    "python",
	".rb":    "ruby",
	".java":  "java",
	".php":   "php",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
}

var docExtensions = map[string]bool{
	".md":   true,
	".mdx":  true,
	".rst":  true,
	".txt":  true,
}

// DiscoveredFile is one file kept after filtering, per spec.md C1.
type DiscoveredFile struct {
	AbsolutePath string
	RelativePath string
	FileHash     string
	Language     string
	LineCount    int
	SizeBytes    int64
	ModifiedUnix int64
	Encoding     string
	IsDoc        bool
}

// Stats reports per-run discovery counters.
type Stats struct {
	FilesScanned     int
	FilesKept        int
	FilesIgnored     int
	FilesBinary      int
	FilesTooLarge    int
	FilesSecretMatch int
	FilesUnsupported int
	Errors           []error
}

// Options configures a discovery pass, per spec.md C1.
type Options struct {
	RespectIgnoreFile bool
	MaxFileLines      int
	IncludeDocs       bool
	SecretPatterns    []string
	LanguagesAllowlist []string
}

// DiscoveryFailed is the fatal error kind for a failure to access the root.
type DiscoveryFailed struct {
	Root string
	Err  error
}

func (e *DiscoveryFailed) Error() string {
	return fmt.Sprintf("discovery failed for root %q: %v", e.Root, e.Err)
}

func (e *DiscoveryFailed) Unwrap() error { return e.Err }

// Discoverer implements C1.
type Discoverer struct {
	ignorePatterns []glob.Glob
	secretPatterns []glob.Glob
}

// New compiles the ignore and secret glob patterns used by Discover.
func New(ignoreGlobs []string, secretGlobs []string) (*Discoverer, error) {
	d := &Discoverer{}
	for _, p := range ignoreGlobs {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", p, err)
		}
		d.ignorePatterns = append(d.ignorePatterns, g)
	}
	for _, p := range secretGlobs {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile secret pattern %q: %w", p, err)
		}
		d.secretPatterns = append(d.secretPatterns, g)
	}
	return d, nil
}

// Discover walks root and returns files kept after filtering, in
// deterministic lexicographic order by relative path.
func (d *Discoverer) Discover(root string, opts Options) ([]DiscoveredFile, Stats, error) {
	var stats Stats

	if _, err := os.Stat(root); err != nil {
		return nil, stats, &DiscoveryFailed{Root: root, Err: err}
	}

	var files []DiscoveredFile
	allowlist := map[string]bool{}
	for _, l := range opts.LanguagesAllowlist {
		allowlist[l] = true
	}

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			return nil
		}
		if info.IsDir() {
			if hardIgnoredDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		stats.FilesScanned++

		if opts.RespectIgnoreFile && d.matchesAny(relPath, d.ignorePatterns) {
			stats.FilesIgnored++
			return nil
		}

		if d.matchesAny(relPath, d.secretPatterns) {
			stats.FilesSecretMatch++
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		lang, known := extToLanguage[ext]
		isDoc := docExtensions[ext]
		if !known && !isDoc {
			stats.FilesUnsupported++
			return nil
		}
		if isDoc && !opts.IncludeDocs {
			stats.FilesUnsupported++
			return nil
		}
		if known && len(allowlist) > 0 && !allowlist[lang] {
			stats.FilesUnsupported++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			return nil
		}

		if looksBinary(data) {
			stats.FilesBinary++
			return nil
		}
		if looksGenerated(data) {
			stats.FilesBinary++
			return nil
		}

		lineCount := bytes.Count(data, []byte{'\n'}) + 1
		if opts.MaxFileLines > 0 && lineCount > opts.MaxFileLines {
			stats.FilesTooLarge++
			return nil
		}
		if looksMinified(data, lineCount) {
			stats.FilesBinary++
			return nil
		}

		sum := sha256.Sum256(data)

		files = append(files, DiscoveredFile{
			AbsolutePath: path,
			RelativePath: relPath,
			FileHash:     hex.EncodeToString(sum[:]),
			Language:     lang,
			LineCount:    lineCount,
			SizeBytes:    info.Size(),
			ModifiedUnix: info.ModTime().Unix(),
			Encoding:     "utf-8",
			IsDoc:        isDoc,
		})
		stats.FilesKept++
		return nil
	})
	if walkErr != nil {
		return nil, stats, &DiscoveryFailed{Root: root, Err: walkErr}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})

	return files, stats, nil
}

func (d *Discoverer) matchesAny(path string, patterns []glob.Glob) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
		if p.Match(path + "/**") {
			return true
		}
	}
	return false
}

// looksBinary detects NUL bytes in the first 8KB, the standard binary
// heuristic.
func looksBinary(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return bytes.IndexByte(probe, 0) != -1
}

func looksGenerated(data []byte) bool {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	text := string(head)
	for _, banner := range generatorBanners {
		if strings.Contains(text, banner) {
			return true
		}
	}
	return false
}

// looksMinified flags files whose longest line is implausibly long relative
// to their overall size, a common minified-asset signature.
func looksMinified(data []byte, lineCount int) bool {
	if lineCount > 5 {
		return false
	}
	longest := 0
	cur := 0
	for _, b := range data {
		if b == '\n' {
			if cur > longest {
				longest = cur
			}
			cur = 0
			continue
		}
		cur++
	}
	if cur > longest {
		longest = cur
	}
	return longest > 2000
}
