// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/sync/errgroup"
)

// DefaultIgnorePatterns are skipped in every corpus scan.
var DefaultIgnorePatterns = []string{
	".git",
	".obsidian",
	".trash",
	"node_modules",
}

// wikiLinkPattern matches [[target]], [[target#heading]] and [[target|alias]].
var wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|[^\]]*)?\]\]`)

// CorpusOptions configures ScanCorpus.
type CorpusOptions struct {
	// Extensions lists the file extensions to scan. Default: [".md"].
	Extensions []string

	// IgnorePatterns are matched against base names and glob patterns,
	// in addition to DefaultIgnorePatterns.
	IgnorePatterns []string

	// RespectGitignore applies <root>/.gitignore when present.
	RespectGitignore bool

	// Workers bounds concurrent parses. Default: GOMAXPROCS.
	Workers int

	// MaxFileBytes skips larger files. Zero disables the limit.
	MaxFileBytes int64
}

// DefaultCorpusOptions returns sensible defaults.
func DefaultCorpusOptions() CorpusOptions {
	return CorpusOptions{
		Extensions:       []string{".md"},
		RespectGitignore: true,
		Workers:          runtime.GOMAXPROCS(0),
		MaxFileBytes:     4 << 20,
	}
}

// rawLinks holds the unresolved references found in one document.
type rawLinks struct {
	destinations []string
	wikiTargets  []string
}

// ScanCorpus walks root and returns the resolved link index of its notes.
//
// # Description
//
// Every matching file becomes a key of the index, named by its slash
// separated path relative to root. Markdown links and wikilinks are
// resolved against the set of scanned files; links that point outside the
// corpus, at external URLs, or at anchors are dropped.
//
// # Inputs
//
//   - ctx: Cancels the walk and pending parses.
//   - root: Corpus directory.
//   - opts: Scan options. Zero values fall back to DefaultCorpusOptions.
//
// # Outputs
//
//   - LinkIndex: One entry per scanned file.
//   - error: ErrCorpusNotDir, a walk error, or ctx.Err().
func ScanCorpus(ctx context.Context, root string, opts CorpusOptions) (LinkIndex, error) {
	opts = withCorpusDefaults(opts)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrCorpusNotDir, root)
	}

	files, err := collectFiles(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	found := make([]rawLinks, len(files))
	md := goldmark.New()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			found[i] = extractLinks(md, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := newResolver(files)
	idx := make(LinkIndex, len(files))
	unresolved := 0
	for i, from := range files {
		idx[from] = make(map[string]bool)
		for _, dest := range found[i].destinations {
			if to, ok := r.resolveDestination(from, dest); ok {
				idx[from][to] = true
			} else {
				unresolved++
			}
		}
		for _, target := range found[i].wikiTargets {
			if to, ok := r.resolveWiki(from, target); ok {
				idx[from][to] = true
			} else {
				unresolved++
			}
		}
	}

	slog.Debug("corpus scanned",
		slog.String("root", root),
		slog.Int("files", len(files)),
		slog.Int("links", idx.LinkCount()),
		slog.Int("unresolved", unresolved),
	)
	return idx, nil
}

func withCorpusDefaults(opts CorpusOptions) CorpusOptions {
	defaults := DefaultCorpusOptions()
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaults.Extensions
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	return opts
}

// collectFiles returns the sorted relative paths of all files to scan.
func collectFiles(ctx context.Context, root string, opts CorpusOptions) ([]string, error) {
	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		giPath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(giPath); err == nil {
			compiled, err := ignore.CompileIgnoreFile(giPath)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", giPath, err)
			}
			gi = compiled
		}
	}

	patterns := append(append([]string{}, DefaultIgnorePatterns...), opts.IgnorePatterns...)

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(d.Name(), patterns) || (gi != nil && gi.MatchesPath(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !hasExtension(rel, opts.Extensions) {
			return nil
		}
		if opts.MaxFileBytes > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > opts.MaxFileBytes {
				slog.Warn("skipping oversized note", slog.String("path", rel), slog.Int64("bytes", info.Size()))
				return nil
			}
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func matchesAny(base string, patterns []string) bool {
	for _, pattern := range patterns {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// extractLinks parses src and returns its link destinations and wikilinks.
func extractLinks(md goldmark.Markdown, src []byte) rawLinks {
	var out rawLinks
	doc := md.Parser().Parse(text.NewReader(src))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			out.destinations = append(out.destinations, string(node.Destination))
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				for _, m := range wikiLinkPattern.FindAllSubmatch(seg.Value(src), -1) {
					out.wikiTargets = append(out.wikiTargets, strings.TrimSpace(string(m[1])))
				}
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// resolver maps raw link text to corpus-relative paths.
type resolver struct {
	files  map[string]struct{}
	byBase map[string][]string
}

func newResolver(files []string) *resolver {
	r := &resolver{
		files:  make(map[string]struct{}, len(files)),
		byBase: make(map[string][]string),
	}
	for _, f := range files {
		r.files[f] = struct{}{}
		base := strings.ToLower(path.Base(f))
		r.byBase[base] = append(r.byBase[base], f)
	}
	return r
}

func (r *resolver) exists(p string) bool {
	_, ok := r.files[p]
	return ok
}

// resolveDestination resolves a markdown link destination written in from.
func (r *resolver) resolveDestination(from, dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.Contains(dest, "://") ||
		strings.HasPrefix(strings.ToLower(dest), "mailto:") {
		return "", false
	}
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	if unescaped, err := url.PathUnescape(dest); err == nil {
		dest = unescaped
	}

	var candidate string
	if strings.HasPrefix(dest, "/") {
		candidate = path.Clean(strings.TrimPrefix(dest, "/"))
	} else {
		candidate = path.Join(path.Dir(from), dest)
	}

	if r.exists(candidate) {
		return candidate, true
	}
	if path.Ext(candidate) == "" && r.exists(candidate+".md") {
		return candidate + ".md", true
	}
	return "", false
}

// resolveWiki resolves a wikilink target by path, then by unique-ish name.
func (r *resolver) resolveWiki(from, target string) (string, bool) {
	if target == "" {
		return "", false
	}
	name := target
	if path.Ext(name) == "" {
		name += ".md"
	}

	for _, candidate := range []string{path.Clean(name), path.Join(path.Dir(from), name)} {
		if r.exists(candidate) {
			return candidate, true
		}
	}

	// Shortest path wins when several notes share a name.
	matches := r.byBase[strings.ToLower(path.Base(name))]
	if len(matches) == 0 {
		return "", false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if len(m) < len(best) {
			best = m
		}
	}
	return best, true
}
