package tools

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultMaxSearchResults = 200
	defaultMaxFileBytes     = 1 << 20
)

type SearchOptions struct {
	MaxResults    int
	MaxFileBytes  int64
	CaseSensitive bool
	IncludeHidden bool
}

type SearchMatch struct {
	Path string
	Line int
	Text string
}

type SearchResult struct {
	Root          string
	ScannedFiles  int
	SkippedLarge  int
	SkippedBinary int
	SkippedError  int
	Truncated     bool
	Matches       []SearchMatch
}

// Search walks root and returns lines matching query. A query supports
// `a|b` (OR) and `a&b` (AND); AND binds tighter than OR.
func (f *LocalFS) Search(ctx context.Context, root, query string) (SearchResult, error) {
	opts := SearchOptions{}
	if f != nil {
		opts = f.SearchOpts
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxSearchResults
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}

	matcher, err := parseSearchQuery(query, opts.CaseSensitive)
	if err != nil {
		return SearchResult{}, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return SearchResult{}, err
	}
	if !info.IsDir() {
		return SearchResult{}, fmt.Errorf("path is not a directory: %s", root)
	}

	res := SearchResult{Root: root}
	stopErr := errors.New("max results reached")
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			res.SkippedError++
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		fileInfo, infoErr := d.Info()
		if infoErr != nil {
			res.SkippedError++
			return nil
		}
		res.ScannedFiles++
		if fileInfo.Size() > opts.MaxFileBytes {
			res.SkippedLarge++
			return nil
		}

		lines, isBinary, err := searchFileLines(ctx, path, matcher)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			res.SkippedError++
			return nil
		}
		if isBinary {
			res.SkippedBinary++
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		for _, line := range lines {
			res.Matches = append(res.Matches, SearchMatch{Path: rel, Line: line.Line, Text: line.Text})
			if len(res.Matches) >= opts.MaxResults {
				res.Truncated = true
				return stopErr
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, stopErr) {
		return SearchResult{}, err
	}
	return res, nil
}

func (r SearchResult) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scanned_files: %d\n", r.ScannedFiles)
	fmt.Fprintf(&b, "matched_lines: %d\n", len(r.Matches))
	if r.Truncated {
		b.WriteString("truncated: true\n")
	}
	if skipped := r.SkippedLarge + r.SkippedBinary + r.SkippedError; skipped > 0 {
		fmt.Fprintf(&b, "skipped_files: %d\n", skipped)
	}
	if len(r.Matches) == 0 {
		b.WriteString("(no matches)")
		return b.String()
	}
	for i, m := range r.Matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s:%d:%s", m.Path, m.Line, m.Text)
	}
	return b.String()
}

type searchMatcher struct {
	groups        [][]string
	caseSensitive bool
}

type lineMatch struct {
	Line int
	Text string
}

func parseSearchQuery(raw string, caseSensitive bool) (searchMatcher, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return searchMatcher{}, errors.New("query is required")
	}

	orParts := strings.Split(query, "|")
	groups := make([][]string, 0, len(orParts))
	for _, orPart := range orParts {
		orPart = strings.TrimSpace(orPart)
		if orPart == "" {
			return searchMatcher{}, errors.New("invalid query: empty term around '|'")
		}
		andParts := strings.Split(orPart, "&")
		group := make([]string, 0, len(andParts))
		for _, andPart := range andParts {
			term := trimQuotedTerm(strings.TrimSpace(andPart))
			if term == "" {
				return searchMatcher{}, errors.New("invalid query: empty term around '&'")
			}
			if !caseSensitive {
				term = strings.ToLower(term)
			}
			group = append(group, term)
		}
		groups = append(groups, group)
	}
	return searchMatcher{groups: groups, caseSensitive: caseSensitive}, nil
}

func trimQuotedTerm(term string) string {
	if len(term) < 2 {
		return term
	}
	first, last := term[0], term[len(term)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return strings.TrimSpace(term[1 : len(term)-1])
	}
	return term
}

func (m searchMatcher) Match(line string) bool {
	candidate := line
	if !m.caseSensitive {
		candidate = strings.ToLower(candidate)
	}
	for _, group := range m.groups {
		all := true
		for _, term := range group {
			if !strings.Contains(candidate, term) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func searchFileLines(ctx context.Context, path string, matcher searchMatcher) ([]lineMatch, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 8192)
	sample, err := reader.Peek(8192)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, false, err
	}
	if isLikelyBinary(sample) {
		return nil, true, nil
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	var results []lineMatch
	lineNumber := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		lineNumber++
		if text := scanner.Text(); matcher.Match(text) {
			results = append(results, lineMatch{Line: lineNumber, Text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	return results, false, nil
}

func isLikelyBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	control := 0
	for _, b := range data {
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			control++
		}
	}
	return float64(control)/float64(len(data)) > 0.2
}
