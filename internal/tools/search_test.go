package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSearchSupportsLogicalAndOr(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.txt"), "apple banana\napple only\n")
	writeTestFile(t, filepath.Join(dir, "b.txt"), "orange mango\norange pear\n")

	res, err := NewLocalFS().Search(context.Background(), dir, "apple&banana|orange&pear")
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	out := res.Format()

	if !strings.Contains(out, "a.txt:1:apple banana") {
		t.Fatalf("expected AND match from a.txt, got:\n%s", out)
	}
	if !strings.Contains(out, "b.txt:2:orange pear") {
		t.Fatalf("expected AND match from b.txt, got:\n%s", out)
	}
	if strings.Contains(out, "orange mango") {
		t.Fatalf("did not expect partial AND match, got:\n%s", out)
	}
}

func TestSearchSkipsHiddenAndBinary(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "root.txt"), "needle\n")
	writeTestFile(t, filepath.Join(dir, "sub", "child.txt"), "NEEDLE\n")
	writeTestFile(t, filepath.Join(dir, ".hidden.txt"), "needle\n")
	writeTestFile(t, filepath.Join(dir, ".git", "config"), "needle\n")
	writeTestFile(t, filepath.Join(dir, "blob.bin"), "needle\x00\x00\x00")

	res, err := NewLocalFS().Search(context.Background(), dir, "needle")
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected 2 matches, got:\n%s", res.Format())
	}
	if res.Matches[0].Path != "root.txt" || res.Matches[1].Path != "sub/child.txt" {
		t.Fatalf("unexpected match paths:\n%s", res.Format())
	}
	if res.SkippedBinary != 1 {
		t.Fatalf("expected binary file to be skipped, got %d", res.SkippedBinary)
	}
}

func TestSearchStopsAtMaxResults(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "many.txt"), strings.Repeat("hit\n", 10))

	fs := &LocalFS{SearchOpts: SearchOptions{MaxResults: 3}}
	res, err := fs.Search(context.Background(), dir, "hit")
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(res.Matches) != 3 || !res.Truncated {
		t.Fatalf("expected 3 truncated matches, got:\n%s", res.Format())
	}
}

func TestSearchRejectsInvalidQuery(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.txt"), "foo bar\n")

	_, err := NewLocalFS().Search(context.Background(), dir, "foo&&bar")
	if err == nil {
		t.Fatalf("expected invalid query error")
	}
	if !strings.Contains(err.Error(), "invalid query") {
		t.Fatalf("expected invalid query message, got: %v", err)
	}
}

func TestSearchRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	writeTestFile(t, file, "x\n")
	if _, err := NewLocalFS().Search(context.Background(), file, "x"); err == nil {
		t.Fatalf("expected error for non-directory root")
	}
}
