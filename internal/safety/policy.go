package safety

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var (
	DefaultRestrictedPaths = []string{"/etc", "/root", "/sys", "/proc"}
	DefaultRestrictedGlobs = []string{".git", ".git/**"}
	DefaultDeniedCommands  = []string{
		"rm -rf",
		"sudo",
		"mkfs",
		"shutdown",
		"reboot",
		"dd if=",
		":(){",
		"> /dev/",
		"chmod -r 777",
	}
)

type Options struct {
	Root            string
	RestrictedPaths []string
	RestrictedGlobs []string
	DeniedCommands  []string
	AllowCommands   bool
}

type globRule struct {
	pattern string
	g       glob.Glob
}

// Policy is an immutable, pre-normalized safety policy. Build it with
// NewPolicy; the zero value denies everything.
type Policy struct {
	root          string
	realRoot      string
	restricted    []string
	globs         []globRule
	deniedCommand []string
	allowCommands bool
}

// NewPolicy normalizes opts. Relative restricted paths are taken relative to
// the root. A restricted prefix that contains the root itself is dropped: the
// root was chosen explicitly and everything outside it is denied anyway.
func NewPolicy(opts Options) (*Policy, error) {
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		return nil, errors.New("project root is empty")
	}
	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve project root: %w", err)
		}
		root = abs
	}
	root = filepath.Clean(root)

	realRoot, ok := realPath(root)
	if !ok {
		return nil, fmt.Errorf("project root %s is a dangling symlink", root)
	}
	p := &Policy{root: root, realRoot: realRoot, allowCommands: opts.AllowCommands}
	for _, raw := range opts.RestrictedPaths {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix := canonicalize(root, raw)
		if within(prefix, root) {
			continue
		}
		p.restricted = append(p.restricted, prefix)
		if actual, ok := realPath(prefix); ok && actual != prefix && !within(actual, realRoot) {
			p.restricted = append(p.restricted, actual)
		}
	}
	for _, pattern := range opts.RestrictedGlobs {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("restricted glob %q: %w", pattern, err)
		}
		p.globs = append(p.globs, globRule{pattern: pattern, g: g})
	}
	for _, c := range opts.DeniedCommands {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			p.deniedCommand = append(p.deniedCommand, c)
		}
	}
	return p, nil
}

// DefaultOptions returns the stock policy for root.
func DefaultOptions(root string) Options {
	return Options{
		Root:            root,
		RestrictedPaths: append([]string(nil), DefaultRestrictedPaths...),
		RestrictedGlobs: append([]string(nil), DefaultRestrictedGlobs...),
		DeniedCommands:  append([]string(nil), DefaultDeniedCommands...),
	}
}

func (p *Policy) Root() string {
	if p == nil {
		return ""
	}
	return p.root
}

func (p *Policy) CommandsAllowed() bool {
	return p != nil && p.allowCommands
}

// Resolve returns the canonical absolute form of path relative to the root.
func (p *Policy) Resolve(path string) string {
	return canonicalize(p.root, path)
}

// canonicalize lexically resolves path against root. Symlinks are handled
// separately by realPath.
func canonicalize(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(root, path))
}

// within reports whether path equals dir or lies beneath it, on a path segment
// boundary.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// realPath resolves symlinks in the longest existing prefix of path and
// appends the rest unchanged. It reports false when a component is a symlink
// that cannot be resolved, since writing through it would land wherever it
// points.
func realPath(path string) (string, bool) {
	cur, rest := path, ""
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, rest), true
		}
		if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", false
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, true
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}
