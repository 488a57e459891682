package safety

import (
	"fmt"
	"path/filepath"
	"strings"

	"agentide/internal/action"
)

// Validate decides whether a may run under p. It has no side effects; besides
// a and p it only reads symlinks along the action's paths, so the same pair
// yields the same verdict for the same tree.
func Validate(a *action.Action, p *Policy) action.Status {
	if a == nil {
		return action.Deny("no action")
	}
	if p == nil || p.root == "" {
		return action.Deny("no safety policy configured")
	}
	if a.Kind == action.RunCommand {
		return p.validateCommand(a)
	}
	for _, path := range a.Paths() {
		if reason, ok := p.checkPath(path); !ok {
			return action.Deny(reason)
		}
	}
	if destroysRoot(a, p) {
		return action.Deny("refusing to " + string(a.Kind) + " the project root")
	}
	return action.Approve()
}

func (p *Policy) checkPath(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "empty path", false
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Sprintf("path %q contains a NUL byte", path), false
	}
	resolved := canonicalize(p.root, path)
	if !within(p.root, resolved) {
		return fmt.Sprintf("path %q resolves outside the project root (%s)", path, resolved), false
	}
	actual, ok := realPath(resolved)
	if !ok {
		return fmt.Sprintf("path %q goes through a dangling symlink", path), false
	}
	if !within(p.realRoot, actual) {
		return fmt.Sprintf("path %q resolves through a symlink outside the project root (%s)", path, actual), false
	}
	for _, prefix := range p.restricted {
		if within(prefix, resolved) || within(prefix, actual) {
			return fmt.Sprintf("path %q is under restricted path %s", path, prefix), false
		}
	}
	for _, rel := range p.relatives(resolved, actual) {
		for _, rule := range p.globs {
			if rule.g.Match(rel) {
				return fmt.Sprintf("path %q matches restricted pattern %q", path, rule.pattern), false
			}
		}
	}
	return "", true
}

// relatives returns the root-relative slash forms of the lexical and real
// locations of a path.
func (p *Policy) relatives(resolved, actual string) []string {
	var out []string
	if rel, err := filepath.Rel(p.root, resolved); err == nil {
		out = append(out, filepath.ToSlash(rel))
	}
	if rel, err := filepath.Rel(p.realRoot, actual); err == nil && (len(out) == 0 || filepath.ToSlash(rel) != out[0]) {
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func destroysRoot(a *action.Action, p *Policy) bool {
	switch a.Kind {
	case action.DeleteFile, action.WriteFile, action.ReplaceInFile:
		return canonicalize(p.root, a.Path) == p.root
	case action.RenameFile:
		return canonicalize(p.root, a.From) == p.root || canonicalize(p.root, a.To) == p.root
	default:
		return false
	}
}

func (p *Policy) validateCommand(a *action.Action) action.Status {
	if !p.allowCommands {
		return action.Deny("running commands is disabled")
	}
	if strings.TrimSpace(a.Command) == "" {
		return action.Deny("empty command")
	}
	line := strings.ToLower(strings.Join(append([]string{a.Command}, a.Args...), " "))
	for _, denied := range p.deniedCommand {
		if strings.Contains(line, denied) {
			return action.Deny(fmt.Sprintf("command matches denied pattern %q", denied))
		}
	}
	return action.Approve()
}
