package action

import (
	"fmt"
	"strings"
)

var kindAliases = map[string]Kind{
	"readfile":        ReadFile,
	"writefile":       WriteFile,
	"createfile":      WriteFile,
	"deletefile":      DeleteFile,
	"removefile":      DeleteFile,
	"renamefile":      RenameFile,
	"movefile":        RenameFile,
	"runcommand":      RunCommand,
	"execute":         RunCommand,
	"executecommand":  RunCommand,
	"listdir":         ListDir,
	"listdirectory":   ListDir,
	"searchtext":      SearchText,
	"search":          SearchText,
	"searchfiles":     SearchText,
	"createdir":       CreateDir,
	"createdirectory": CreateDir,
	"mkdir":           CreateDir,
	"replaceinfile":   ReplaceInFile,
	"fileinfo":        FileInfo,
	"getfileinfo":     FileInfo,
}

// lookupKind resolves an action name or alias. Case, '_' and '-' are ignored,
// so "write_file", "write-file" and "WriteFile" are the same name.
func lookupKind(name string) (Kind, bool) {
	norm := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	k, ok := kindAliases[norm]
	return k, ok
}

type params map[string]string

// first returns the value of the first key present.
func (p params) first(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok {
			return v, true
		}
	}
	return "", false
}

func (p params) required(keys ...string) (string, error) {
	v, ok := p.first(keys...)
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", keys[0])
	}
	return v, nil
}

func (p params) path(keys ...string) (string, error) {
	v, err := p.required(keys...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("parameter %q is empty", keys[0])
	}
	return v, nil
}

func (p params) optional(def string, keys ...string) string {
	if v, ok := p.first(keys...); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// build turns a named parameter set into an Action.
func build(name string, raw map[string]string) (*Action, error) {
	kind, ok := lookupKind(name)
	if !ok {
		return nil, fmt.Errorf("unknown action")
	}
	p := params(raw)
	a := &Action{Kind: kind}
	var err error
	switch kind {
	case ReadFile, DeleteFile, CreateDir, FileInfo:
		a.Path, err = p.path("path", "file")
	case WriteFile:
		if a.Path, err = p.path("path", "file"); err == nil {
			a.Content, err = p.required("content")
		}
	case RenameFile:
		if a.From, err = p.path("from", "src", "source"); err == nil {
			a.To, err = p.path("to", "dest", "destination")
		}
	case RunCommand:
		err = buildCommand(a, p)
	case ListDir:
		a.Path = p.optional(".", "path", "dir")
	case SearchText:
		if a.Pattern, err = p.required("pattern", "query"); err == nil && a.Pattern == "" {
			err = fmt.Errorf("parameter %q is empty", "pattern")
		}
		a.Root = p.optional(".", "root", "directory", "dir", "path")
	case ReplaceInFile:
		if a.Path, err = p.path("path", "file"); err != nil {
			break
		}
		if a.Old, err = p.required("old"); err != nil {
			break
		}
		if a.Old == "" {
			err = fmt.Errorf("parameter %q is empty", "old")
			break
		}
		a.New, err = p.required("new")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func buildCommand(a *Action, p params) error {
	command, err := p.required("command", "cmd")
	if err != nil {
		return err
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("parameter %q is empty", "command")
	}
	args, hasArgs := p.first("args")
	if hasArgs {
		words, err := SplitWords(args)
		if err != nil {
			return fmt.Errorf("args: %w", err)
		}
		a.Command = command
		a.Args = words
		return nil
	}
	// A bare command line is split into program and arguments.
	words, err := SplitWords(command)
	if err != nil {
		return fmt.Errorf("command: %w", err)
	}
	if len(words) == 0 {
		return fmt.Errorf("parameter %q is empty", "command")
	}
	a.Command = words[0]
	a.Args = words[1:]
	if len(a.Args) == 0 {
		a.Args = nil
	}
	return nil
}
