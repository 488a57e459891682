package action

import (
	"fmt"
	"strings"
)

type Kind string

const (
	ReadFile      Kind = "read_file"
	WriteFile     Kind = "write_file"
	DeleteFile    Kind = "delete_file"
	RenameFile    Kind = "rename_file"
	RunCommand    Kind = "run_command"
	ListDir       Kind = "list_dir"
	SearchText    Kind = "search_text"
	CreateDir     Kind = "create_dir"
	ReplaceInFile Kind = "replace_in_file"
	FileInfo      Kind = "file_info"
)

// Mutates reports whether executing the kind can change the file tree.
func (k Kind) Mutates() bool {
	switch k {
	case WriteFile, DeleteFile, RenameFile, CreateDir, ReplaceInFile, RunCommand:
		return true
	default:
		return false
	}
}

type Verdict int

const (
	Pending Verdict = iota
	Approved
	Denied
)

func (v Verdict) String() string {
	switch v {
	case Pending:
		return "pending"
	case Approved:
		return "approved"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Status is the validation state of an action. Reason is set only when denied.
type Status struct {
	Verdict Verdict
	Reason  string
}

func Approve() Status { return Status{Verdict: Approved} }

func Deny(reason string) Status { return Status{Verdict: Denied, Reason: reason} }

func (s Status) String() string {
	if s.Verdict == Denied && s.Reason != "" {
		return "denied: " + s.Reason
	}
	return s.Verdict.String()
}

// Result is the outcome of executing an approved action.
type Result struct {
	OK bool
	// Detail is the success payload or the failure reason.
	Detail string
}

func Success(detail string) *Result { return &Result{OK: true, Detail: detail} }

func Failure(reason string) *Result { return &Result{OK: false, Detail: reason} }

// Action is one structured request extracted from AI text. Only the fields
// relevant to Kind are set.
type Action struct {
	Kind Kind

	Path    string
	Content string
	From    string
	To      string
	Command string
	Args    []string
	Pattern string
	Root    string
	Old     string
	New     string

	// Offset is the byte offset of the action's block in the parsed text.
	Offset int

	Status Status
	Result *Result
}

// Paths returns every filesystem path argument of the action, in argument order.
func (a *Action) Paths() []string {
	switch a.Kind {
	case RenameFile:
		return []string{a.From, a.To}
	case SearchText:
		return []string{a.Root}
	case RunCommand:
		return nil
	default:
		return []string{a.Path}
	}
}

// Succeeded reports whether the action ran and succeeded.
func (a *Action) Succeeded() bool {
	return a.Result != nil && a.Result.OK
}

// Describe renders a short human-readable form such as `write_file notes.txt`.
func (a *Action) Describe() string {
	switch a.Kind {
	case RenameFile:
		return fmt.Sprintf("%s %s -> %s", a.Kind, a.From, a.To)
	case RunCommand:
		if len(a.Args) == 0 {
			return fmt.Sprintf("%s %s", a.Kind, a.Command)
		}
		return fmt.Sprintf("%s %s %s", a.Kind, a.Command, strings.Join(a.Args, " "))
	case SearchText:
		return fmt.Sprintf("%s %q in %s", a.Kind, a.Pattern, a.Root)
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Path)
	}
}
