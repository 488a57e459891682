package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"agentide/internal/action"
	"agentide/internal/mode"
	"agentide/internal/notify"
	"agentide/internal/safety"
	"agentide/internal/tools"
)

// Filesystem is the set of file effects an action can request. Paths passed to
// it are already canonical and approved.
type Filesystem interface {
	Read(path string) (string, error)
	Write(path, content string) error
	Delete(path string) error
	Rename(from, to string) error
	ListDir(path string) ([]tools.DirEntry, error)
	MkdirAll(path string) error
	Replace(path, old, new string) (int, error)
	Stat(path string) (tools.FileStat, error)
	Search(ctx context.Context, root, query string) (tools.SearchResult, error)
}

type ProcessLauncher interface {
	Run(ctx context.Context, command string, args []string) (tools.ProcessResult, error)
}

type Executor struct {
	fs       Filesystem
	proc     ProcessLauncher
	policy   *safety.Policy
	modes    mode.Reader
	notifier notify.Notifier
	logger   *zap.Logger
	onChange func()
}

type Option func(*Executor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOnChange registers fn to run once after a batch in which at least one
// action that can modify the tree succeeded.
func WithOnChange(fn func()) Option {
	return func(e *Executor) { e.onChange = fn }
}

func WithProcessLauncher(proc ProcessLauncher) Option {
	return func(e *Executor) { e.proc = proc }
}

func New(fs Filesystem, policy *safety.Policy, modes mode.Reader, notifier notify.Notifier, opts ...Option) *Executor {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	e := &Executor{
		fs:       fs,
		policy:   policy,
		modes:    modes,
		notifier: notifier,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Policy() *safety.Policy {
	return e.policy
}

// Run executes actions sequentially in order. Every action ends with a Status
// and, when approved, a Result; a failure never stops the batch. One
// FileOperation notification summarizes a non-empty batch.
func (e *Executor) Run(ctx context.Context, actions []*action.Action) Report {
	report := Report{Actions: actions}
	if len(actions) == 0 {
		return report
	}
	changed := false
	for _, a := range actions {
		e.runOne(ctx, a)
		switch {
		case a.Status.Verdict == action.Denied:
			report.Denied++
		case a.Succeeded():
			report.Succeeded++
			if a.Kind.Mutates() {
				changed = true
			}
		default:
			report.Failed++
		}
	}
	e.notifier.Notify(notify.KindFileOperation, report.Summary())
	e.logger.Info("action batch finished",
		zap.Int("total", report.Total()),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("denied", report.Denied),
	)
	if changed && e.onChange != nil {
		e.onChange()
	}
	return report
}

func (e *Executor) runOne(ctx context.Context, a *action.Action) {
	a.Result = nil
	if current := e.currentMode(); current != mode.Agentic {
		a.Status = action.Deny("mode is " + current.String())
		e.denied(a)
		return
	}
	a.Status = safety.Validate(a, e.policy)
	if a.Status.Verdict != action.Approved {
		e.denied(a)
		return
	}

	start := time.Now()
	detail, err := e.perform(ctx, a)
	if err != nil {
		a.Result = action.Failure(err.Error())
		e.notifier.Notify(notify.KindInfo, fmt.Sprintf("failed: %s: %v", a.Describe(), err))
	} else {
		a.Result = action.Success(detail)
	}
	e.logger.Debug("action executed",
		zap.String("action", string(a.Kind)),
		zap.String("target", a.Describe()),
		zap.Bool("ok", err == nil),
		zap.Duration("duration", time.Since(start)),
	)
}

func (e *Executor) currentMode() mode.Mode {
	if e.modes == nil {
		return mode.Normal
	}
	return e.modes.Current()
}

func (e *Executor) denied(a *action.Action) {
	e.notifier.Notify(notify.KindInfo, fmt.Sprintf("denied: %s: %s", a.Describe(), a.Status.Reason))
	e.logger.Info("action denied",
		zap.String("action", string(a.Kind)),
		zap.String("target", a.Describe()),
		zap.String("verdict", a.Status.Reason),
	)
}

func (e *Executor) perform(ctx context.Context, a *action.Action) (string, error) {
	if e.fs == nil {
		return "", errors.New("no filesystem configured")
	}
	resolve := e.policy.Resolve
	switch a.Kind {
	case action.ReadFile:
		return e.fs.Read(resolve(a.Path))

	case action.WriteFile:
		path := resolve(a.Path)
		verb := "created"
		if _, err := e.fs.Stat(path); err == nil {
			verb = "updated"
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if err := e.fs.Write(path, a.Content); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s (%d bytes)", verb, a.Path, len(a.Content)), nil

	case action.DeleteFile:
		if err := e.fs.Delete(resolve(a.Path)); err != nil {
			return "", err
		}
		return "deleted " + a.Path, nil

	case action.RenameFile:
		if err := e.fs.Rename(resolve(a.From), resolve(a.To)); err != nil {
			return "", err
		}
		return fmt.Sprintf("renamed %s to %s", a.From, a.To), nil

	case action.CreateDir:
		if err := e.fs.MkdirAll(resolve(a.Path)); err != nil {
			return "", err
		}
		return "created directory " + a.Path, nil

	case action.ReplaceInFile:
		n, err := e.fs.Replace(resolve(a.Path), a.Old, a.New)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("replaced %d occurrence(s) in %s", n, a.Path), nil

	case action.ListDir:
		entries, err := e.fs.ListDir(resolve(a.Path))
		if err != nil {
			return "", err
		}
		return tools.FormatEntries(entries), nil

	case action.SearchText:
		res, err := e.fs.Search(ctx, resolve(a.Root), a.Pattern)
		if err != nil {
			return "", err
		}
		return res.Format(), nil

	case action.FileInfo:
		st, err := e.fs.Stat(resolve(a.Path))
		if err != nil {
			return "", err
		}
		st.Path = a.Path
		return st.Format(), nil

	case action.RunCommand:
		return e.runCommand(ctx, a)

	default:
		return "", fmt.Errorf("unsupported action %q", a.Kind)
	}
}

func (e *Executor) runCommand(ctx context.Context, a *action.Action) (string, error) {
	if e.proc == nil {
		return "", errors.New("no process launcher configured")
	}
	res, err := e.proc.Run(ctx, a.Command, a.Args)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		msg := fmt.Sprintf("exit code %d", res.ExitCode)
		if res.Stderr != "" {
			msg += ": " + firstLine(res.Stderr)
		}
		return "", errors.New(msg)
	}
	return res.Format(), nil
}
