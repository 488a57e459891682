package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"agentide/internal/chat"
	"agentide/internal/config"
	"agentide/internal/executor"
	"agentide/internal/llm"
	"agentide/internal/mode"
	"agentide/internal/notify"
	"agentide/internal/safety"
	"agentide/internal/tools"
)

// stack is the non-UI half of the application, shared by the interactive UI
// and the headless run command.
type stack struct {
	root     string
	sink     *notify.Sink
	files    *tools.LocalFS
	policy   *safety.Policy
	executor *executor.Executor
	client   *llm.Client
	chat     *chat.Orchestrator
}

type stackOptions struct {
	sink     *notify.Sink
	modes    mode.Reader
	onChange func()
}

func buildStack(ctx context.Context, c config.Config, log *zap.Logger, opts stackOptions) (*stack, error) {
	durations, err := c.Validate()
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	policy, err := safety.NewPolicy(c.SafetyOptions(cwd))
	if err != nil {
		return nil, fmt.Errorf("safety policy: %w", err)
	}
	root := policy.Root()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	sink := opts.sink
	if sink == nil {
		sink = newSink(c, log)
	}
	files := tools.NewLocalFS()
	shell := &tools.Shell{Dir: root, Timeout: durations.Command}

	execOpts := []executor.Option{
		executor.WithLogger(log.Named("executor")),
		executor.WithProcessLauncher(shell),
	}
	if opts.onChange != nil {
		execOpts = append(execOpts, executor.WithOnChange(opts.onChange))
	}
	exec := executor.New(files, policy, opts.modes, sink, execOpts...)

	s := &stack{root: root, sink: sink, files: files, policy: policy, executor: exec}

	llmCfg, err := c.LLM()
	switch {
	case errors.Is(err, config.ErrNoAPIKey):
		log.Warn("no API key configured; chat disabled")
		return s, nil
	case err != nil:
		return nil, err
	}
	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return nil, err
	}
	s.client = client
	s.chat = chat.New(client, exec, opts.modes, sink,
		chat.WithLogger(log.Named("chat")),
		chat.WithContext(ctx),
		chat.WithTimeout(durations.Request),
		chat.WithHistoryLimit(c.Chat.HistoryLimit),
		chat.WithSystemPrompt(chat.SystemPrompt(root)),
		chat.WithTranscriptDir(c.StateDir),
	)
	log.Info("stack ready",
		zap.String("root", root),
		zap.String("model_type", string(client.Type())),
		zap.String("model", client.Model()),
		zap.Bool("commands", policy.CommandsAllowed()),
		zap.String("transcript", s.chat.TranscriptPath()),
	)
	return s, nil
}

func (s *stack) modelLabel() string {
	if s.client == nil {
		return "no model"
	}
	return strings.TrimSpace(string(s.client.Type()) + "/" + s.client.Model())
}

func newSink(c config.Config, log *zap.Logger) *notify.Sink {
	return notify.NewSink(c.Notifications.Capacity, notify.WithLogger(log.Named("notify")))
}
