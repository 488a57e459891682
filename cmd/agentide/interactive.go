package main

import (
	"context"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentide/internal/focus"
	"agentide/internal/ide"
	"agentide/internal/mode"
	"agentide/internal/watch"
)

func runInteractive(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	signal := ide.NewTreeSignal()
	sink := newSink(cfg, logger)
	modes := mode.NewController(sink)
	s, err := buildStack(ctx, cfg, logger, stackOptions{sink: sink, modes: modes, onChange: signal.Notify})
	if err != nil {
		return err
	}

	deps := ide.Deps{
		Root:       s.root,
		Files:      s.files,
		Sink:       s.sink,
		Focus:      focus.NewManager(focus.Chat, s.sink),
		Modes:      modes,
		Chat:       s.chat,
		Signal:     signal,
		Logger:     logger.Named("ide"),
		Layout:     cfg.Layout,
		ModelLabel: s.modelLabel(),
	}
	if !clipboard.Unsupported {
		deps.Clipboard = clipboard.WriteAll
	}

	w, err := watch.New(s.root, watch.WithLogger(logger.Named("watch")))
	if err != nil {
		logger.Warn("file watcher disabled", zap.Error(err))
	} else {
		defer w.Close()
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("file watcher stopped", zap.Error(err))
			}
		}()
		deps.Changes = w.Changes()
	}

	return ide.Run(ctx, deps, os.Stdin, os.Stdout)
}
