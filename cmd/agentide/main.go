package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentide/internal/appinfo"
	"agentide/internal/config"
	"agentide/internal/logging"
)

var (
	cfgFile string
	verbose bool
	rootDir string

	cfg    config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agentide",
		Short: "Terminal IDE with an AI chat that can act on the project",
		Long: `agentide is a terminal IDE: a file explorer, an editor, notifications and an
AI chat panel on one screen.

In agentic mode (ctrl+a) the assistant's action blocks are validated against the
safety policy and executed inside the project root. Everywhere else the
assistant only talks.

Run without arguments to start the interactive UI.`,
		Version:       appinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			if rootDir != "" {
				cfg.Project.Root = rootDir
			}
			// The interactive UI owns the terminal, so everything logs to a file.
			logger, err = logging.New(logging.Options{Dir: cfg.StateDir, Level: cfg.Log.Level, Verbose: verbose})
			if err != nil {
				return err
			}
			logger = logger.With(zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/agentide/agentide.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root (overrides project.root)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
