package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"agentide/internal/chat"
	"agentide/internal/config"
	"agentide/internal/llm"
	"agentide/internal/mode"
	"agentide/internal/notify"
)

func newRunCmd() *cobra.Command {
	var (
		agentic bool
		notices bool
	)
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Send one prompt and print the reply",
		Long: `Send one prompt to the configured model and print the reply.

With --agentic the reply's action blocks are validated and executed in the
project root, and the execution report is printed after the reply. Without it
nothing on disk is touched.

The prompt is read from stdin when no argument (or "-") is given.`,
		Example: `  agentide run "summarize README.md"
  echo "create notes.txt saying hello" | agentide run --agentic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			current := mode.Normal
			if agentic {
				current = mode.Agentic
			}
			s, err := buildStack(cmd.Context(), cfg, logger, stackOptions{modes: mode.Fixed(current)})
			if err != nil {
				return err
			}
			if s.chat == nil {
				return fmt.Errorf("%w: set model.api_key or AGENTIDE_API_KEY", config.ErrNoAPIKey)
			}

			out, err := s.chat.Exchange(cmd.Context(), prompt)
			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			if notices || verbose {
				defer printNotifications(stderr, s.sink)
			}
			if err != nil {
				return fmt.Errorf("chat: %s", llm.Describe(err))
			}

			printOutcome(stdout, stderr, out)
			if out.Report != nil && out.Report.Succeeded < out.Report.Total() {
				return errors.New(out.Report.Summary())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&agentic, "agentic", false, "execute the reply's action blocks")
	cmd.Flags().BoolVar(&notices, "notifications", false, "print notifications to stderr when done")
	return cmd
}

func readPrompt(in io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}

// printOutcome writes the reply, then parse problems to stderr, then the
// execution report when there is one.
func printOutcome(stdout, stderr io.Writer, out chat.Outcome) {
	fmt.Fprintln(stdout, strings.TrimRight(out.Reply, "\n"))
	for _, perr := range out.Parsed.Errors {
		fmt.Fprintln(stderr, "parse:", perr)
	}
	if out.Report == nil {
		return
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, out.Report.Format())
}

func printNotifications(w io.Writer, sink *notify.Sink) {
	for _, e := range sink.Snapshot() {
		fmt.Fprintf(w, "%s %-14s %s\n", e.Timestamp.Format("15:04:05"), e.Kind, e.Message)
	}
}
