package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentide/internal/chat"
	"agentide/internal/config"
	"agentide/internal/llm"
	"agentide/internal/mode"
)

const chatHelp = `commands:
  /clear  forget the conversation (the system prompt stays)
  /help   show this help
  /exit   leave (also /quit or end of input)`

func newChatCmd() *cobra.Command {
	var agentic bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model line by line, without the UI",
		Long: `Read prompts from stdin one line at a time and print each reply.

With --agentic every reply's action blocks are validated and executed in the
project root and the execution report follows the reply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			fmt.Fprintf(cmd.OutOrStdout(), "%s in %s (%s). /help for commands.\n", s.modelLabel(), s.root, current)
			return chatLoop(cmd.Context(), s.chat, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&agentic, "agentic", false, "execute the replies' action blocks")
	return cmd
}

// chatLoop runs until /exit, end of input or ctx ends. A failed request is
// reported and the loop goes on.
func chatLoop(ctx context.Context, c *chat.Orchestrator, in io.Reader, stdout, stderr io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/help":
			fmt.Fprintln(stdout, chatHelp)
			continue
		case "/clear":
			if err := c.Clear(); err != nil {
				fmt.Fprintln(stderr, "clear:", err)
			} else {
				fmt.Fprintln(stdout, "conversation cleared")
			}
			continue
		}
		if strings.HasPrefix(text, "/") {
			fmt.Fprintf(stderr, "unknown command %s; /help lists them\n", text)
			continue
		}

		out, err := c.Exchange(ctx, text)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Warn("chat exchange failed", zap.Error(err))
			fmt.Fprintln(stderr, "chat:", llm.Describe(err))
			continue
		}
		printOutcome(stdout, stderr, out)
	}
}
