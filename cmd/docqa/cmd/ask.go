package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docqa-dev/docqa/internal/agent"
)

func newAskCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question against the ingested documents",
		Example: `  docqa ask "What is the capital of France?"
  docqa ask --strategy hybrid "How does the billing module work?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy != "" {
				cfg.Retrieval.Strategy = strategy
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runAsk(cmd.Context(), strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Retrieval strategy: similarity, hybrid, multiquery (default from config)")
	return cmd
}

func runAsk(ctx context.Context, question string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	answer, err := a.agent.Ask(ctx, "", question)
	if err != nil {
		return err
	}

	printAnswer(answer.Text, answer.Sources)
	return nil
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive question-answering session",
		Long: `Chat keeps conversation history, so follow-up questions can refer
back to earlier answers. End the session with "exit" or Ctrl-D.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

func runChat(ctx context.Context) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	out.Println("Ask questions about your documents. Type \"exit\" to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			out.Println("")
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := a.agent.Ask(ctx, sessionID, question)
		if err != nil {
			out.Error("%v", err)
			continue
		}
		sessionID = answer.SessionID

		printAnswer(answer.Text, answer.Sources)
	}
}

func printAnswer(text string, sources []agent.Source) {
	out.Println("")
	out.Quote(text)
	if len(sources) > 0 {
		out.Println("")
		out.Heading("Sources")
		for _, s := range sources {
			out.Detail("%s (chunk %d, score %.4f)", s.Path, s.ChunkIndex, s.Score)
		}
	}
	out.Println("")
}
