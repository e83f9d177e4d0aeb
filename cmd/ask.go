package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/crystaldolphin/pillpal/internal/agent"
	"github.com/crystaldolphin/pillpal/internal/dependency"
	"github.com/crystaldolphin/pillpal/internal/schema"
	"github.com/crystaldolphin/pillpal/internal/shared/cmdutils"
)

var (
	askMessage string
	askUserID  string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Chat with the companion from the terminal",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMessage, "message", "m", "", "Send a single message and exit")
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "", "User id passed to the tools")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runAsk(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg, log)
	if err != nil {
		return err
	}
	pipeline := container.Pipeline()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if askMessage != "" {
		_, err := askOnce(ctx, pipeline, schema.NewMessages(schema.NewUserMessage(askMessage)))
		return err
	}
	return runInteractive(ctx, pipeline)
}

// askOnce sends history to the pipeline, prints the reply and returns it.
func askOnce(ctx context.Context, pipeline *agent.Pipeline, history schema.Messages) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	turn := agent.Turn{RequestID: uuid.NewString(), UserID: askUserID, History: history}
	reply, err := pipeline.Reply(ctx, turn, func(hint string) {
		fmt.Fprintf(os.Stderr, "  ↳ %s\n", hint)
	})
	if err != nil {
		return "", err
	}
	cmdutils.PrintResponse(reply.Text)
	return reply.Text, nil
}

// runInteractive reads lines from stdin and keeps the transcript locally,
// sending the whole history on every turn.
func runInteractive(ctx context.Context, pipeline *agent.Pipeline) error {
	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit)\n\n", logo)

	history := schema.NewMessages()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")

		if !scanner.Scan() || ctx.Err() != nil {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		next := history.With(schema.NewUserMessage(line))
		reply, err := askOnce(ctx, pipeline, next)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		history = next.With(schema.NewAssistantMessage(reply, nil))
	}
}
