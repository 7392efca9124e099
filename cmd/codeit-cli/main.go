package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"codeit-chatbot/internal/app"
	"codeit-chatbot/internal/service"
	"codeit-chatbot/pkg/config"
	"codeit-chatbot/pkg/logger"

	"github.com/spf13/cobra"
)

// cliSessionID keeps every REPL exchange in one conversation.
const cliSessionID = "cli"

// Chatter is the part of the chat service the REPL needs (allows mocking in tests).
type Chatter interface {
	Chat(ctx context.Context, sessionID, message string) (*service.ChatResult, error)
}

// ChatOptions for running the chat loop with custom dependencies
type ChatOptions struct {
	Chatter Chatter
	Message string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "codeit-cli",
	Short: "codeit-cli - CodeIT chatbot from the terminal",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in single message or REPL mode",
	RunE:  runChat,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the knowledge base embeddings and refresh the cache",
	RunE:  runIndex,
}

var (
	messageFlag string
	forceFlag   bool
)

func init() {
	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	indexCmd.Flags().BoolVar(&forceFlag, "force", false, "Ignore the cache and embed every entry again")
	rootCmd.AddCommand(chatCmd, indexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logger.Level); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(ctx, cfg, logger.Get())
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer logger.Sync()

	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.Warmup(ctx); err != nil {
		return err
	}

	return runChatWithOptions(ctx, ChatOptions{
		Chatter: container.Chat,
		Message: messageFlag,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	})
}

// runChatWithOptions runs the chat loop with injectable dependencies for testing
func runChatWithOptions(ctx context.Context, opts ChatOptions) error {
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Single message mode
	if opts.Message != "" {
		result, err := opts.Chatter.Chat(ctx, cliSessionID, opts.Message)
		if err != nil {
			return fmt.Errorf("chat error: %w", err)
		}
		fmt.Fprintln(stdout, result.Reply)
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "AI Chatbot Ready — type 'exit' to quit.")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, "exit") {
			break
		}

		result, err := opts.Chatter.Chat(ctx, cliSessionID, input)
		if errors.Is(err, service.ErrEmptyMessage) {
			fmt.Fprintln(stdout, "AI:", service.ReplyRephrase)
			continue
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(stdout, "AI:", result.Reply)
	}
	fmt.Fprintln(stdout, "Goodbye 👋")
	return scanner.Err()
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer logger.Sync()

	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	snapshot, err := container.Index.Rebuild(ctx, container.KnowledgeBase, forceFlag)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d knowledge base entries\n", len(snapshot.Texts))
	return nil
}
