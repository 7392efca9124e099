package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"codeit-chatbot/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChatter struct {
	messages []string
	sessions []string
	err      error
}

func (m *mockChatter) Chat(_ context.Context, sessionID, message string) (*service.ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, service.ErrEmptyMessage
	}
	m.messages = append(m.messages, message)
	m.sessions = append(m.sessions, sessionID)
	if m.err != nil {
		return nil, m.err
	}
	return &service.ChatResult{Reply: "reply to " + message, SessionID: sessionID}, nil
}

func TestRunChatWithOptions_REPL(t *testing.T) {
	chatter := &mockChatter{}
	var stdout, stderr bytes.Buffer

	err := runChatWithOptions(context.Background(), ChatOptions{
		Chatter: chatter,
		Stdin:   strings.NewReader("hello\n\n  what courses?  \nEXIT\nignored\n"),
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "what courses?"}, chatter.messages)
	assert.Equal(t, []string{cliSessionID, cliSessionID}, chatter.sessions)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "AI Chatbot Ready — type 'exit' to quit.\nYou: "))
	assert.Contains(t, out, "AI: reply to hello\nYou: AI: Can you please rephrase that? 😊\nYou: ")
	assert.Contains(t, out, "AI: reply to what courses?\n")
	assert.True(t, strings.HasSuffix(out, "Goodbye 👋\n"))
	assert.Empty(t, stderr.String())
}

func TestRunChatWithOptions_EOF(t *testing.T) {
	var stdout bytes.Buffer

	err := runChatWithOptions(context.Background(), ChatOptions{
		Chatter: &mockChatter{},
		Stdin:   strings.NewReader("hi"),
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "AI: reply to hi\n")
	assert.True(t, strings.HasSuffix(stdout.String(), "Goodbye 👋\n"))
}

func TestRunChatWithOptions_ErrorsGoToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := runChatWithOptions(context.Background(), ChatOptions{
		Chatter: &mockChatter{err: errors.New("index not ready")},
		Stdin:   strings.NewReader("hello\nexit\n"),
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, "Error: index not ready\n", stderr.String())
	assert.NotContains(t, stdout.String(), "AI:")
}

func TestRunChatWithOptions_SingleMessage(t *testing.T) {
	chatter := &mockChatter{}
	var stdout bytes.Buffer

	err := runChatWithOptions(context.Background(), ChatOptions{
		Chatter: chatter,
		Message: "do you offer demo classes?",
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, "reply to do you offer demo classes?\n", stdout.String())
}

func TestRunChatWithOptions_SingleMessageError(t *testing.T) {
	err := runChatWithOptions(context.Background(), ChatOptions{
		Chatter: &mockChatter{err: errors.New("boom")},
		Message: "hello",
		Stdout:  &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat error")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["chat"])
	assert.True(t, names["index"])

	assert.NotNil(t, chatCmd.Flags().Lookup("message"))
	assert.NotNil(t, indexCmd.Flags().Lookup("force"))
}
