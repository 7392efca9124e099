package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"codeit-chatbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildPromptLayout(t *testing.T) {
	prompt := BuildPrompt("Do you teach Go?", "refund\nenroll", nil)

	assert.True(t, strings.HasPrefix(prompt, "\nYou are an AI chatbot for CodeIT Institute."))
	assert.True(t, strings.HasSuffix(prompt, "### User Question:\nDo you teach Go?\n\n### Final Answer:\n"))
	assert.Contains(t, prompt, "### Context:\nrefund\nenroll")
	assert.NotContains(t, prompt, "Conversation History:")
}

func TestBuildPromptHistoryWindow(t *testing.T) {
	var history []models.Turn
	for i := 0; i < 8; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		history = append(history, models.Turn{Role: role, Content: fmt.Sprintf("turn-%d", i)})
	}

	prompt := BuildPrompt("q", "ctx", history)

	assert.Contains(t, prompt, "Conversation History:\nuser: turn-2\nassistant: turn-3")
	assert.Contains(t, prompt, "assistant: turn-7\n\n### Context:")
	assert.NotContains(t, prompt, "turn-0")
	assert.NotContains(t, prompt, "turn-1")
}

type deadlineGenerator struct {
	deadline time.Time
	ok       bool
}

func (g *deadlineGenerator) GenerateText(ctx context.Context, _ string) (string, error) {
	g.deadline, g.ok = ctx.Deadline()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateTimesOut(t *testing.T) {
	generator := &deadlineGenerator{}
	fallback := NewGenerativeFallback(generator, 20*time.Millisecond, zap.NewNop())

	got := fallback.Generate(context.Background(), "q", "ctx", nil)

	assert.True(t, generator.ok)
	assert.Equal(t, "LLM Error: context deadline exceeded", got)
}

func TestGenerateDisabled(t *testing.T) {
	fallback := NewGenerativeFallback(nil, time.Second, zap.NewNop())

	assert.False(t, fallback.Enabled())
	assert.Empty(t, fallback.Generate(context.Background(), "q", "ctx", nil))

	var missing *GenerativeFallback
	assert.Empty(t, missing.Generate(context.Background(), "q", "ctx", nil))
}

func TestGenerateSanitizesOutput(t *testing.T) {
	fallback := NewGenerativeFallback(&stubGenerator{reply: "ok\xff!"}, 0, zap.NewNop())

	got := fallback.Generate(context.Background(), "q", "ctx", nil)
	require.NotEmpty(t, got)
	assert.Equal(t, "ok!", got)
}
