package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeit-chatbot/internal/models"

	"go.uber.org/zap"
)

// Generator is the generative-text capability.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// historyWindow is how many trailing turns are quoted in the prompt.
const historyWindow = 6

const systemPreamble = `You are an AI chatbot for CodeIT Institute.
Your role is to answer student questions strictly related to:
1. CodeIT Institute (courses, location, fees, etc.) based on the provided context.
2. Coding and IT-related technical problems.

If a user asks about anything else (e.g., general knowledge, politics, entertainment, personal advice), politely refuse and state that you can only answer questions about CodeIT or coding.

Maintain a helpful, friendly, and professional tone.
Use the provided context to answer questions about the institute. If the answer is not in the context, say you don't have that information.`

// GenerativeFallback asks the generative capability when retrieval alone is
// not confident enough. It never returns an error: failures come back as a
// diagnostic reply.
type GenerativeFallback struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGenerativeFallback accepts a nil generator, in which case Generate
// always returns "" and the resolver moves on to its keyword fallbacks.
func NewGenerativeFallback(generator Generator, timeout time.Duration, logger *zap.Logger) *GenerativeFallback {
	return &GenerativeFallback{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

func (f *GenerativeFallback) Enabled() bool {
	return f != nil && f.generator != nil
}

func (f *GenerativeFallback) Generate(ctx context.Context, query, retrieved string, history []models.Turn) string {
	if !f.Enabled() {
		return ""
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := f.generator.GenerateText(ctx, BuildPrompt(query, retrieved, history))
	if err != nil {
		f.logger.Warn("Generative fallback failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return fmt.Sprintf("LLM Error: %s", err)
	}

	f.logger.Debug("Generative fallback answered", zap.Duration("elapsed", time.Since(start)))
	return sanitizeUTF8(answer)
}

// BuildPrompt assembles the single prompt sent to the generative capability.
func BuildPrompt(query, retrieved string, history []models.Turn) string {
	var historyText string
	if len(history) > 0 {
		recent := history
		if len(recent) > historyWindow {
			recent = recent[len(recent)-historyWindow:]
		}
		lines := make([]string, 0, len(recent))
		for _, turn := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
		}
		historyText = "Conversation History:\n" + strings.Join(lines, "\n")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	b.WriteString(historyText)
	b.WriteString("\n\n### Context:\n")
	b.WriteString(retrieved)
	b.WriteString("\n\n### User Question:\n")
	b.WriteString(query)
	b.WriteString("\n\n### Final Answer:\n")
	return b.String()
}
