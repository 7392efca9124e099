package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeit-chatbot/internal/models"

	"go.uber.org/zap"
)

var ErrEmptyMessage = errors.New("message must not be empty")

type ChatResult struct {
	Reply     string
	SessionID string
	History   []models.Turn
}

// Resolver answers a single question given the prior history.
type Resolver interface {
	Resolve(ctx context.Context, question string, history []models.Turn) (string, error)
}

// ChatService ties the resolver to the session store: one call is one
// user/assistant exchange.
type ChatService struct {
	resolver      Resolver
	conversations *ConversationService
	logger        *zap.Logger
}

func NewChatService(resolver Resolver, conversations *ConversationService, logger *zap.Logger) *ChatService {
	return &ChatService{
		resolver:      resolver,
		conversations: conversations,
		logger:        logger,
	}
}

// Chat resolves message within sessionID, generating a session identifier
// when none is given. A non-empty sessionID is used exactly as given. Nothing is recorded when resolution fails.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if sessionID == "" {
		sessionID = s.conversations.NewSessionID()
		s.logger.Info("Session started", zap.String("session_id", sessionID))
	}

	history := s.conversations.GetHistory(sessionID)
	reply, err := s.resolver.Resolve(ctx, message, history)
	if err != nil {
		s.logger.Error("Failed to resolve answer",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to resolve answer: %w", err)
	}

	return &ChatResult{
		Reply:     reply,
		SessionID: sessionID,
		History:   s.conversations.RecordExchange(sessionID, message, reply),
	}, nil
}
