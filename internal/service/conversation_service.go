package service

import (
	"time"

	"codeit-chatbot/internal/models"
	"codeit-chatbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationService records per-session turn histories. Histories live for
// the lifetime of the process only.
type ConversationService struct {
	repo   *repository.SessionRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewConversationService(repo *repository.SessionRepository, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// NewSessionID returns a random session identifier.
func (s *ConversationService) NewSessionID() string {
	return uuid.NewString()
}

// AppendTurn adds a single turn to the session, creating the session when it
// does not exist.
func (s *ConversationService) AppendTurn(sessionID string, role models.Role, content string) {
	s.repo.Update(sessionID, func(turns []models.Turn) []models.Turn {
		return append(turns, s.stamp(turns, role, content))
	})
}

// GetHistory returns the session's turns in append order.
func (s *ConversationService) GetHistory(sessionID string) []models.Turn {
	return s.repo.History(sessionID)
}

// RecordExchange appends the user message and the assistant reply as one
// unit, so concurrent requests on the same session never interleave.
func (s *ConversationService) RecordExchange(sessionID, message, reply string) []models.Turn {
	history := s.repo.Update(sessionID, func(turns []models.Turn) []models.Turn {
		turns = append(turns, s.stamp(turns, models.RoleUser, message))
		return append(turns, s.stamp(turns, models.RoleAssistant, reply))
	})

	s.logger.Debug("Exchange recorded",
		zap.String("session_id", sessionID),
		zap.Int("turns", len(history)),
	)
	return history
}

// stamp builds a turn whose timestamp is never earlier than the last one in
// the session, even if the wall clock steps backwards.
func (s *ConversationService) stamp(turns []models.Turn, role models.Role, content string) models.Turn {
	ts := s.now().UTC()
	if n := len(turns); n > 0 && ts.Before(turns[n-1].Timestamp) {
		ts = turns[n-1].Timestamp
	}
	return models.Turn{Role: role, Content: content, Timestamp: ts}
}
