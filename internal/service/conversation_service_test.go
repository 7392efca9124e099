package service

import (
	"sync"
	"testing"
	"time"

	"codeit-chatbot/internal/models"
	"codeit-chatbot/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConversationRecordExchange(t *testing.T) {
	conversations := NewConversationService(repository.NewSessionRepository(), zap.NewNop())

	assert.Empty(t, conversations.GetHistory("s1"))

	conversations.RecordExchange("s1", "hi", "Hey there!")
	history := conversations.RecordExchange("s1", "thanks", "You're welcome")

	require.Len(t, history, 4)
	assert.Equal(t, []models.Role{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleAssistant},
		[]models.Role{history[0].Role, history[1].Role, history[2].Role, history[3].Role})
	assert.Equal(t, "thanks", history[2].Content)
	assert.Equal(t, history, conversations.GetHistory("s1"))
	assert.Empty(t, conversations.GetHistory("s2"))
}

func TestConversationTimestampsNeverGoBackwards(t *testing.T) {
	conversations := NewConversationService(repository.NewSessionRepository(), zap.NewNop())

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Hour), base.Add(time.Minute)}
	calls := 0
	conversations.now = func() time.Time {
		ts := clock[calls%len(clock)]
		calls++
		return ts
	}

	conversations.AppendTurn("s", models.RoleUser, "one")
	conversations.AppendTurn("s", models.RoleAssistant, "two")
	conversations.AppendTurn("s", models.RoleUser, "three")

	history := conversations.GetHistory("s")
	require.Len(t, history, 3)
	assert.Equal(t, base, history[0].Timestamp)
	assert.Equal(t, base, history[1].Timestamp)
	assert.Equal(t, base.Add(time.Minute), history[2].Timestamp)
}

func TestConversationConcurrentExchanges(t *testing.T) {
	conversations := NewConversationService(repository.NewSessionRepository(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conversations.RecordExchange("shared", "question", "answer")
		}()
	}
	wg.Wait()

	history := conversations.GetHistory("shared")
	require.Len(t, history, 80)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, models.RoleUser, history[i].Role)
		assert.Equal(t, models.RoleAssistant, history[i+1].Role)
	}
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}

func TestNewSessionID(t *testing.T) {
	conversations := NewConversationService(repository.NewSessionRepository(), zap.NewNop())

	first := conversations.NewSessionID()
	second := conversations.NewSessionID()

	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
