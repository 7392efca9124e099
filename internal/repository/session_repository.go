package repository

import (
	"sync"

	"codeit-chatbot/internal/models"
)

// SessionRepository keeps conversation histories in process memory. Sessions
// are never evicted, so a long running process grows without bound.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
}

type sessionLog struct {
	mu    sync.Mutex
	turns []models.Turn
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*sessionLog),
	}
}

// History returns a copy of the session's turns, or nil for an unknown session.
func (r *SessionRepository) History(sessionID string) []models.Turn {
	r.mu.RLock()
	log, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	return cloneTurns(log.turns)
}

// Update runs fn with the session's turns while holding that session's lock
// and stores the slice fn returns. Other sessions are not blocked. The
// session is created on first use.
func (r *SessionRepository) Update(sessionID string, fn func(turns []models.Turn) []models.Turn) []models.Turn {
	log := r.getOrCreate(sessionID)

	log.mu.Lock()
	defer log.mu.Unlock()
	log.turns = fn(log.turns)
	return cloneTurns(log.turns)
}

func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRepository) getOrCreate(sessionID string) *sessionLog {
	r.mu.RLock()
	log, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return log
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if log, ok = r.sessions[sessionID]; !ok {
		log = &sessionLog{}
		r.sessions[sessionID] = log
	}
	return log
}

func cloneTurns(turns []models.Turn) []models.Turn {
	if turns == nil {
		return nil
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}
