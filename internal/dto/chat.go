package dto

// ChatRequest is the body of POST /chat. The bundled web client sends the
// session as sessionId; both spellings are accepted.
type ChatRequest struct {
	Message        string `json:"message" example:"What courses do you offer?"`
	SessionID      string `json:"session_id,omitempty" example:"2b7c1f0e-5d0a-4c1e-9d8e-0f4f0f1c2a3b"`
	SessionIDAlias string `json:"sessionId,omitempty" swaggerignore:"true"`
}

// Session returns the session identifier, preferring session_id.
func (r ChatRequest) Session() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.SessionIDAlias
}

type ChatTurn struct {
	Role      string `json:"role" example:"user"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp" example:"2025-01-01T12:00:00.000000000Z"`
}

type ChatResponse struct {
	Reply     string     `json:"reply"`
	SessionID string     `json:"session_id"`
	History   []ChatTurn `json:"history"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
