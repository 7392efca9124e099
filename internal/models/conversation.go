package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session history. Turns are never edited once
// appended.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Memory is the resolver's short-term state. Nothing reads it back yet.
type Memory struct {
	LastPerson *Mentor
	LastTopic  string
}
