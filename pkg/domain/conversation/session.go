package conversation

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive  = "active"
	StatusStopped = "stopped"
)

// Session is the ephemeral record backing one voice conversation. It lives
// only in the registry; restarts drop all sessions.
type Session struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	Status            string    `json:"status"`
	SystemInstruction string    `json:"system_instruction,omitempty"`
	CourseID          string    `json:"course_id,omitempty"`
	TopicID           string    `json:"topic_id,omitempty"`
	ChatSessionID     string    `json:"chat_session_id,omitempty"`
	StudySessionID    string    `json:"study_session_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	LastSeenAt        time.Time `json:"last_seen_at"`
}

// Attributes carries the optional fields a caller may set at creation time.
type Attributes struct {
	SystemInstruction string
	CourseID          string
	TopicID           string
	ChatSessionID     string
	StudySessionID    string
}

func NewSession(userID string, attrs Attributes) *Session {
	now := time.Now()
	return &Session{
		ID:                uuid.New(),
		UserID:            userID,
		Status:            StatusActive,
		SystemInstruction: attrs.SystemInstruction,
		CourseID:          attrs.CourseID,
		TopicID:           attrs.TopicID,
		ChatSessionID:     attrs.ChatSessionID,
		StudySessionID:    attrs.StudySessionID,
		CreatedAt:         now,
		LastSeenAt:        now,
	}
}

func (s *Session) OwnedBy(userID string) bool {
	return s.UserID == userID
}
