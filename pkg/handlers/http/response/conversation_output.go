package response

import "github.com/google/uuid"

type ConversationOutput struct {
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
	UserID    string    `json:"user_id,omitempty"`
}

type ListConversationsOutput struct {
	Sessions []ConversationOutput `json:"sessions"`
}
