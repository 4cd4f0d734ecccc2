package common

type contextKey string

const (
	UserIdContextKey    contextKey = "user_id"
	UserAgentContextKey contextKey = "user_agent"
)
