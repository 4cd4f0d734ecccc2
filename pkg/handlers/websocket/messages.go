package websocket

// Control message types exchanged with clients as JSON text frames. Binary
// frames carry raw PCM with no envelope.
const (
	TypeStartSession     = "start_session"
	TypeStop             = "stop"
	TypePing             = "ping"
	TypeSessionStarted   = "session_started"
	TypeStopped          = "stopped"
	TypePong             = "pong"
	TypeTranscription    = "transcription"
	TypeAssistantMessage = "assistant_message"
	TypeInterrupted      = "interrupted"
	TypeError            = "error"
)

// Error codes carried by error frames and REST error bodies.
const (
	CodeAuthenticationFailed = "authentication_failed"
	CodeAlreadyActive        = "already_active"
	CodeSessionNotFound      = "session_not_found"
	CodeForbidden            = "forbidden"
	CodeQuotaExceeded        = "quota_exceeded"
	CodeUpstreamUnavailable  = "upstream_unavailable"
	CodeInvalidMessage       = "invalid_message"
	CodeInternalError        = "internal_error"
)

type ControlMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
}

type ServerMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func errorMessage(sessionID, code, message string) ServerMessage {
	return ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Code:      code,
		Message:   message,
	}
}
