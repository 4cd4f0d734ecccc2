package telemetry

import "time"

const (
	EventSessionStarted = "session_started"
	EventSessionStopped = "session_stopped"
)

// ClientInfo describes the device behind a session, parsed from the upgrade
// request.
type ClientInfo struct {
	Device  string `json:"device,omitempty"`
	OS      string `json:"os,omitempty"`
	Browser string `json:"browser,omitempty"`
	Locale  string `json:"locale,omitempty"`
}

type SessionEvent struct {
	Kind       string     `json:"kind"`
	SessionID  string     `json:"session_id"`
	UserID     string     `json:"user_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
	TurnCount  int        `json:"turn_count,omitempty"`
	Client     ClientInfo `json:"client"`
}
