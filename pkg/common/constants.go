package common

const (
	// VoiceSessionQuotaTag labels quota reservations and settlements that
	// originate from voice sessions.
	VoiceSessionQuotaTag = "voice_session"
)
