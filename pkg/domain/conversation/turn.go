package conversation

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one attributed utterance in a conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Transcript accumulates turns in upstream receipt order. It is owned by a
// single bridge and needs no locking.
type Transcript struct {
	turns []Turn
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append records a turn. Text is trimmed; empty text is ignored. A turn whose
// role and text match the previous entry is dropped so that repeated upstream
// fragments do not inflate the transcript.
func (t *Transcript) Append(role, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if n := len(t.turns); n > 0 && t.turns[n-1].Role == role && t.turns[n-1].Text == text {
		return false
	}
	t.turns = append(t.turns, Turn{Role: role, Text: text})
	return true
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the accumulated turns.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Reset() {
	t.turns = t.turns[:0]
}
