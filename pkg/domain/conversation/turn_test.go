package conversation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

func TestTranscriptAppend(t *testing.T) {
	t.Run("it should record turns in order", func(t *testing.T) {
		tr := conversation.NewTranscript()

		assert.True(t, tr.Append(conversation.RoleUser, "hello"))
		assert.True(t, tr.Append(conversation.RoleAssistant, "hi there"))

		turns := tr.Turns()
		assert.Len(t, turns, 2)
		assert.Equal(t, conversation.RoleUser, turns[0].Role)
		assert.Equal(t, "hello", turns[0].Text)
		assert.Equal(t, conversation.RoleAssistant, turns[1].Role)
	})

	t.Run("it should trim whitespace and skip empty text", func(t *testing.T) {
		tr := conversation.NewTranscript()

		assert.False(t, tr.Append(conversation.RoleUser, "   "))
		assert.False(t, tr.Append(conversation.RoleUser, ""))
		assert.True(t, tr.Append(conversation.RoleUser, "  hola  "))

		turns := tr.Turns()
		assert.Len(t, turns, 1)
		assert.Equal(t, "hola", turns[0].Text)
	})

	t.Run("it should drop a repeated identical fragment", func(t *testing.T) {
		tr := conversation.NewTranscript()

		assert.True(t, tr.Append(conversation.RoleUser, "what is photosynthesis"))
		assert.False(t, tr.Append(conversation.RoleUser, "what is photosynthesis"))
		assert.False(t, tr.Append(conversation.RoleUser, " what is photosynthesis "))

		assert.Equal(t, 1, tr.Len())
	})

	t.Run("it should keep identical text when the role changes", func(t *testing.T) {
		tr := conversation.NewTranscript()

		assert.True(t, tr.Append(conversation.RoleUser, "ok"))
		assert.True(t, tr.Append(conversation.RoleAssistant, "ok"))

		assert.Equal(t, 2, tr.Len())
	})

	t.Run("it should keep successive different fragments from one role", func(t *testing.T) {
		tr := conversation.NewTranscript()

		assert.True(t, tr.Append(conversation.RoleAssistant, "the mitochondria"))
		assert.True(t, tr.Append(conversation.RoleAssistant, "is the powerhouse"))

		assert.Equal(t, 2, tr.Len())
	})

	t.Run("it should return an independent copy of the turns", func(t *testing.T) {
		tr := conversation.NewTranscript()
		tr.Append(conversation.RoleUser, "first")

		turns := tr.Turns()
		turns[0].Text = "mutated"

		assert.Equal(t, "first", tr.Turns()[0].Text)
	})

	t.Run("it should clear all turns on reset", func(t *testing.T) {
		tr := conversation.NewTranscript()
		tr.Append(conversation.RoleUser, "one")
		tr.Append(conversation.RoleAssistant, "two")

		tr.Reset()

		assert.Equal(t, 0, tr.Len())
		assert.Empty(t, tr.Turns())
	})
}
