package upstream_test

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/studiumlabs/voicebridge/pkg/infra/upstream"
)

func TestSetupFrame(t *testing.T) {
	frame, err := upstream.SetupFrame("gemini-2.0-flash-live-001", "You are a study tutor.")
	assert.NoError(t, err)

	expected := `{
		"setup": {
			"model": "models/gemini-2.0-flash-live-001",
			"generation_config": {"response_modalities": ["AUDIO"]},
			"system_instruction": {"parts": [{"text": "You are a study tutor."}]},
			"input_audio_transcription": {},
			"output_audio_transcription": {}
		}
	}`
	assert.JSONEq(t, expected, string(frame))
}

func TestSetupFrame_PrefixedModelAndNoInstruction(t *testing.T) {
	frame, err := upstream.SetupFrame("models/gemini-2.0-flash-live-001", "")
	assert.NoError(t, err)

	assert.Contains(t, string(frame), `"model":"models/gemini-2.0-flash-live-001"`)
	assert.NotContains(t, string(frame), "system_instruction")
}

func TestAudioFrame(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	frame, err := upstream.AudioFrame(pcm)
	assert.NoError(t, err)

	expected := fmt.Sprintf(`{
		"realtime_input": {
			"media_chunks": [{"mime_type": "audio/pcm;rate=16000", "data": "%s"}]
		}
	}`, base64.StdEncoding.EncodeToString(pcm))
	assert.JSONEq(t, expected, string(frame))
}

func TestTextTurnFrame(t *testing.T) {
	frame, err := upstream.TextTurnFrame("Greet the student.")
	assert.NoError(t, err)

	expected := `{
		"client_content": {
			"turns": [{"role": "user", "parts": [{"text": "Greet the student."}]}],
			"turn_complete": true
		}
	}`
	assert.JSONEq(t, expected, string(frame))
}
