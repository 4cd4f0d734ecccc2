package upstream_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/studiumlabs/voicebridge/pkg/infra/upstream"
)

func TestFrameParser_SetupComplete(t *testing.T) {
	parser := upstream.NewFrameParser()

	frame, err := parser.Parse([]byte(`{"setupComplete": {}}`))
	assert.NoError(t, err)
	assert.True(t, frame.SetupComplete)

	frame, err = parser.Parse([]byte(`{"setup_complete": {}}`))
	assert.NoError(t, err)
	assert.True(t, frame.SetupComplete)
}

func TestFrameParser_CamelCaseContent(t *testing.T) {
	parser := upstream.NewFrameParser()
	audio := base64.StdEncoding.EncodeToString([]byte{0x10, 0x20})

	frame, err := parser.Parse([]byte(`{
		"serverContent": {
			"interrupted": true,
			"inputTranscription": {"text": "what is osmosis"},
			"outputTranscription": {"text": "Osmosis is"},
			"modelTurn": {
				"parts": [
					{"text": "Osmosis is diffusion of water."},
					{"inlineData": {"mimeType": "audio/pcm", "data": "` + audio + `"}}
				]
			}
		}
	}`))
	assert.NoError(t, err)
	assert.False(t, frame.SetupComplete)
	assert.True(t, frame.Interrupted)
	assert.Equal(t, "what is osmosis", frame.InputTranscription)
	assert.Equal(t, "Osmosis is", frame.OutputTranscription)
	assert.Equal(t, []string{"Osmosis is diffusion of water."}, frame.ModelTexts)
	assert.Equal(t, [][]byte{{0x10, 0x20}}, frame.AudioChunks)
}

func TestFrameParser_SnakeCaseContent(t *testing.T) {
	parser := upstream.NewFrameParser()

	frame, err := parser.Parse([]byte(`{
		"server_content": {
			"input_transcription": {"text": "hello"},
			"output_transcription": {"text": "hi there"},
			"model_turn": {"parts": [{"text": "Hi!"}]}
		}
	}`))
	assert.NoError(t, err)
	assert.Equal(t, "hello", frame.InputTranscription)
	assert.Equal(t, "hi there", frame.OutputTranscription)
	assert.Equal(t, []string{"Hi!"}, frame.ModelTexts)
	assert.False(t, frame.Interrupted)
}

func TestFrameParser_UnknownFrame(t *testing.T) {
	parser := upstream.NewFrameParser()

	frame, err := parser.Parse([]byte(`{"usageMetadata": {"totalTokenCount": 12}}`))
	assert.NoError(t, err)
	assert.Equal(t, &upstream.ServerFrame{}, frame)
}

func TestFrameParser_MalformedJSON(t *testing.T) {
	parser := upstream.NewFrameParser()

	_, err := parser.Parse([]byte(`{"serverContent":`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed upstream frame")
}

func TestFrameParser_InvalidInlineAudio(t *testing.T) {
	parser := upstream.NewFrameParser()

	_, err := parser.Parse([]byte(`{
		"serverContent": {"modelTurn": {"parts": [{"inlineData": {"data": "%%%not-base64%%%"}}]}}
	}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid inline audio payload")
}
