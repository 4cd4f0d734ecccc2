package upstream

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	audioMIMEType = "audio/pcm;rate=16000"
	modelPrefix   = "models/"
)

type emptyObject struct{}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseModalities []string `json:"response_modalities"`
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generation_config"`
	SystemInstruction        *content         `json:"system_instruction,omitempty"`
	InputAudioTranscription  emptyObject      `json:"input_audio_transcription"`
	OutputAudioTranscription emptyObject      `json:"output_audio_transcription"`
}

type setupFrame struct {
	Setup setupPayload `json:"setup"`
}

type mediaChunk struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"media_chunks"`
}

type audioFrame struct {
	RealtimeInput realtimeInput `json:"realtime_input"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turn_complete"`
}

type textTurnFrame struct {
	ClientContent clientContent `json:"client_content"`
}

// SetupFrame builds the handshake frame announcing the model, AUDIO response
// modality and both transcription streams.
func SetupFrame(model, systemInstruction string) ([]byte, error) {
	if !strings.HasPrefix(model, modelPrefix) {
		model = modelPrefix + model
	}
	payload := setupPayload{
		Model: model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &content{
			Parts: []part{{Text: systemInstruction}},
		}
	}
	return json.Marshal(setupFrame{Setup: payload})
}

// AudioFrame wraps a raw PCM chunk into the realtime-input envelope.
func AudioFrame(pcm []byte) ([]byte, error) {
	frame := audioFrame{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: audioMIMEType,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	}
	return json.Marshal(frame)
}

// TextTurnFrame builds a complete user text turn, used for the synthetic
// greeting prompt.
func TextTurnFrame(text string) ([]byte, error) {
	frame := textTurnFrame{
		ClientContent: clientContent{
			Turns: []content{{
				Role:  "user",
				Parts: []part{{Text: text}},
			}},
			TurnComplete: true,
		},
	}
	return json.Marshal(frame)
}
