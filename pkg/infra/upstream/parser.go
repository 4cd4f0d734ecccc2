package upstream

import (
	"encoding/base64"
	"fmt"

	"github.com/valyala/fastjson"
)

// ServerFrame is the decoded form of one upstream message. Field spellings on
// the wire vary between camelCase and snake_case across upstream versions, so
// both are accepted.
type ServerFrame struct {
	SetupComplete       bool
	Interrupted         bool
	InputTranscription  string
	OutputTranscription string
	ModelTexts          []string
	AudioChunks         [][]byte
}

// FrameParser decodes upstream frames. It reuses one fastjson parser, so a
// single goroutine must own it and every value is copied out before the next
// Parse call.
type FrameParser struct {
	parser fastjson.Parser
}

func NewFrameParser() *FrameParser {
	return &FrameParser{}
}

func (fp *FrameParser) Parse(data []byte) (*ServerFrame, error) {
	v, err := fp.parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("malformed upstream frame: %w", err)
	}

	frame := &ServerFrame{}
	if pick(v, "setupComplete", "setup_complete") != nil {
		frame.SetupComplete = true
	}

	serverContent := pick(v, "serverContent", "server_content")
	if serverContent == nil {
		return frame, nil
	}

	frame.Interrupted = serverContent.GetBool("interrupted")

	if t := pick(serverContent, "inputTranscription", "input_transcription"); t != nil {
		frame.InputTranscription = string(t.GetStringBytes("text"))
	}
	if t := pick(serverContent, "outputTranscription", "output_transcription"); t != nil {
		frame.OutputTranscription = string(t.GetStringBytes("text"))
	}

	modelTurn := pick(serverContent, "modelTurn", "model_turn")
	if modelTurn == nil {
		return frame, nil
	}

	for _, p := range modelTurn.GetArray("parts") {
		if text := p.GetStringBytes("text"); len(text) > 0 {
			frame.ModelTexts = append(frame.ModelTexts, string(text))
		}
		inline := pick(p, "inlineData", "inline_data")
		if inline == nil {
			continue
		}
		encoded := inline.GetStringBytes("data")
		if len(encoded) == 0 {
			continue
		}
		chunk, err := base64.StdEncoding.DecodeString(string(encoded))
		if err != nil {
			return nil, fmt.Errorf("invalid inline audio payload: %w", err)
		}
		frame.AudioChunks = append(frame.AudioChunks, chunk)
	}

	return frame, nil
}

func pick(v *fastjson.Value, keys ...string) *fastjson.Value {
	for _, key := range keys {
		if child := v.Get(key); child != nil {
			return child
		}
	}
	return nil
}
