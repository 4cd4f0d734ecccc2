package websocket_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/handlers/websocket"
	"github.com/studiumlabs/voicebridge/pkg/infra/upstream"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordingSink struct {
	mu       sync.Mutex
	messages []websocket.ServerMessage
	audio    [][]byte
}

func (s *recordingSink) SendMessage(msg websocket.ServerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSink) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(chunk))
	copy(copied, chunk)
	s.audio = append(s.audio, copied)
	return nil
}

func (s *recordingSink) messagesOfType(messageType string) []websocket.ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []websocket.ServerMessage
	for _, msg := range s.messages {
		if msg.Type == messageType {
			out = append(out, msg)
		}
	}
	return out
}

func (s *recordingSink) audioChunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.audio))
	copy(out, s.audio)
	return out
}

func upstreamConfig(serverURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		URL:              serverURL,
		Model:            "gemini-2.0-flash-live-001",
		APIKey:           "test-key",
		HandshakeTimeout: 2 * time.Second,
		AudioQueueSize:   8,
	}
}

func websocketConfig() config.WebsocketConfig {
	return config.WebsocketConfig{
		PongWait:   30 * time.Second,
		PingPeriod: time.Minute,
	}
}

func startBridge(
	t *testing.T,
	cfg config.UpstreamConfig,
	sess *conversation.Session,
	sink websocket.Sink,
) (*websocket.Bridge, chan websocket.BridgeResult) {
	t.Helper()

	results := make(chan websocket.BridgeResult, 1)
	bridge := websocket.NewBridge(
		upstream.NewDialer(cfg, quietLogger()),
		cfg,
		websocketConfig(),
		sess,
		sink,
		func(result websocket.BridgeResult) { results <- result },
		quietLogger(),
	)
	go bridge.Run(context.Background())
	return bridge, results
}

func awaitDone(t *testing.T, bridge *websocket.Bridge) {
	t.Helper()
	select {
	case <-bridge.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not tear down in time")
	}
}

func TestBridge_HandshakeAndRelay(t *testing.T) {
	upgrader := gorilla.Upgrader{}
	received := make(chan []byte, 8)
	assistantAudio := []byte{0xAA, 0xBB, 0xCC}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, setup, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- setup
		if err := conn.WriteMessage(gorilla.TextMessage, []byte(`{"setupComplete": {}}`)); err != nil {
			return
		}

		_, audio, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- audio

		content := `{
			"serverContent": {
				"interrupted": true,
				"inputTranscription": {"text": "what is osmosis"},
				"outputTranscription": {"text": "Osmosis is the diffusion of water."},
				"modelTurn": {"parts": [{"inlineData": {"mimeType": "audio/pcm", "data": "` +
			base64.StdEncoding.EncodeToString(assistantAudio) + `"}}]}
			}
		}`
		if err := conn.WriteMessage(gorilla.TextMessage, []byte(content)); err != nil {
			return
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	sess := conversation.NewSession("user-1", conversation.Attributes{
		SystemInstruction: "You are a study tutor.",
		TopicID:           "topic-1",
	})
	sink := &recordingSink{}
	bridge, results := startBridge(t, upstreamConfig(server.URL), sess, sink)

	select {
	case <-bridge.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not become ready")
	}

	setup := <-received
	assert.Contains(t, string(setup), `"models/gemini-2.0-flash-live-001"`)
	assert.Contains(t, string(setup), "You are a study tutor.")

	bridge.EnqueueAudio([]byte{0x01, 0x02})

	audioFrame := <-received
	assert.JSONEq(t, `{
		"realtime_input": {
			"media_chunks": [{"mime_type": "audio/pcm;rate=16000", "data": "AQI="}]
		}
	}`, string(audioFrame))

	assert.Eventually(t, func() bool {
		return len(sink.messagesOfType(websocket.TypeTranscription)) == 1 &&
			len(sink.messagesOfType(websocket.TypeAssistantMessage)) == 1 &&
			len(sink.messagesOfType(websocket.TypeInterrupted)) == 1 &&
			len(sink.audioChunks()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	transcriptions := sink.messagesOfType(websocket.TypeTranscription)
	assert.Equal(t, "what is osmosis", transcriptions[0].Text)
	assert.Equal(t, sess.ID.String(), transcriptions[0].SessionID)
	assert.Equal(t, "Osmosis is the diffusion of water.", sink.messagesOfType(websocket.TypeAssistantMessage)[0].Text)
	assert.Equal(t, assistantAudio, sink.audioChunks()[0])

	bridge.EndInput()
	awaitDone(t, bridge)
	assert.NoError(t, bridge.Err())

	result := <-results
	assert.NoError(t, result.Err)
	assert.False(t, result.StartedAt.IsZero())
	assert.False(t, result.EndedAt.Before(result.StartedAt))
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Text: "what is osmosis"},
		{Role: conversation.RoleAssistant, Text: "Osmosis is the diffusion of water."},
	}, result.Turns)
}

func TestBridge_HandshakeTimeout(t *testing.T) {
	upgrader := gorilla.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Never send the completion marker.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := upstreamConfig(server.URL)
	cfg.HandshakeTimeout = 200 * time.Millisecond

	sess := conversation.NewSession("user-1", conversation.Attributes{})
	sink := &recordingSink{}
	bridge, results := startBridge(t, cfg, sess, sink)

	awaitDone(t, bridge)
	assert.True(t, domain.IsUpstreamUnavailableError(bridge.Err()))

	select {
	case <-bridge.Ready():
		t.Fatal("bridge must not report ready after a failed handshake")
	default:
	}

	errorFrames := sink.messagesOfType(websocket.TypeError)
	assert.Len(t, errorFrames, 1)
	assert.Equal(t, websocket.CodeUpstreamUnavailable, errorFrames[0].Code)

	result := <-results
	assert.Error(t, result.Err)
	assert.True(t, result.StartedAt.IsZero())
	assert.Empty(t, result.Turns)
}

func TestBridge_GreetingEchoDropped(t *testing.T) {
	upgrader := gorilla.Upgrader{}
	greetings := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil { // setup
			return
		}
		if err := conn.WriteMessage(gorilla.TextMessage, []byte(`{"setupComplete": {}}`)); err != nil {
			return
		}

		_, greeting, err := conn.ReadMessage()
		if err != nil {
			return
		}
		greetings <- greeting

		echo := `{"serverContent": {"inputTranscription": {"text": "Say hello to the student."}}}`
		if err := conn.WriteMessage(gorilla.TextMessage, []byte(echo)); err != nil {
			return
		}
		question := `{"serverContent": {"inputTranscription": {"text": "when was rome founded"}}}`
		if err := conn.WriteMessage(gorilla.TextMessage, []byte(question)); err != nil {
			return
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := upstreamConfig(server.URL)
	cfg.GreetingPrompt = "Say hello to the student."

	sess := conversation.NewSession("user-1", conversation.Attributes{})
	sink := &recordingSink{}
	bridge, results := startBridge(t, cfg, sess, sink)

	select {
	case <-bridge.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not become ready")
	}

	greeting := <-greetings
	assert.JSONEq(t, `{
		"client_content": {
			"turns": [{"role": "user", "parts": [{"text": "Say hello to the student."}]}],
			"turn_complete": true
		}
	}`, string(greeting))

	assert.Eventually(t, func() bool {
		return len(sink.messagesOfType(websocket.TypeTranscription)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "when was rome founded", sink.messagesOfType(websocket.TypeTranscription)[0].Text)

	bridge.EndInput()
	awaitDone(t, bridge)

	result := <-results
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Text: "when was rome founded"},
	}, result.Turns)
}

func TestBridge_UpstreamClosesGracefully(t *testing.T) {
	upgrader := gorilla.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil { // setup
			return
		}
		if err := conn.WriteMessage(gorilla.TextMessage, []byte(`{"setupComplete": {}}`)); err != nil {
			return
		}
		closeFrame := gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "done")
		_ = conn.WriteMessage(gorilla.CloseMessage, closeFrame)
	}))
	defer server.Close()

	sess := conversation.NewSession("user-1", conversation.Attributes{})
	sink := &recordingSink{}
	bridge, results := startBridge(t, upstreamConfig(server.URL), sess, sink)

	awaitDone(t, bridge)
	assert.NoError(t, bridge.Err())
	assert.Empty(t, sink.messagesOfType(websocket.TypeError))

	result := <-results
	assert.NoError(t, result.Err)
	assert.False(t, result.StartedAt.IsZero())
}
