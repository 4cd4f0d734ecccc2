package composer_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiumlabs/voicebridge/pkg/infra/composer"
	"github.com/studiumlabs/voicebridge/pkg/infra/httpx"
)

func newTestBreaker() httpx.CircuitBreaker {
	return httpx.NewCircuitBreaker("notes-test", time.Second, 3, 1)
}

func TestHTTPNotesClient_Exists(t *testing.T) {
	logger := logrus.New()

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/notes/exists", r.URL.Path)
			assert.Equal(t, "topic-1", r.URL.Query().Get("topic_id"))
			assert.Equal(t, "test-token", r.Header.Get("Token"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"exists": true}`))
		}))
		defer server.Close()

		client := composer.NewHTTPNotesClient(&http.Client{}, logger, newTestBreaker(), server.URL, "test-token")

		exists, err := client.Exists(context.Background(), "topic-1")

		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Gzip encoded response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			_, _ = gw.Write([]byte(`{"exists": false}`))
			require.NoError(t, gw.Close())

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
		}))
		defer server.Close()

		client := composer.NewHTTPNotesClient(&http.Client{}, logger, newTestBreaker(), server.URL, "test-token")

		exists, err := client.Exists(context.Background(), "topic-1")

		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := composer.NewHTTPNotesClient(&http.Client{}, logger, newTestBreaker(), server.URL, "test-token")

		exists, err := client.Exists(context.Background(), "topic-1")

		require.Error(t, err)
		assert.False(t, exists)
		assert.ErrorIs(t, err, composer.ErrFailedNotesCall)
	})

	t.Run("Invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := composer.NewHTTPNotesClient(&http.Client{}, logger, newTestBreaker(), server.URL, "test-token")

		exists, err := client.Exists(context.Background(), "topic-1")

		require.Error(t, err)
		assert.False(t, exists)
	})
}

func TestHTTPNotesClient_CreateNote(t *testing.T) {
	logger := logrus.New()

	note := composer.Note{
		UserID:         "user-1",
		TopicID:        "topic-1",
		CourseID:       "course-1",
		ChatSessionID:  "chat-1",
		StudySessionID: "study-1",
		Content:        "# Photosynthesis\n\nKey points...",
	}

	t.Run("Success", func(t *testing.T) {
		var received composer.Note
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/notes", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "test-token", r.Header.Get("Token"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := composer.NewHTTPNotesClient(&http.Client{}, logger, newTestBreaker(), server.URL, "test-token")

		err := client.CreateNote(context.Background(), note)

		require.NoError(t, err)
		assert.Equal(t, note, received)
	})

	t.Run("Non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		client := composer.NewHTTPNotesClient(&http.Client{}, logger, newTestBreaker(), server.URL, "test-token")

		err := client.CreateNote(context.Background(), note)

		require.Error(t, err)
		assert.ErrorIs(t, err, composer.ErrFailedNotesCall)
	})
}
