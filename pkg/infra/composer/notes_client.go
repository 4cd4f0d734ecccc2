package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/infra/httpx"
)

const (
	existsPath = "/v1/notes/exists"
	notesPath  = "/v1/notes"

	acceptedEncodings = "br, gzip, zstd, deflate"
)

var ErrFailedNotesCall = errors.New("study-notes service call failed")

// Note is the artifact delivered to the study-notes service once a
// conversation has been summarized.
type Note struct {
	UserID         string `json:"user_id"`
	TopicID        string `json:"topic_id"`
	CourseID       string `json:"course_id"`
	ChatSessionID  string `json:"chat_session_id"`
	StudySessionID string `json:"study_session_id"`
	Content        string `json:"content"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

//go:generate mockery --name=NotesClient --dir=. --output=./mocks --filename=notes_client_mock.go --case=underscore --with-expecter

type NotesClient interface {
	Exists(ctx context.Context, topicID string) (bool, error)
	CreateNote(ctx context.Context, note Note) error
}

// HTTPNotesClient talks to the external study-notes service.
type HTTPNotesClient struct {
	client         httpx.Client
	logger         *logrus.Logger
	circuitBreaker httpx.CircuitBreaker
	baseURL        string
	token          string
}

func NewHTTPNotesClient(
	client httpx.Client,
	logger *logrus.Logger,
	circuitBreaker httpx.CircuitBreaker,
	baseURL string,
	token string,
) NotesClient {
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPNotesClient{
		client:         client,
		logger:         logger,
		circuitBreaker: circuitBreaker,
		baseURL:        baseURL,
		token:          token,
	}
}

func (c *HTTPNotesClient) Exists(ctx context.Context, topicID string) (bool, error) {
	var exists bool
	err := c.circuitBreaker.Execute(func() error {
		var execErr error
		exists, execErr = c.executeExists(ctx, topicID)
		return execErr
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).Error("notes exists check failed (circuit breaker)")
		}
		return false, err
	}
	return exists, nil
}

func (c *HTTPNotesClient) executeExists(ctx context.Context, topicID string) (bool, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+existsPath+"?topic_id="+url.QueryEscape(topicID),
		nil,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create notes exists request: %w", err)
	}

	req.Header.Set("Token", c.token)
	req.Header.Set("Accept-Encoding", acceptedEncodings)

	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).Error("failed to call notes exists")
		}
		return false, fmt.Errorf("failed to call notes exists: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status_code", resp.StatusCode).Error("notes exists returned non-200 status")
		return false, fmt.Errorf("%w: status %d", ErrFailedNotesCall, resp.StatusCode)
	}

	body, err := c.readBody(resp)
	if err != nil {
		return false, err
	}

	var existsResp existsResponse
	if err := json.Unmarshal(body, &existsResp); err != nil {
		return false, fmt.Errorf("invalid notes exists response: %w", err)
	}

	return existsResp.Exists, nil
}

func (c *HTTPNotesClient) CreateNote(ctx context.Context, note Note) error {
	err := c.circuitBreaker.Execute(func() error {
		return c.executeCreateNote(ctx, note)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).Error("note delivery failed (circuit breaker)")
		}
		return err
	}
	return nil
}

func (c *HTTPNotesClient) executeCreateNote(ctx context.Context, note Note) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+notesPath,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create note request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WithError(err).Error("failed to deliver note")
		}
		return fmt.Errorf("failed to deliver note: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.WithField("status_code", resp.StatusCode).Error("note delivery returned non-2xx status")
		return fmt.Errorf("%w: status %d", ErrFailedNotesCall, resp.StatusCode)
	}

	return nil
}

// readBody drains the response and unwraps any Content-Encoding the service
// applied. Announcing Accept-Encoding ourselves disables the transport's
// transparent gunzip, so decoding is handled here for every algorithm.
func (c *HTTPNotesClient) readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes response: %w", err)
	}

	decoded, _, err := httpx.DecodeChain(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode notes response: %w", err)
	}
	return decoded, nil
}
