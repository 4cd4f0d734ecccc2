package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/domain/studynote"
	"github.com/studiumlabs/voicebridge/pkg/infra/cache"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers/factory"
	"golang.org/x/sync/singleflight"
)

const (
	minTurnsForNote = 2

	existsCacheTTL = 10 * time.Minute

	noteSystemPrompt = "You are a study assistant. You turn the transcript of a spoken " +
		"tutoring conversation into a revision note the student can reread later."
)

var noteInstructions = []string{
	"Write the note in markdown with short headings.",
	"Cover only what was actually discussed in the conversation.",
	"Close with a bullet list of the key points to remember.",
}

// NoteComposer drafts a study note from a finished conversation and delivers
// it to the study-notes service. A topic that already has a note is left
// alone.
type NoteComposer struct {
	notes   NotesClient
	locator factory.ProviderLocator
	cfg     config.ComposerConfig
	logger  *logrus.Logger

	existsCache *cache.TTLMap
	sf          singleflight.Group
}

func NewNoteComposer(
	notes NotesClient,
	locator factory.ProviderLocator,
	cfg config.ComposerConfig,
	logger *logrus.Logger,
) studynote.Composer {
	return &NoteComposer{
		notes:       notes,
		locator:     locator,
		cfg:         cfg,
		logger:      logger,
		existsCache: cache.NewTTLMap(existsCacheTTL),
	}
}

func (c *NoteComposer) Compose(ctx context.Context, req studynote.ComposeRequest) error {
	if len(req.Turns) < minTurnsForNote || req.TopicID == "" {
		c.logger.WithFields(logrus.Fields{
			"topic_id":   req.TopicID,
			"turn_count": len(req.Turns),
		}).Debug("skipping note: not enough material")
		return nil
	}

	// Concurrent sessions on the same topic collapse into one compose.
	_, err, _ := c.sf.Do(req.TopicID, func() (interface{}, error) {
		return nil, c.compose(ctx, req)
	})
	return err
}

func (c *NoteComposer) compose(ctx context.Context, req studynote.ComposeRequest) error {
	if _, cached := c.existsCache.Get(req.TopicID); cached {
		return nil
	}

	exists, err := c.notes.Exists(ctx, req.TopicID)
	if err != nil {
		return fmt.Errorf("failed to check for an existing note: %w", err)
	}
	if exists {
		c.existsCache.Set(req.TopicID, true)
		c.logger.WithField("topic_id", req.TopicID).Debug("note already exists, skipping compose")
		return nil
	}

	draft, err := c.draft(ctx, req.Turns)
	if err != nil {
		return err
	}

	note := Note{
		UserID:         req.UserID,
		TopicID:        req.TopicID,
		CourseID:       req.CourseID,
		ChatSessionID:  req.ChatSessionID,
		StudySessionID: req.StudySessionID,
		Content:        draft,
	}
	if err := c.notes.CreateNote(ctx, note); err != nil {
		return fmt.Errorf("failed to deliver note: %w", err)
	}

	c.existsCache.Set(req.TopicID, true)
	c.logger.WithFields(logrus.Fields{
		"topic_id": req.TopicID,
		"user_id":  req.UserID,
	}).Info("study note composed")

	return nil
}

func (c *NoteComposer) draft(ctx context.Context, turns []conversation.Turn) (string, error) {
	providerName := c.cfg.Provider
	if providerName == "" {
		providerName = factory.ProviderGemini
	}

	client, err := c.locator.Get(providerName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve note provider: %w", err)
	}

	resp, err := client.Ask(ctx, c.providerConfig(), renderTranscript(turns))
	if err != nil {
		return "", fmt.Errorf("note drafting failed: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("note drafting returned an empty note")
	}

	c.logger.WithFields(logrus.Fields{
		"provider":     providerName,
		"model":        resp.Model,
		"total_tokens": resp.Usage.TotalTokens,
	}).Debug("note draft generated")

	return resp.Text, nil
}

func (c *NoteComposer) providerConfig() *providers.Config {
	providerCfg := &providers.Config{
		Credentials: providers.Credentials{
			ApiKey: c.cfg.APIKey,
		},
		Model:        c.cfg.Model,
		MaxTokens:    int(c.cfg.MaxTokens),
		SystemPrompt: noteSystemPrompt,
		Instructions: noteInstructions,
	}
	if c.cfg.Provider == factory.ProviderBedrock {
		providerCfg.Credentials.AwsBedrock = &providers.AwsBedrockCredentials{
			AccessKey: c.cfg.AWSAccessKey,
			SecretKey: c.cfg.AWSSecretKey,
			Region:    c.cfg.AWSRegion,
		}
	}
	return providerCfg
}

func renderTranscript(turns []conversation.Turn) string {
	var b strings.Builder
	b.WriteString("[Transcript]\n")
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleUser:
			b.WriteString("Student: ")
		case conversation.RoleAssistant:
			b.WriteString("Tutor: ")
		default:
			b.WriteString(turn.Role)
			b.WriteString(": ")
		}
		b.WriteString(turn.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
