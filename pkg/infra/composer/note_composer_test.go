package composer_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/domain/studynote"
	"github.com/studiumlabs/voicebridge/pkg/infra/composer"
	"github.com/studiumlabs/voicebridge/pkg/infra/composer/mocks"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers/factory"
	factorymocks "github.com/studiumlabs/voicebridge/pkg/infra/providers/factory/mocks"
	providermocks "github.com/studiumlabs/voicebridge/pkg/infra/providers/mocks"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func composeRequest() studynote.ComposeRequest {
	return studynote.ComposeRequest{
		UserID:         "user-1",
		TopicID:        "topic-1",
		CourseID:       "course-1",
		ChatSessionID:  "chat-1",
		StudySessionID: "study-1",
		Turns: []conversation.Turn{
			{Role: conversation.RoleUser, Text: "What is photosynthesis?"},
			{Role: conversation.RoleAssistant, Text: "It is how plants convert light into energy."},
		},
	}
}

func TestNoteComposer_Compose(t *testing.T) {
	cfg := config.ComposerConfig{
		Enabled:   true,
		Provider:  "gemini",
		Model:     "gemini-2.0-flash",
		APIKey:    "test-key",
		MaxTokens: 512,
	}

	t.Run("it should skip when there are fewer than two turns", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		req := composeRequest()
		req.Turns = req.Turns[:1]

		err := noteComposer.Compose(context.Background(), req)

		require.NoError(t, err)
		notes.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
		locator.AssertNotCalled(t, "Get", mock.Anything)
	})

	t.Run("it should skip when the topic id is empty", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		req := composeRequest()
		req.TopicID = ""

		err := noteComposer.Compose(context.Background(), req)

		require.NoError(t, err)
		notes.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	})

	t.Run("it should do nothing when a note already exists", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		notes.On("Exists", mock.Anything, "topic-1").Return(true, nil)

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		err := noteComposer.Compose(context.Background(), composeRequest())

		require.NoError(t, err)
		locator.AssertNotCalled(t, "Get", mock.Anything)
		notes.AssertNotCalled(t, "CreateNote", mock.Anything, mock.Anything)
	})

	t.Run("it should draft and deliver a note", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderGemini).Return(provider, nil)
		provider.On("Ask",
			mock.Anything,
			mock.MatchedBy(func(providerCfg *providers.Config) bool {
				return providerCfg.Model == "gemini-2.0-flash" &&
					providerCfg.Credentials.ApiKey == "test-key" &&
					providerCfg.MaxTokens == 512 &&
					providerCfg.SystemPrompt != ""
			}),
			mock.MatchedBy(func(prompt string) bool {
				return strings.Contains(prompt, "Student: What is photosynthesis?") &&
					strings.Contains(prompt, "Tutor: It is how plants convert light into energy.")
			}),
		).Return(&providers.CompletionResponse{Text: "# Photosynthesis\n\n- light to energy"}, nil)
		notes.On("CreateNote", mock.Anything, composer.Note{
			UserID:         "user-1",
			TopicID:        "topic-1",
			CourseID:       "course-1",
			ChatSessionID:  "chat-1",
			StudySessionID: "study-1",
			Content:        "# Photosynthesis\n\n- light to energy",
		}).Return(nil)

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		err := noteComposer.Compose(context.Background(), composeRequest())

		require.NoError(t, err)
		notes.AssertExpectations(t)
		locator.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("it should remember a delivered note and skip the next compose", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderGemini).Return(provider, nil)
		provider.On("Ask", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.CompletionResponse{Text: "note body"}, nil)
		notes.On("CreateNote", mock.Anything, mock.Anything).Return(nil)

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		require.NoError(t, noteComposer.Compose(context.Background(), composeRequest()))
		require.NoError(t, noteComposer.Compose(context.Background(), composeRequest()))

		notes.AssertNumberOfCalls(t, "Exists", 1)
		notes.AssertNumberOfCalls(t, "CreateNote", 1)
	})

	t.Run("it should default to the gemini provider", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		defaulted := cfg
		defaulted.Provider = ""

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderGemini).Return(provider, nil)
		provider.On("Ask", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.CompletionResponse{Text: "note body"}, nil)
		notes.On("CreateNote", mock.Anything, mock.Anything).Return(nil)

		noteComposer := composer.NewNoteComposer(notes, locator, defaulted, quietLogger())

		require.NoError(t, noteComposer.Compose(context.Background(), composeRequest()))
		locator.AssertExpectations(t)
	})

	t.Run("it should pass aws credentials to the bedrock provider", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		bedrockCfg := config.ComposerConfig{
			Enabled:      true,
			Provider:     "bedrock",
			Model:        "anthropic.claude-3-haiku-20240307-v1:0",
			MaxTokens:    512,
			AWSRegion:    "eu-west-1",
			AWSAccessKey: "access",
			AWSSecretKey: "secret",
		}

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderBedrock).Return(provider, nil)
		provider.On("Ask",
			mock.Anything,
			mock.MatchedBy(func(providerCfg *providers.Config) bool {
				return providerCfg.Credentials.AwsBedrock != nil &&
					providerCfg.Credentials.AwsBedrock.AccessKey == "access" &&
					providerCfg.Credentials.AwsBedrock.Region == "eu-west-1"
			}),
			mock.Anything,
		).Return(&providers.CompletionResponse{Text: "note body"}, nil)
		notes.On("CreateNote", mock.Anything, mock.Anything).Return(nil)

		noteComposer := composer.NewNoteComposer(notes, locator, bedrockCfg, quietLogger())

		require.NoError(t, noteComposer.Compose(context.Background(), composeRequest()))
		provider.AssertExpectations(t)
	})

	t.Run("it should surface an exists check failure", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		notes.On("Exists", mock.Anything, "topic-1").Return(false, errors.New("service down"))

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		err := noteComposer.Compose(context.Background(), composeRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check for an existing note")
	})

	t.Run("it should surface a drafting failure", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderGemini).Return(provider, nil)
		provider.On("Ask", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("model overloaded"))

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		err := noteComposer.Compose(context.Background(), composeRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "note drafting failed")
		notes.AssertNotCalled(t, "CreateNote", mock.Anything, mock.Anything)
	})

	t.Run("it should surface a delivery failure", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderGemini).Return(provider, nil)
		provider.On("Ask", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.CompletionResponse{Text: "note body"}, nil)
		notes.On("CreateNote", mock.Anything, mock.Anything).Return(errors.New("persist failed"))

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		err := noteComposer.Compose(context.Background(), composeRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to deliver note")
	})

	t.Run("it should reject an empty draft", func(t *testing.T) {
		notes := new(mocks.MockNotesClient)
		locator := new(factorymocks.MockProviderLocator)
		provider := new(providermocks.MockClient)

		notes.On("Exists", mock.Anything, "topic-1").Return(false, nil)
		locator.On("Get", factory.ProviderGemini).Return(provider, nil)
		provider.On("Ask", mock.Anything, mock.Anything, mock.Anything).
			Return(&providers.CompletionResponse{Text: "   "}, nil)

		noteComposer := composer.NewNoteComposer(notes, locator, cfg, quietLogger())

		err := noteComposer.Compose(context.Background(), composeRequest())

		require.Error(t, err)
		notes.AssertNotCalled(t, "CreateNote", mock.Anything, mock.Anything)
	})
}
