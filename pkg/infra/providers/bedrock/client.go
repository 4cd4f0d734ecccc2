package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	stsTypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/studiumlabs/voicebridge/pkg/infra/providers"
)

const (
	ModelPrefixAnthropicClaude   = "anthropic.claude"
	ModelPrefixAnthropicClaudeV3 = "anthropic.claude-3"
	ModelPrefixAmazonTitan       = "amazon.titan"

	defaultRegion           = "us-east-1"
	defaultAnthropicVersion = "bedrock-2023-05-31"
)

type invokeRequest struct {
	Prompt            string  `json:"prompt,omitempty"`
	MaxTokensToSample int     `json:"max_tokens_to_sample,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`

	// Anthropic Claude 3 message API fields
	AnthropicVersion string                   `json:"anthropic_version,omitempty"`
	MaxTokens        int                      `json:"max_tokens,omitempty"`
	Messages         []map[string]interface{} `json:"messages,omitempty"`
	System           string                   `json:"system,omitempty"`

	// Amazon Titan fields
	InputText            string                 `json:"inputText,omitempty"`
	TextGenerationConfig map[string]interface{} `json:"textGenerationConfig,omitempty"`
}

type client struct {
	clientPool *sync.Map
}

func NewBedrockClient() providers.Client {
	return &client{
		clientPool: &sync.Map{},
	}
}

func (c *client) Ask(
	ctx context.Context,
	config *providers.Config,
	prompt string,
) (*providers.CompletionResponse, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Credentials.AwsBedrock == nil {
		return nil, fmt.Errorf("aws credentials are required")
	}

	bedrockCl, err := c.getOrCreateClient(ctx, config.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
	}

	request := c.prepareRequest(config, prompt)

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := bedrockCl.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(config.Model),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke model: %w", err)
	}

	responseText, err := c.parseResponse(config.Model, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &providers.CompletionResponse{
		ID:    fmt.Sprintf("bedrock-%d", time.Now().UnixNano()),
		Model: config.Model,
		Text:  responseText,
		Usage: providers.Usage{},
	}, nil
}

func (c *client) prepareRequest(config *providers.Config, prompt string) *invokeRequest {
	request := &invokeRequest{}
	if config.Temperature > 0 {
		request.Temperature = config.Temperature
	}

	switch {
	case isClaudeV3Model(config.Model):
		c.prepareClaudeMessagesRequest(config, prompt, request)
	case isClaudeModel(config.Model):
		c.prepareClaudePromptRequest(config, prompt, request)
	case isTitanModel(config.Model):
		c.prepareTitanRequest(config, prompt, request)
	default:
		request.Prompt = joinPromptSections(config, prompt)
		if config.MaxTokens > 0 {
			request.MaxTokens = config.MaxTokens
		}
	}
	return request
}

func (c *client) prepareClaudeMessagesRequest(config *providers.Config, prompt string, request *invokeRequest) {
	if config.SystemPrompt != "" {
		request.System = config.SystemPrompt
	}

	var messages []map[string]interface{}
	if len(config.Instructions) > 0 {
		messages = append(messages, map[string]interface{}{
			"role":    "user",
			"content": providers.FormatInstructions(config.Instructions),
		})
	}
	if prompt != "" {
		messages = append(messages, map[string]interface{}{
			"role":    "user",
			"content": prompt,
		})
	}

	request.Messages = messages
	request.AnthropicVersion = defaultAnthropicVersion
	request.MaxTokens = config.MaxTokens
	if request.MaxTokens == 0 {
		request.MaxTokens = 1024
	}
}

func (c *client) prepareClaudePromptRequest(config *providers.Config, prompt string, request *invokeRequest) {
	if config.SystemPrompt != "" {
		request.System = config.SystemPrompt
	}
	request.Prompt = "Human: " + joinPromptSections(&providers.Config{Instructions: config.Instructions}, prompt) + "\n\nAssistant: "
	if config.MaxTokens > 0 {
		request.MaxTokensToSample = config.MaxTokens
	}
}

func (c *client) prepareTitanRequest(config *providers.Config, prompt string, request *invokeRequest) {
	request.InputText = joinPromptSections(config, prompt)
	request.TextGenerationConfig = map[string]interface{}{
		"maxTokenCount": config.MaxTokens,
		"temperature":   config.Temperature,
	}
	request.Temperature = 0
}

func joinPromptSections(config *providers.Config, prompt string) string {
	var sections []string
	if config.SystemPrompt != "" {
		sections = append(sections, config.SystemPrompt)
	}
	if len(config.Instructions) > 0 {
		sections = append(sections, providers.FormatInstructions(config.Instructions))
	}
	if prompt != "" {
		sections = append(sections, prompt)
	}
	return strings.Join(sections, "\n\n")
}

func (c *client) parseResponse(model string, responseBody []byte) (string, error) {
	var responseText string
	var err error

	switch {
	case isClaudeV3Model(model):
		responseText, err = parseClaudeMessagesResponse(responseBody)
	case isClaudeModel(model):
		responseText, err = parseClaudeCompletionResponse(responseBody)
	case isTitanModel(model):
		responseText, err = parseTitanResponse(responseBody)
	default:
		responseText, err = parseGenericResponse(responseBody)
	}

	if err != nil {
		return "", err
	}
	if responseText == "" {
		return "", fmt.Errorf("no text content returned")
	}
	return responseText, nil
}

func parseClaudeMessagesResponse(responseBody []byte) (string, error) {
	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal Claude 3 response: %w", err)
	}
	for _, content := range response.Content {
		if content.Type == "text" {
			return content.Text, nil
		}
	}
	return "", nil
}

func parseClaudeCompletionResponse(responseBody []byte) (string, error) {
	var response struct {
		Completion string `json:"completion"`
	}
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
	}
	return response.Completion, nil
}

func parseTitanResponse(responseBody []byte) (string, error) {
	var response struct {
		Results []struct {
			OutputText string `json:"outputText"`
		} `json:"results"`
		OutputText string `json:"outputText"`
	}
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
	}
	if response.OutputText != "" {
		return response.OutputText, nil
	}
	for _, result := range response.Results {
		if result.OutputText != "" {
			return result.OutputText, nil
		}
	}
	return "", nil
}

func parseGenericResponse(responseBody []byte) (string, error) {
	var response struct {
		Completion string `json:"completion"`
		Generation string `json:"generation"`
		Response   string `json:"response"`
		Text       string `json:"text"`
		Output     string `json:"output"`
	}
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for _, candidate := range []string{
		response.Completion,
		response.Generation,
		response.Text,
		response.Text,
		response.Output,
	} {
		if candidate != "" {
			return candidate, nil
		}
	}
	return "", nil
}

func (c *client) getOrCreateClient(ctx context.Context, credentials providers.Credentials) (*bedrockruntime.Client, error) {
	clientKey := buildClientKey(credentials)
	if clientVal, ok := c.clientPool.Load(clientKey); ok {
		cached, ok := clientVal.(*bedrockruntime.Client)
		if !ok {
			return nil, fmt.Errorf("invalid client type in pool")
		}
		return cached, nil
	}

	cfg, err := buildAwsConfig(ctx, credentials)
	if err != nil {
		return nil, err
	}
	runtimeClient := bedrockruntime.NewFromConfig(cfg)
	c.clientPool.Store(clientKey, runtimeClient)
	return runtimeClient, nil
}

func buildClientKey(credentials providers.Credentials) string {
	if credentials.AwsBedrock == nil {
		return credentials.ApiKey
	}
	return fmt.Sprintf("%s:%s:%v:%s",
		credentials.AwsBedrock.AccessKey,
		credentials.AwsBedrock.Region,
		credentials.AwsBedrock.UseRole,
		credentials.AwsBedrock.RoleARN,
	)
}

func buildAwsConfig(ctx context.Context, credentials providers.Credentials) (aws.Config, error) {
	region := credentials.AwsBedrock.Region
	if region == "" {
		region = defaultRegion
	}

	accessKey := credentials.AwsBedrock.AccessKey
	secretKey := credentials.AwsBedrock.SecretKey

	if credentials.AwsBedrock.UseRole && credentials.AwsBedrock.RoleARN != "" {
		creds, err := assumeRole(ctx, accessKey, secretKey, credentials.AwsBedrock.RoleARN, region)
		if err != nil {
			return aws.Config{}, err
		}
		return loadAWSConfig(ctx, *creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken, region)
	}

	return loadAWSConfig(ctx, accessKey, secretKey, credentials.AwsBedrock.SessionToken, region)
}

func loadAWSConfig(ctx context.Context, accessKey, secretKey, sessionToken, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
					SessionToken:    sessionToken,
				}, nil
			},
		)),
		config.WithRegion(region),
	)
}

func assumeRole(ctx context.Context, accessKey, secretKey, roleARN, region string) (*stsTypes.Credentials, error) {
	baseCfg, err := loadAWSConfig(ctx, accessKey, secretKey, "", region)
	if err != nil {
		return nil, fmt.Errorf("unable to load base AWS config: %w", err)
	}
	stsClient := sts.NewFromConfig(baseCfg)

	output, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String("VoiceBridgeComposer"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assume role: %w", err)
	}
	return output.Credentials, nil
}

func isClaudeModel(model string) bool {
	return strings.Contains(model, ModelPrefixAnthropicClaude)
}

func isClaudeV3Model(model string) bool {
	return strings.Contains(model, ModelPrefixAnthropicClaudeV3)
}

func isTitanModel(model string) bool {
	return strings.Contains(model, ModelPrefixAmazonTitan)
}
