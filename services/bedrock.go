package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"stock-researcher/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// bedrockClient defines the interface for Bedrock runtime calls (for testing)
type bedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockService handles communication with AWS Bedrock for Claude models
type BedrockService struct {
	client           bedrockClient
	model            string
	maxTokens        int
	anthropicVersion string
}

// ClaudeRequest represents the request format for Claude models via Bedrock
type ClaudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
	Messages         []ClaudeMessage `json:"messages"`
}

// ClaudeMessage represents a message in the Claude conversation
type ClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ClaudeResponse represents the response from Claude models
type ClaudeResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockService creates a new BedrockService instance
func NewBedrockService(ctx context.Context, region, modelID string) (*BedrockService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	maxTokens := 4096
	if val := os.Getenv("BEDROCK_MAX_TOKENS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			maxTokens = parsed
		}
	}

	anthropicVersion := "bedrock-2023-05-31"
	if val := os.Getenv("BEDROCK_ANTHROPIC_VERSION"); val != "" {
		anthropicVersion = val
	}

	return &BedrockService{
		client:           bedrockruntime.NewFromConfig(cfg),
		model:            modelID,
		maxTokens:        maxTokens,
		anthropicVersion: anthropicVersion,
	}, nil
}

// InvokeWithPrompt sends a prompt to Claude and returns the response text
func (s *BedrockService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.invoke(ctx, systemPrompt, userPrompt, nil)
}

// InvokeWithTemperature sends a prompt with an explicit sampling temperature.
// Temperature 0 is used where deterministic output matters, such as ticker
// extraction.
func (s *BedrockService) InvokeWithTemperature(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	return s.invoke(ctx, systemPrompt, userPrompt, &temperature)
}

func (s *BedrockService) invoke(ctx context.Context, systemPrompt, userPrompt string, temperature *float64) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerBedrock, "invoke")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerBedrock, func() (string, error) {
		request := ClaudeRequest{
			AnthropicVersion: s.anthropicVersion,
			MaxTokens:        s.maxTokens,
			System:           systemPrompt,
			Temperature:      temperature,
			Messages: []ClaudeMessage{
				{Role: "user", Content: userPrompt},
			},
		}

		reqBody, err := json.Marshal(request)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		output, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(s.model),
			Body:        reqBody,
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to invoke model: %w", err)
		}

		var response ClaudeResponse
		if err := json.Unmarshal(output.Body, &response); err != nil {
			return "", fmt.Errorf("failed to unmarshal response: %w", err)
		}

		if len(response.Content) == 0 {
			return "", fmt.Errorf("empty response from model")
		}

		// Concatenate text chunks; newer models may return more than one
		var sb strings.Builder
		for _, chunk := range response.Content {
			if chunk.Type == "text" {
				sb.WriteString(chunk.Text)
			}
		}

		return sb.String(), nil
	})

	timer.ObserveExternalAPI(BreakerBedrock, "invoke")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerBedrock, "invoke", categorizeAPIError(err))
	}
	return result, err
}

// Compile-time interface verification
var _ LLMService = (*BedrockService)(nil)
