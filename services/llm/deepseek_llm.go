package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sashabaranov/go-openai"
)

const deepSeekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekClient talks to DeepSeek's OpenAI-compatible chat API.
type DeepSeekClient struct {
	client *openai.Client
	model  string
}

func NewDeepSeekClient(apiKey string) *DeepSeekClient {
	model := os.Getenv("SITKA_DEEPSEEK_MODEL")
	if model == "" {
		model = "deepseek-chat"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = deepSeekBaseURL
	return &DeepSeekClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate implements the Client interface.
func (d *DeepSeekClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	slog.Debug("Generating text via DeepSeek", "model", d.model)

	req := openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("DeepSeek API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("DeepSeek returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
