package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"

// defaultGeminiModels is the sub-retry ladder tried in order. Later
// entries are older, more widely available models kept as a hedge
// against per-model quota and rollout gaps.
var defaultGeminiModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	Error          *geminiAPIError       `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type geminiAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// --- Client Implementation ---

type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	models     []string
	baseURL    string
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		models:     defaultGeminiModels,
		baseURL:    geminiDefaultBaseURL,
	}
}

// Generate walks the model ladder, falling to the next variant when a
// model fails for a reason another variant might not share. Account
// level failures (bad key, exhausted quota, unsupported region) stop
// the ladder immediately: every variant would fail the same way.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	var lastErr error
	for i, model := range g.models {
		text, err := g.generateWithModel(ctx, model, prompt, params)
		if err == nil {
			return text, nil
		}
		lastErr = err

		cls := Classify(err, "gemini")
		switch cls.Category {
		case CategoryAuth, CategoryQuota, CategoryRegion:
			return "", err
		}
		if i < len(g.models)-1 {
			slog.Debug("Gemini model failed, trying next variant",
				"model", model, "next", g.models[i+1], "category", cls.Category)
		}
	}
	return "", lastErr
}

func (g *GeminiClient) generateWithModel(ctx context.Context, model, prompt string, params GenerationParams) (string, error) {
	reqPayload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	cfg := &geminiGenConfig{
		Temperature:     params.Temperature,
		TopP:            params.TopP,
		TopK:            params.TopK,
		MaxOutputTokens: params.MaxTokens,
		StopSequences:   params.Stop,
	}
	if cfg.Temperature != nil || cfg.TopP != nil || cfg.TopK != nil ||
		cfg.MaxOutputTokens != nil || len(cfg.StopSequences) > 0 {
		reqPayload.GenerationConfig = cfg
	}

	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("gemini API error: %s - %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if apiResp.PromptFeedback != nil && apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked by safety filter: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("received empty candidates from Gemini")
	}

	finalText := ""
	for _, part := range apiResp.Candidates[0].Content.Parts {
		finalText += part.Text
	}
	if finalText == "" {
		return "", fmt.Errorf("received candidate but no text parts found")
	}
	return finalText, nil
}
