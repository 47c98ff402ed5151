package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TextGenerator is the slice of the OpenRouter client the pipeline
// engines depend on.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	GenerateJSON(ctx context.Context, req GenerateRequest) (string, error)
}

type GenerateRequest struct {
	APIKey   string
	Model    string
	System   string
	Prompt   string
	JSONMode bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenRouterClient talks to an OpenAI-compatible chat completions
// endpoint with per-user API keys.
type OpenRouterClient struct {
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client

	// Bounds concurrent upstream calls across all users.
	rateChan chan struct{}
}

func NewOpenRouterClient(baseURL string, temperature float64, maxTokens, maxConcurrent int) *OpenRouterClient {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &OpenRouterClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		rateChan:    make(chan struct{}, maxConcurrent),
	}
}

// wantsPlainJSON reports whether the model family rejects the
// response_format field. Their JSON comes back as prose and goes
// through the repair pipeline instead.
func wantsPlainJSON(model string) bool {
	return strings.Contains(strings.ToLower(model), "gemini")
}

// Generate performs one chat completion and returns the raw reply text.
func (c *OpenRouterClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", &AuthError{Message: "OpenRouter API key is not configured"}
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", &ValidationError{Fields: map[string]string{"model": "Model is required"}}
	}

	select {
	case c.rateChan <- struct{}{}:
		defer func() { <-c.rateChan }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if req.JSONMode && !wantsPlainJSON(req.Model) {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Message: fmt.Sprintf("completion request failed: %v", err)}
	}
	defer resp.Body.Close()

	// Read the raw body first so error replies keep their context even
	// when they are not JSON.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read completion response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		msg := upstreamErrorMessage(raw)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", &AuthError{Message: fmt.Sprintf("generation endpoint rejected the API key (%d): %s", resp.StatusCode, msg)}
		}
		return "", &TransportError{StatusCode: resp.StatusCode, Message: msg, BodyPreview: preview(string(raw), 200)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &MalformedResponseError{
			Message: "completion response is not a valid envelope",
			Preview: preview(string(raw), 200),
		}
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", &TransportError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &EmptyResponseError{Message: "model returned an empty reply"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// GenerateJSON performs a JSON-mode completion and runs the reply
// through the repair pipeline.
func (c *OpenRouterClient) GenerateJSON(ctx context.Context, req GenerateRequest) (string, error) {
	req.JSONMode = true
	raw, err := c.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	outcome, err := RepairJSON(raw)
	if err != nil {
		return "", err
	}
	return outcome.Text, nil
}

func upstreamErrorMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return preview(string(raw), 200)
}

// Generation errors
type AuthError struct{ Message string }

func (e *AuthError) Error() string { return e.Message }

type TransportError struct {
	StatusCode  int
	Message     string
	BodyPreview string
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generation endpoint returned %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

type MalformedResponseError struct {
	Message string
	Preview string
}

func (e *MalformedResponseError) Error() string { return e.Message }

type EmptyResponseError struct{ Message string }

func (e *EmptyResponseError) Error() string { return e.Message }
