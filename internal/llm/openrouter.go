package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

const (
	openRouterURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel = "google/gemini-2.5-flash"
)

// OpenRouterClient talks to the OpenRouter chat completions API
type OpenRouterClient struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float32
	httpClient  *http.Client
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the endpoint for JSON output
type ResponseFormat struct {
	Type string `json:"type"`
}

// Request represents the API request structure
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// OpenRouterOption customizes an OpenRouterClient
type OpenRouterOption func(*OpenRouterClient)

// WithEndpoint overrides the chat completions URL.
func WithEndpoint(url string) OpenRouterOption {
	return func(c *OpenRouterClient) { c.endpoint = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) { c.httpClient = hc }
}

// NewOpenRouterClient creates a new OpenRouter client. An empty apiKey
// yields a client whose Available reports false.
func NewOpenRouterClient(apiKey, model string, temperature float32, opts ...OpenRouterOption) *OpenRouterClient {
	if model == "" {
		model = defaultOpenRouterModel
	}

	c := &OpenRouterClient{
		apiKey:      apiKey,
		model:       model,
		endpoint:    openRouterURL,
		temperature: temperature,
		httpClient:  &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Available reports whether an API key is configured.
func (c *OpenRouterClient) Available() bool {
	return c != nil && c.apiKey != ""
}

// Model returns the configured model name.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// GenerateText sends one user message and returns the first choice's content.
func (c *OpenRouterClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", domain.ModelUnavailableError("OPENROUTER_API_KEY is not set")
	}

	body, err := json.Marshal(Request{
		Model:          c.model,
		Messages:       []Message{{Role: "user", Content: prompt}},
		Temperature:    c.temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", domain.TransportError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.TransportError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/Leadrat/pdfscan-pankaj-joshi")
	req.Header.Set("X-Title", "Brochure Structurer")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.TransportError("failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.TransportError("openrouter request failed",
			&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))})
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.TransportError("failed to decode response", err)
	}
	if len(out.Choices) == 0 {
		return "", domain.TransportError(fmt.Sprintf("response %s has no choices", out.ID), nil)
	}
	return out.Choices[0].Message.Content, nil
}
