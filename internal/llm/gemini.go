package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls Gemini through the generative-ai-go SDK. The SDK client
// is built on first use and shared by every later call.
type GeminiClient struct {
	apiKey      string
	model       string
	temperature float32

	mu      sync.Mutex
	client  *genai.Client
	initErr error
	closed  bool
}

// NewGeminiClient creates a Gemini client. An empty apiKey yields a client
// whose Available reports false and which never touches the network.
func NewGeminiClient(apiKey, model string, temperature float32) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{apiKey: apiKey, model: model, temperature: temperature}
}

// Available reports whether an API key is configured.
func (g *GeminiClient) Available() bool {
	return g != nil && g.apiKey != ""
}

// Model returns the configured model name.
func (g *GeminiClient) Model() string {
	return g.model
}

// WithTemperature returns a client sharing the same SDK handle but sampling
// at a different temperature.
func (g *GeminiClient) WithTemperature(t float32) *TemperatureView {
	return &TemperatureView{parent: g, temperature: t}
}

func (g *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, domain.TransportError("gemini client is closed", nil)
	}
	if g.client == nil && g.initErr == nil {
		g.client, g.initErr = genai.NewClient(context.WithoutCancel(ctx), option.WithAPIKey(g.apiKey))
	}
	if g.initErr != nil {
		return nil, domain.TransportError("failed to create gemini client", g.initErr)
	}
	return g.client, nil
}

// GenerateText asks for a JSON response to prompt.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.temperature, true, genai.Text(prompt))
}

// DescribeImage sends an image together with an instruction and returns the
// plain-text reply.
func (g *GeminiClient) DescribeImage(ctx context.Context, instruction, mimeType string, data []byte) (string, error) {
	return g.generate(ctx, 0, false, genai.Text(instruction), genai.Blob{MIMEType: mimeType, Data: data})
}

func (g *GeminiClient) generate(ctx context.Context, temperature float32, jsonOut bool, parts ...genai.Part) (string, error) {
	if !g.Available() {
		return "", domain.ModelUnavailableError("GEMINI_API_KEY is not set")
	}
	client, err := g.sdk(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(g.model)
	model.SetTemperature(temperature)
	if jsonOut {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", domain.TransportError("gemini generate content", err)
	}
	return responseText(resp), nil
}

// Close releases the SDK client if it was ever built. Later calls fail
// with a transport error.
func (g *GeminiClient) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// TemperatureView is a GeminiClient seen through a different temperature.
type TemperatureView struct {
	parent      *GeminiClient
	temperature float32
}

// Available reports whether the parent client has a key.
func (v *TemperatureView) Available() bool {
	return v.parent.Available()
}

// GenerateText asks for a JSON response using the view's temperature.
func (v *TemperatureView) GenerateText(ctx context.Context, prompt string) (string, error) {
	return v.parent.generate(ctx, v.temperature, true, genai.Text(prompt))
}
