// Package grounding answers questions strictly from a StructuredRecord.
package grounding

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/llm"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

// DefaultMaxQuestion is the question length, in characters, kept by default.
const DefaultMaxQuestion = 500

const systemInstruction = "You are a real estate chatbot that answers user questions only using the provided project data JSON. " +
	"Never invent information. If the answer is not present in the JSON, respond exactly: \"No idea based on brochure.\" " +
	"Keep responses short, clear, and friendly. Output JSON only in the form {\"answer\": \"...\"}."

type outputFormat struct {
	Answer string `json:"answer"`
}

type promptPayload struct {
	System       string                  `json:"system"`
	ContextData  domain.StructuredRecord `json:"context_data"`
	UserQuestion string                  `json:"user_question"`
	OutputFormat outputFormat            `json:"output_format"`
}

// Grounder turns a model reply into a GroundedAnswer, degrading to the
// fixed fallback sentence on every failure path.
type Grounder struct {
	gen         domain.Generator
	maxQuestion int
	timeout     time.Duration
	logger      *observability.Logger
}

// NewGrounder creates a Grounder. gen may be nil.
func NewGrounder(gen domain.Generator, maxQuestion int, timeout time.Duration, logger *observability.Logger) *Grounder {
	if maxQuestion <= 0 {
		maxQuestion = DefaultMaxQuestion
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Grounder{gen: gen, maxQuestion: maxQuestion, timeout: timeout, logger: logger}
}

// Answer asks the model once. Without a configured model it returns the
// fallback without any call.
func (g *Grounder) Answer(ctx context.Context, question string, record domain.StructuredRecord) domain.GroundedAnswer {
	question = Truncate(question, g.maxQuestion)

	if g.gen == nil || !g.gen.Available() {
		return fallback()
	}

	prompt, err := BuildPrompt(question, record)
	if err != nil {
		g.logger.Error().Err(err).Msg("chatbot.prompt")
		return fallback()
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.gen.GenerateText(callCtx, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Msg("chatbot.model_error")
		return fallback()
	}
	return Ground(raw)
}

// Ground applies the answer contract to a raw model reply.
func Ground(raw string) domain.GroundedAnswer {
	obj, err := llm.ParseJSONObject(raw)
	if err != nil {
		return fallback()
	}
	ans, ok := obj["answer"].(string)
	if !ok {
		return fallback()
	}
	ans = strings.TrimSpace(ans)
	if ans == "" {
		return fallback()
	}
	return domain.GroundedAnswer{Answer: ans}
}

// BuildPrompt renders the JSON prompt for a question over record.
func BuildPrompt(question string, record domain.StructuredRecord) (string, error) {
	record.EnsureShape()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(promptPayload{
		System:       systemInstruction,
		ContextData:  record,
		UserQuestion: question,
		OutputFormat: outputFormat{Answer: "..."},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Truncate keeps at most max characters of q.
func Truncate(q string, max int) string {
	r := []rune(q)
	if len(r) <= max {
		return q
	}
	return string(r[:max])
}

func fallback() domain.GroundedAnswer {
	return domain.GroundedAnswer{Answer: domain.FallbackAnswer}
}
