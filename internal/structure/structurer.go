package structure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/llm"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

// Structurer invokes the model for one prompt and always returns a document
// carrying the five top-level keys unless the model answered with a
// non-empty object of a different shape.
type Structurer struct {
	gen    domain.Generator
	model  string
	policy llm.RetryPolicy
	logger *observability.Logger
	now    func() time.Time
}

// Option customizes a Structurer
type Option func(*Structurer)

// WithRetryPolicy overrides backoffs, per-attempt timeout and sleep.
func WithRetryPolicy(p llm.RetryPolicy) Option {
	return func(s *Structurer) { s.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *observability.Logger) Option {
	return func(s *Structurer) { s.logger = l }
}

// WithClock overrides the clock used for duration_ms.
func WithClock(now func() time.Time) Option {
	return func(s *Structurer) { s.now = now }
}

// NewStructurer creates a Structurer. gen may be nil, which behaves like a
// generator with no credential.
func NewStructurer(gen domain.Generator, model string, timeout time.Duration, opts ...Option) *Structurer {
	s := &Structurer{
		gen:    gen,
		model:  model,
		policy: llm.DefaultRetryPolicy(timeout),
		logger: observability.NopLogger(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Structure runs the bounded model call for prompt and parses the reply.
// The returned document is the skeleton when the model is unavailable
// (meta.Fallback) or when the reply cannot be read as a non-empty object
// (meta.Repaired).
func (s *Structurer) Structure(ctx context.Context, prompt string) (map[string]any, domain.StructureMeta) {
	start := s.now()
	meta := domain.StructureMeta{Model: s.model}

	if s.gen == nil || !s.gen.Available() {
		meta.Fallback = true
		meta.DurationMS = s.now().Sub(start).Milliseconds()
		return skeletonDoc(), meta
	}

	res := llm.GenerateWithRetry(ctx, s.gen, prompt, s.policy)
	meta.Attempts = res.Attempts
	if res.LastErr != nil {
		meta.Error = res.LastErr.Error()
		s.logger.Warn().Err(res.LastErr).Int("attempts", res.Attempts).Msg("structure.model_error")
	}
	meta.DurationMS = s.now().Sub(start).Milliseconds()

	doc, err := llm.ParseJSONObject(res.Text)
	if err != nil || len(doc) == 0 {
		meta.Repaired = true
		return skeletonDoc(), meta
	}
	return doc, meta
}

// skeletonDoc is the empty record in generic form, so it flows through the
// same validation and decoding as a model reply.
func skeletonDoc() map[string]any {
	b, _ := json.Marshal(domain.Skeleton())
	var doc map[string]any
	_ = json.Unmarshal(b, &doc)
	return doc
}
