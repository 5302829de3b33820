package service

import (
	"context"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/grounding"
)

// Answer grounds question in record. A blank question is the only error;
// every model failure degrades to the fallback answer.
func (s *Service) Answer(ctx context.Context, question string, record domain.StructuredRecord) (domain.GroundedAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.GroundedAnswer{}, domain.InvalidInputError("question required")
	}
	question = grounding.Truncate(question, s.cfg.Grounding.MaxQuestion)
	record.EnsureShape()

	start := s.now()
	ans, cached := s.answers.Get(ctx, question, record)
	if !cached {
		ans = s.grounder.Answer(ctx, question, record)
		s.answers.Put(ctx, question, record, ans)
	}

	s.logger.WithContext(ctx).Info().
		Int64("duration_ms", s.now().Sub(start).Milliseconds()).
		Int("q_len", len([]rune(question))).
		Summary("answer_summary", ans.Answer).
		Bool("fallback", ans.IsFallback()).
		Bool("cached", cached).
		Msg("chatbot.query")
	return ans, nil
}

// FlushAnswers drops every cached answer.
func (s *Service) FlushAnswers(ctx context.Context) error {
	if err := s.answers.Flush(ctx); err != nil {
		return domain.StorageError("flush answer cache", err)
	}
	return nil
}
