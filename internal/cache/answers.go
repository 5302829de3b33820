package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
)

const answerPrefix = "answer"

// AnswerCache stores grounded answers keyed by question and record content.
// Fallback answers are never cached so a later model call can still succeed.
type AnswerCache struct {
	client Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewAnswerCache wraps client. A nil client disables caching.
func NewAnswerCache(client Client, ttl time.Duration, logger *observability.Logger) *AnswerCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AnswerCache{client: client, ttl: ttl, logger: logger}
}

// AnswerKey derives a deterministic key from the normalized question and the
// record's JSON form.
func AnswerKey(question string, record domain.StructuredRecord) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(question))))
	h.Write([]byte{0})
	h.Write(body)
	return Key(answerPrefix, hex.EncodeToString(h.Sum(nil))), nil
}

// Get returns a cached answer, or ok=false on a miss or any cache error.
func (c *AnswerCache) Get(ctx context.Context, question string, record domain.StructuredRecord) (domain.GroundedAnswer, bool) {
	if c == nil || c.client == nil {
		return domain.GroundedAnswer{}, false
	}
	key, err := AnswerKey(question, record)
	if err != nil {
		return domain.GroundedAnswer{}, false
	}

	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("cache.answer.get_failed")
		}
		return domain.GroundedAnswer{}, false
	}

	var ans domain.GroundedAnswer
	if err := json.Unmarshal(raw, &ans); err != nil || ans.Answer == "" {
		return domain.GroundedAnswer{}, false
	}
	return ans, true
}

// Put stores ans unless it is the fallback.
func (c *AnswerCache) Put(ctx context.Context, question string, record domain.StructuredRecord, ans domain.GroundedAnswer) {
	if c == nil || c.client == nil || ans.IsFallback() || ans.Answer == "" {
		return
	}
	key, err := AnswerKey(question, record)
	if err != nil {
		return
	}
	raw, err := json.Marshal(ans)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("cache.answer.set_failed")
	}
}

// Flush drops every cached answer.
func (c *AnswerCache) Flush(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.DeleteByPrefix(ctx, answerPrefix+":")
}
