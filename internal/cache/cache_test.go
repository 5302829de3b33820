package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/config"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

func newTestClient(t *testing.T, size int) (*MemoryClient, *time.Time) {
	t.Helper()
	c := NewMemoryClient(size)
	t.Cleanup(func() { _ = c.Close() })
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryClient_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	c, now := newTestClient(t, 10)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	*now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.removeExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_EvictsSoonestExpiring(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, 2)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "long", []byte("4"), time.Hour))
	assert.Equal(t, 2, c.Len(), "overwriting must not evict")
}

func TestMemoryClient_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, 10)

	for _, k := range []string{"answer:1", "answer:2", "record:1"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), time.Hour))
	}
	require.NoError(t, c.DeleteByPrefix(ctx, "answer:"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "record:1"))
	assert.Equal(t, 0, c.Len())
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "memory", MaxEntries: 5})
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, c)
	require.NoError(t, c.Close())

	_, err = New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "answer:abc", Key("answer", "abc"))
	assert.Equal(t, "solo", Key("solo"))
}

func TestAnswerCache(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, 10)
	ac := NewAnswerCache(client, time.Hour, nil)

	record := domain.Skeleton()
	record.ProjectOverview.ProjectName = "Skyline Residency"

	_, ok := ac.Get(ctx, "Who is the developer?", record)
	assert.False(t, ok)

	ac.Put(ctx, "Who is the developer?", record, domain.GroundedAnswer{Answer: "Acme Builders"})
	got, ok := ac.Get(ctx, "  who is the developer?  ", record)
	require.True(t, ok)
	assert.Equal(t, "Acme Builders", got.Answer)

	other := domain.Skeleton()
	_, ok = ac.Get(ctx, "Who is the developer?", other)
	assert.False(t, ok, "a different record must not share answers")

	ac.Put(ctx, "Price?", record, domain.GroundedAnswer{Answer: domain.FallbackAnswer})
	_, ok = ac.Get(ctx, "Price?", record)
	assert.False(t, ok, "fallback answers are not cached")

	require.NoError(t, ac.Flush(ctx))
	assert.Equal(t, 0, client.Len())
}

func TestAnswerCache_Nil(t *testing.T) {
	var ac *AnswerCache
	_, ok := ac.Get(context.Background(), "q", domain.Skeleton())
	assert.False(t, ok)
	ac.Put(context.Background(), "q", domain.Skeleton(), domain.GroundedAnswer{Answer: "a"})
	assert.NoError(t, ac.Flush(context.Background()))
}
