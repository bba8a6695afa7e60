package topicblog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/topicblog/content"
)

// countingSource counts topic listings of an otherwise working source.
type countingSource struct {
	content.Source
	calls atomic.Int32
	err   error
}

func (c *countingSource) TopicIDs(ctx context.Context) ([]string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Source.TopicIDs(ctx)
}

func TestTopicCacheLoadsOncePerTTL(t *testing.T) {
	src := &countingSource{Source: newTestStore(t)}
	cache := newTopicCache(src, time.Minute)
	ctx := context.Background()

	ok, err := cache.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cache.Contains(ctx, "t9")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), src.calls.Load())

	cache.Invalidate()
	_, err = cache.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestTopicCacheExpires(t *testing.T) {
	src := &countingSource{Source: newTestStore(t)}
	cache := newTopicCache(src, 50*time.Millisecond)
	ctx := context.Background()

	_, err := cache.Contains(ctx, "t1")
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	_, err = cache.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestTopicCacheDoesNotCacheFailures(t *testing.T) {
	boom := errors.New("listing failed")
	src := &countingSource{Source: newTestStore(t), err: boom}
	cache := newTopicCache(src, time.Minute)
	ctx := context.Background()

	_, err := cache.Contains(ctx, "t1")
	assert.ErrorIs(t, err, boom)

	src.err = nil
	ok, err := cache.Contains(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)
}
