package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Titles []string `json:"titles"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *ContentCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewContentCache(rdb)
}

func TestAside_CachesUntilInvalidated(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Titles: []string{"Spring fair"}}, nil
	}
	key := func(ctx context.Context) (string, error) {
		return c.ListKey(ctx, "news", 12, 0, "")
	}

	for i := 0; i < 3; i++ {
		got, err := Aside(ctx, c, "news_list", key, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"Spring fair"}, got.Titles)
	}
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx, "news")
	_, err := Aside(ctx, c, "news_list", key, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	c.Invalidate(ctx, "story")
	_, err = Aside(ctx, c, "news_list", key, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "other kinds do not evict news")
}

func TestInvalidate_FailureSuspendsKind(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()
	clock := time.Now()
	c.now = func() time.Time { return clock }

	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Titles: []string{"Bake sale"}}, nil
	}
	key := func(ctx context.Context) (string, error) { return c.ItemKey(ctx, "news", 9) }

	_, err := Aside(ctx, c, "news_item", key, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	mr.SetError("LOADING dataset in memory")
	c.Invalidate(ctx, "news")
	mr.SetError("")
	assert.True(t, c.Suspended("news"))
	assert.False(t, c.Suspended("story"))

	for i := 0; i < 2; i++ {
		_, err = Aside(ctx, c, "news_item", key, load)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls, "pre-mutation entry is not served while suspended")

	clock = clock.Add(ContentTTL)
	mr.FastForward(ContentTTL)
	assert.False(t, c.Suspended("news"))

	for i := 0; i < 2; i++ {
		_, err = Aside(ctx, c, "news_item", key, load)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, calls, "caching resumes once old entries have expired")
}

func TestAside_LoadErrorNotCached(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("boom")

	key := func(ctx context.Context) (string, error) { return c.ItemKey(ctx, "story", 3) }
	_, err := Aside(ctx, c, "story_item", key, func(context.Context) (page, error) { return page{}, boom })
	assert.ErrorIs(t, err, boom)

	calls := 0
	_, err = Aside(ctx, c, "story_item", key, func(context.Context) (page, error) { calls++; return page{}, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestAside_NilClientBypasses(t *testing.T) {
	c := NewContentCache(nil)
	assert.False(t, c.Enabled())
	c.Invalidate(context.Background(), "news")

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Aside(context.Background(), c, "news_list",
			func(context.Context) (string, error) { return "unused", nil },
			func(context.Context) (page, error) { calls++; return page{}, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr, c := newTestCache(t)
	mr.Close()

	got, err := Aside(context.Background(), c, "news_list",
		func(ctx context.Context) (string, error) { return c.ListKey(ctx, "news", 12, 0, "") },
		func(context.Context) (page, error) { return page{Titles: []string{"x"}}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Titles)
}

func TestSetClientAndGetClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() { client = nil })

	assert.Same(t, rdb, GetClient())
	Close()
	assert.Nil(t, GetClient())
}

func TestInitRedis_UnreachableLeavesNil(t *testing.T) {
	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())
}
