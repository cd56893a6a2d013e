package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory RedisClient.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), value.([]byte)...)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisCache_MissThenHit(t *testing.T) {
	next := &stubFetcher{name: "geojson-bytes"}
	rdb := newFakeRedis()
	c := NewRedisCache(next, rdb, time.Hour)
	ctx := context.Background()
	id := "https://example.com/micro.json"

	data, err := ReadAll(ctx, c, id)
	require.NoError(t, err)
	assert.Equal(t, "geojson-bytes", string(data))

	data, err = ReadAll(ctx, c, id)
	require.NoError(t, err)
	assert.Equal(t, "geojson-bytes", string(data))

	assert.Len(t, next.calls, 1)
	assert.Equal(t, time.Hour, rdb.ttls["iqm-atlas:source:"+id])
}

func TestRedisCache_LocalPassThrough(t *testing.T) {
	next := &stubFetcher{name: "local"}
	rdb := newFakeRedis()
	c := NewRedisCache(next, rdb, time.Hour)

	for range 2 {
		_, err := ReadAll(context.Background(), c, "data/iqm.xlsm")
		require.NoError(t, err)
	}
	assert.Len(t, next.calls, 2)
	assert.Empty(t, rdb.data)
}

func TestRedisCache_RedisDownFallsBack(t *testing.T) {
	next := &stubFetcher{name: "direct"}
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	c := NewRedisCache(next, rdb, time.Hour)

	data, err := ReadAll(context.Background(), c, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "direct", string(data))
}

func TestRedisCache_Invalidate(t *testing.T) {
	next := &stubFetcher{name: "v1"}
	rdb := newFakeRedis()
	c := NewRedisCache(next, rdb, 0)
	ctx := context.Background()
	id := "https://example.com/iqm.xlsm"

	_, err := ReadAll(ctx, c, id)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, id, "local/path.json"))

	_, err = ReadAll(ctx, c, id)
	require.NoError(t, err)
	assert.Len(t, next.calls, 2)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient("not-a-redis-url")
	require.Error(t, err)
}
