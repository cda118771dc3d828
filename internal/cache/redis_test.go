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

// The package-level client is shared, so these tests run serially.

func withTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(c)
	t.Cleanup(func() {
		SetClient(nil)
		_ = c.Close()
	})
	return mr
}

type cachedRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestAside(t *testing.T) {
	ctx := context.Background()

	t.Run("miss loads and caches", func(t *testing.T) {
		mr := withTestRedis(t)

		loads := 0
		var out cachedRecord
		err := Aside(ctx, "request:r1", &out, time.Minute, func() error {
			loads++
			out = cachedRecord{ID: "r1", Name: "Asha"}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, loads)
		assert.Equal(t, "Asha", out.Name)
		assert.True(t, mr.Exists("request:r1"))

		// Second read is served from cache.
		var again cachedRecord
		err = Aside(ctx, "request:r1", &again, time.Minute, func() error {
			loads++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, loads)
		assert.Equal(t, "Asha", again.Name)
	})

	t.Run("corrupt entry is dropped and reloaded", func(t *testing.T) {
		mr := withTestRedis(t)
		require.NoError(t, mr.Set("request:r1", "{not json"))

		var out cachedRecord
		err := Aside(ctx, "request:r1", &out, time.Minute, func() error {
			out = cachedRecord{ID: "r1", Name: "Asha"}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Asha", out.Name)

		raw, err := mr.Get("request:r1")
		require.NoError(t, err)
		assert.Contains(t, raw, `"Asha"`)
	})

	t.Run("load error is returned and nothing cached", func(t *testing.T) {
		mr := withTestRedis(t)

		var out cachedRecord
		wantErr := errors.New("db down")
		err := Aside(ctx, "request:r1", &out, time.Minute, func() error { return wantErr })
		assert.ErrorIs(t, err, wantErr)
		assert.False(t, mr.Exists("request:r1"))
	})

	t.Run("nil client falls through to load", func(t *testing.T) {
		SetClient(nil)

		loads := 0
		var out cachedRecord
		err := Aside(ctx, "request:r1", &out, time.Minute, func() error {
			loads++
			out = cachedRecord{ID: "r1"}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, loads)
	})
}

func TestInvalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidate request drops record and list keys", func(t *testing.T) {
		mr := withTestRedis(t)
		require.NoError(t, mr.Set(RequestKey("r1"), "{}"))
		require.NoError(t, mr.Set(RequestListKey, "[]"))

		InvalidateRequest(ctx, "r1")
		assert.False(t, mr.Exists(RequestKey("r1")))
		assert.False(t, mr.Exists(RequestListKey))
	})

	t.Run("invalidate list leaves records intact", func(t *testing.T) {
		mr := withTestRedis(t)
		require.NoError(t, mr.Set(RequestKey("r1"), "{}"))
		require.NoError(t, mr.Set(RequestListKey, "[]"))

		InvalidateRequestList(ctx)
		assert.True(t, mr.Exists(RequestKey("r1")))
		assert.False(t, mr.Exists(RequestListKey))
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		SetClient(nil)
		InvalidateRequest(ctx, "r1")
	})
}

func TestKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "request:r1", RequestKey("r1"))
	assert.Equal(t, "blacklist:abc", BlacklistKey("abc"))
}
