package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "reviews", []byte(`[{"id":1}]`)))

	b, found, err := s.Get(ctx, "reviews")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":1}]`, string(b))

	// Last writer wins.
	require.NoError(t, s.Set(ctx, "reviews", []byte(`[]`)))
	b, _, err = s.Get(ctx, "reviews")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))

	require.NoError(t, s.Remove(ctx, "reviews"))
	_, found, err = s.Get(ctx, "reviews")
	require.NoError(t, err)
	assert.False(t, found)

	// Removing an absent key is not an error.
	assert.NoError(t, s.Remove(ctx, "reviews"))
}

func TestMemoryStore(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v := []byte("original")
	require.NoError(t, s.Set(ctx, "k", v))
	v[0] = 'X'

	got, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	testStoreRoundTrip(t, NewRedisStore(client, "gamerate"))
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "gamerate")
	require.NoError(t, s.Set(context.Background(), KeyCurrentUser, []byte(`{}`)))

	got, err := mr.Get("gamerate:" + KeyCurrentUser)
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	type record struct {
		Name string `json:"name"`
	}

	var out record
	found, err := GetJSON(ctx, s, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "k", record{Name: "hades"}))

	found, err = GetJSON(ctx, s, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hades", out.Name)

	// Corrupt payloads surface as errors, not silent misses.
	require.NoError(t, s.Set(ctx, "bad", []byte("{not json")))
	_, err = GetJSON(ctx, s, "bad", &out)
	assert.Error(t, err)
}
