package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, KeyCourses)
	require.NoError(t, err)
	assert.False(t, ok)

	buf := []byte(`[]`)
	require.NoError(t, s.Set(ctx, KeyCourses, buf))
	buf[0] = 'x'

	v, ok, err := s.Get(ctx, KeyCourses)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v), "stored value must not alias the caller's slice")

	assert.ErrorIs(t, s.Set(ctx, "", nil), ErrInvalidKey)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, KeySettings)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeySettings, []byte(`{"totalWeeks":18}`)))
	require.NoError(t, s.Set(ctx, KeySettings, []byte(`{"totalWeeks":20}`)))

	v, ok, err := s.Get(ctx, KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"totalWeeks":20}`, string(v))

	info, err := os.Stat(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")

	_, _, err = s.Get(ctx, "../escape")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewFileStore("")
	assert.Error(t, err)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("down")
}

func TestFallbackUsesSecondaryOnPrimaryError(t *testing.T) {
	ctx := context.Background()
	secondary := NewMemoryStore()
	f := NewFallback(failingStore{}, secondary)

	require.NoError(t, f.Set(ctx, KeyCourses, []byte("v1")))
	v, ok, err := secondary.Get(ctx, KeyCourses)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	v, ok, err = f.Get(ctx, KeyCourses)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", string(v))
}

func TestFallbackPrefersPrimary(t *testing.T) {
	ctx := context.Background()
	primary, secondary := NewMemoryStore(), NewMemoryStore()
	f := NewFallback(primary, secondary)

	require.NoError(t, f.Set(ctx, KeyCourses, []byte("p")))
	_, ok, _ := secondary.Get(ctx, KeyCourses)
	assert.False(t, ok)

	// Absent in primary is an answer, not an error: no fallback read.
	require.NoError(t, secondary.Set(ctx, KeySettings, []byte("s")))
	_, ok, err := f.Get(ctx, KeySettings)
	require.NoError(t, err)
	assert.False(t, ok)

	f = NewFallback(nil, secondary)
	v, ok, err := f.Get(ctx, KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s", string(v))
}

func TestRedisStoreUnreachableFallsBack(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	rs := NewRedisStoreFromClient(client, "coursegrid:")
	defer rs.Close()

	ctx := context.Background()
	_, _, err := rs.Get(ctx, KeyCourses)
	require.Error(t, err)

	f := NewFallback(rs, NewMemoryStore())
	require.NoError(t, f.Set(ctx, KeyCourses, []byte("[]")))
	v, ok, err := f.Get(ctx, KeyCourses)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))

	_, err = NewRedisStore(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
