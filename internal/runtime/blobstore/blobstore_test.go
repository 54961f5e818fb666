package blobstore

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "blobs:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil, "")
	assert.ErrorIs(t, err, errspkg.ErrBlobStoreRequired)
}

func TestNewRedisStoreFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStoreFromURL("redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	defer store.Close()

	_, err = NewRedisStoreFromURL("://bad", "")
	assert.Error(t, err)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("507f1f77bcf86cd799439011"))
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID("507f1f77bcf86cd79943901"))
	assert.False(t, ValidID("zzzf1f77bcf86cd799439011"))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("<BLOB>48656C6C6F</BLOB>\x00\xff")
	doc, err := Encode(payload)
	require.NoError(t, err)

	out, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	_, err = Decode([]byte("!!!"))
	assert.Error(t, err)
	_, err = Decode([]byte("bm90IHpsaWI="))
	assert.Error(t, err)
}

func TestPutAndFetch(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	id, err := store.Put(ctx, "errors", []byte("payload"))
	require.NoError(t, err)
	assert.Len(t, id, IDLength)

	out, err := store.Fetch(ctx, "errors", strings.ToUpper(id))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), out)
}

func TestFetchStoredDocument(t *testing.T) {
	mr, store := setupTestRedis(t)
	doc, err := Encode([]byte("hello"))
	require.NoError(t, err)
	mr.Set("blobs:errors:507f1f77bcf86cd799439011", string(doc))

	out, err := store.Fetch(context.Background(), "errors", "507f1f77bcf86cd799439011")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestFetchErrors(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Fetch(ctx, "errors", "short")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = store.Fetch(ctx, "errors", "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, ErrNotFound)

	mr.Set("blobs:errors:507f1f77bcf86cd799439012", "not base64!")
	_, err = store.Fetch(ctx, "errors", "507f1f77bcf86cd799439012")
	assert.ErrorContains(t, err, "decode")
}
