// Package blobstore reads message payloads kept out of band in a document
// store. Documents are stored compressed and base64 encoded.
package blobstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
)

// IDLength is the length of a document id in hex characters.
const IDLength = 24

var (
	ErrNotFound  = errors.New("mqflow: blob not found")
	ErrInvalidID = errors.New("mqflow: blob id must be 24 hex characters")
)

// Store fetches decompressed documents. Implementations are safe for
// concurrent use.
type Store interface {
	Fetch(ctx context.Context, collection, id string) ([]byte, error)
}

// ValidID reports whether id is a 24 character hex token.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// NewID returns a fresh time ordered document id.
func NewID() string {
	u := ulid.Make()
	return hex.EncodeToString(u[:IDLength/2])
}

// Encode compresses payload and base64 encodes the result.
func Encode(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
	base64.StdEncoding.Encode(out, buf.Bytes())
	return out, nil
}

// Decode reverses Encode: base64 decode, then inflate.
func Decode(doc []byte) ([]byte, error) {
	compressed := make([]byte, base64.StdEncoding.DecodedLen(len(doc)))
	n, err := base64.StdEncoding.Decode(compressed, bytes.TrimSpace(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed[:n]))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate blob: %w", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate blob: %w", err)
	}
	return payload, nil
}

// RedisStore keeps documents as string values under "<prefix><collection>:<id>".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store on client.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errspkg.ErrBlobStoreRequired
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// NewRedisStoreFromURL connects to the redis server at url.
func NewRedisStoreFromURL(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), prefix)
}

func (s *RedisStore) key(collection, id string) string {
	return s.prefix + collection + ":" + strings.ToLower(id)
}

func (s *RedisStore) Fetch(ctx context.Context, collection, id string) ([]byte, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	doc, err := s.client.Get(ctx, s.key(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s/%s: %w", collection, id, err)
	}
	return Decode(doc)
}

// Put stores payload and returns its new id.
func (s *RedisStore) Put(ctx context.Context, collection string, payload []byte) (string, error) {
	doc, err := Encode(payload)
	if err != nil {
		return "", fmt.Errorf("failed to compress blob: %w", err)
	}
	id := NewID()
	if err := s.client.Set(ctx, s.key(collection, id), doc, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return id, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
