package poller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/drblury/mqflow/internal/runtime/ids"
)

// TokenExt is appended to liveness token file names.
const TokenExt = ".gen"

// Liveness reports the generation currently allowed to poll. A poller whose
// own generation differs has been superseded and stops.
type Liveness interface {
	Current(ctx context.Context) (string, error)
}

// Generations is a Liveness that can also start a new generation,
// superseding every poller of the previous one.
type Generations interface {
	Liveness
	Start() (string, error)
}

// FileLiveness keeps the token in <dir>/<key>.gen. The file is written once
// per generation and read before every retrieval, so a restarted input
// stops pollers left behind by an earlier process.
type FileLiveness struct {
	Path string
}

var _ Generations = (*FileLiveness)(nil)

// NewFileLiveness returns the token file for key under dir.
func NewFileLiveness(dir, key string) *FileLiveness {
	return &FileLiveness{Path: filepath.Join(dir, key+TokenExt)}
}

// Start writes a fresh generation token and returns it.
func (f *FileLiveness) Start() (string, error) {
	gen := ids.NewGeneration()
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create liveness folder: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(gen+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write liveness token: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return "", fmt.Errorf("failed to write liveness token: %w", err)
	}
	return gen, nil
}

// Current reads the token file. A removed token file means the generation
// was withdrawn and reports ErrSuperseded.
func (f *FileLiveness) Current(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: liveness token %s removed", ErrSuperseded, filepath.Base(f.Path))
	}
	if err != nil {
		return "", fmt.Errorf("failed to read liveness token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// MemoryLiveness keeps the token in memory. Used when no token folder is
// configured and by tests.
type MemoryLiveness struct {
	mu    sync.RWMutex
	token string
}

var _ Generations = (*MemoryLiveness)(nil)

// Start sets and returns a fresh generation token.
func (m *MemoryLiveness) Start() (string, error) {
	gen := ids.NewGeneration()
	m.Set(gen)
	return gen, nil
}

// Set replaces the token.
func (m *MemoryLiveness) Set(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MemoryLiveness) Current(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}
