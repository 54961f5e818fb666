// Package archive keeps an on-disk copy of captured messages, one file per
// message under <root>/<manager>/<target>/<YYYYMMDD>/.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// GzipExt is appended to compressed archive files.
const GzipExt = ".gz"

// DayLayout names the per-day directory.
const DayLayout = "20060102"

// Writer stores message copies. The zero Now uses time.Now.
type Writer struct {
	Root   string
	Prefix string
	Ext    string
	Gzip   bool
	Now    func() time.Time
}

// Dir returns the directory messages for manager and target captured at
// day are stored in.
func Dir(root, manager, target string, day time.Time) string {
	return filepath.Join(root, manager, target, day.Format(DayLayout))
}

// Name returns the path of a message file, without the compression suffix.
func (w *Writer) Name(manager, target, id string, day time.Time) string {
	return filepath.Join(Dir(w.Root, manager, target, day), w.Prefix+id+w.Ext)
}

// Write stores data and returns the file name without the compression
// suffix, which is what Read expects.
func (w *Writer) Write(manager, target, id string, data []byte) (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	name := w.Name(manager, target, id, now())

	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive folder: %w", err)
	}

	if !w.Gzip {
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write archive file: %w", err)
		}
		return name, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress archive file: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress archive file: %w", err)
	}
	if err := os.WriteFile(name+GzipExt, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return name, nil
}

// Read returns the content of an archived message. When name does not exist
// the compressed name+".gz" is tried.
func Read(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	f, err := os.Open(name + GzipExt)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed archive file: %w", err)
	}
	defer zr.Close()

	data, err = io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress archive file: %w", err)
	}
	return data, nil
}
