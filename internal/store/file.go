package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileKV stores each key as a file inside dir.
type FileKV struct {
	dir string
	log *zap.Logger

	mu      sync.Mutex
	written map[string][]byte // last content this process wrote, per path
}

func NewFileKV(dir string, log *zap.Logger) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrap(err, "create data dir")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileKV{dir: dir, log: log, written: map[string][]byte{}}, nil
}

// Path returns the file backing key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	b, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, wrap(err, "read "+key)
	}
	return string(b), true, nil
}

// Set writes through a temp file and rename so readers never see a partial document.
func (f *FileKV) Set(ctx context.Context, key, value string) error {
	path := f.Path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-"+sanitizeKey(key)+"-*")
	if err != nil {
		return wrap(err, "create temp")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return wrap(err, "write temp")
	}
	if err := tmp.Close(); err != nil {
		return wrap(err, "close temp")
	}
	f.mu.Lock()
	f.written[path] = []byte(value)
	f.mu.Unlock()
	if err := os.Rename(tmp.Name(), path); err != nil {
		return wrap(err, "rename "+key)
	}
	return nil
}

// Watch signals when the file for key changes to content this process did not write.
// The channel is closed when ctx ends.
func (f *FileKV) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, wrap(err, "fsnotify")
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return nil, wrap(err, "watch "+f.dir)
	}
	path := f.Path(key)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if f.ownWrite(path) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn("watch error", zap.String("dir", f.dir), zap.Error(err))
			}
		}
	}()
	return out, nil
}

func (f *FileKV) ownWrite(path string) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Equal(b, f.written[path])
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, key)
}

// MemoryKV keeps values in process.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV { return &MemoryKV{data: map[string]string{}} }

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
