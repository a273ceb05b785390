// Package settings persists the pair labeler settings.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/menta2k/labelkit/pkg/kontext"
	"github.com/menta2k/labelkit/pkg/types"
	"github.com/menta2k/labelkit/pkg/vision"
)

// DefaultKey names the saved settings in key-value backends
const DefaultKey = "kontext_labeler_settings"

// DefaultModel is used until the user picks one
const DefaultModel = "gpt-4-vision-preview"

// ErrNotFound means nothing has been saved yet
var ErrNotFound = errors.New("settings not found")

// Defaults returns the settings shown before anything is saved
func Defaults() types.LabelSettings {
	return types.LabelSettings{
		BaseURL:      vision.DefaultOpenAIURL,
		Model:        DefaultModel,
		SystemPrompt: kontext.DefaultSystemPrompt,
	}
}

// Store persists one settings record
type Store interface {
	Load(ctx context.Context) (types.LabelSettings, error)
	Save(ctx context.Context, s types.LabelSettings) error
	Close() error
}

// Memory keeps settings in process
type Memory struct {
	mu    sync.Mutex
	saved *types.LabelSettings
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (types.LabelSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return types.LabelSettings{}, ErrNotFound
	}
	return *m.saved, nil
}

func (m *Memory) Save(_ context.Context, s types.LabelSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &s
	return nil
}

func (m *Memory) Close() error { return nil }

// File stores settings as a JSON document
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a store backed by path; the directory is created on first save
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(context.Context) (types.LabelSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.LabelSettings{}, ErrNotFound
	}
	if err != nil {
		return types.LabelSettings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var s types.LabelSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return types.LabelSettings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes to a temporary file and renames it over the old one
func (f *File) Save(_ context.Context, s types.LabelSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Close() error { return nil }

// Options selects and configures a backend
type Options struct {
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
	Key       string
}

// Open creates the store named by opts.Backend
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(opts.Path), nil
	case "sqlite":
		s, err := NewSQLite(opts.Path, opts.Key)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		r, err := NewRedis(ctx, opts.RedisAddr, opts.RedisDB, opts.Key)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported settings backend: %s", opts.Backend)
	}
}
