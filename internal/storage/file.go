package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// FileBackend is the local fallback, a JSON file of key -> raw value
// under the user config directory. It is the equivalent of the
// browser localStorage path in the original client.
type FileBackend struct {
	path string
}

// DefaultStatePath returns the conventional state file location,
// e.g. ~/.config/foxden/state.json on Linux.
func DefaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "foxden", "state.json"), nil
}

// NewFileBackend creates a file backend at path, creating parent
// directories as needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{path: path}, nil
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	entries, err := b.load()
	if err != nil {
		return nil, err
	}
	value, ok := entries[key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (b *FileBackend) Set(_ context.Context, key string, value []byte) error {
	entries, err := b.load()
	if err != nil {
		return err
	}
	entries[key] = json.RawMessage(value)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	// Write-then-rename so a crash mid-write never truncates the file.
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}

func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
