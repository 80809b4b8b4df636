// Package settings persists user preferences in a small YAML file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// KeyDarkMode is the key holding the dark mode flag.
const KeyDarkMode = "darkMode"

// File is a durable key-value store backed by one YAML document.
// Writes go through a temp file, fsync and rename so a crash never leaves
// a torn file behind.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a File at path. The file is created on first write;
// its parent directory is created if missing.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("settings: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("settings: mkdir: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute file path.
func (f *File) Path() string {
	return f.path
}

// Bool returns the boolean under key, or false when unset.
func (f *File) Bool(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("settings: %s is %T, not bool", key, raw)
	}
	return b, nil
}

// SetBool stores v under key, keeping the other keys.
func (f *File) SetBool(key string, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = v
	return f.write(values)
}

// DarkMode returns the persisted dark mode flag.
func (f *File) DarkMode() (bool, error) {
	return f.Bool(KeyDarkMode)
}

// SetDarkMode persists the dark mode flag.
func (f *File) SetDarkMode(on bool) error {
	return f.SetBool(KeyDarkMode, on)
}

func (f *File) load() (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) write(values map[string]any) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".sislog-settings-*")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("settings: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("settings: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("settings: rename: %w", err)
	}
	success = true
	return nil
}
