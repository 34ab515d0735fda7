package templatesvc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultServiceTemplate is the template the service starts with and returns
// to whenever an update leaves the template empty.
const DefaultServiceTemplate = "根据以下文档资料（context）回答问题，不要使用外部工具。\n" +
	"<context>\n" +
	"[context]\n" +
	"</context>\n" +
	"\n" +
	"问题: [query]\n"

// DefaultTopK is the number of retrieved chunks the service starts with.
const DefaultTopK = 5

// ResetTopK is the value k takes when an update omits it.
const ResetTopK = 4

// Settings are the retrieval settings owned by the service.
type Settings struct {
	Template string `yaml:"template"`
	TopK     int    `yaml:"k"`
}

// DefaultSettings returns the settings a fresh service starts with.
func DefaultSettings() Settings {
	return Settings{Template: DefaultServiceTemplate, TopK: DefaultTopK}
}

// Store holds the current settings, optionally persisted to a YAML file.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	path     string
}

// NewMemoryStore returns a store that keeps settings in memory only.
func NewMemoryStore() *Store {
	return &Store{settings: DefaultSettings()}
}

// OpenStore returns a store persisted at path. Settings found in the file
// replace the defaults; a missing file is created on the first update.
func OpenStore(path string) (*Store, error) {
	store := &Store{settings: DefaultSettings(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if loaded.Template != "" {
		store.settings.Template = loaded.Template
	}
	if loaded.TopK > 0 {
		store.settings.TopK = loaded.TopK
	}
	return store, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings. A nil or empty template resets it to
// DefaultServiceTemplate; a nil or non-positive k becomes ResetTopK.
func (s *Store) Update(k *int, template *string) (Settings, error) {
	next := Settings{Template: DefaultServiceTemplate, TopK: ResetTopK}
	if template != nil && *template != "" {
		next.Template = *template
	}
	if k != nil && *k > 0 {
		next.TopK = *k
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := writeSettings(s.path, next); err != nil {
			return s.settings, err
		}
	}
	s.settings = next
	return next, nil
}

// writeSettings writes settings to path via a temp file and rename.
func writeSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing settings: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing settings %s: %w", path, err)
	}
	return nil
}
