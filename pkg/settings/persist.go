package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Persister stores the settings document between runs
type Persister interface {
	Load() (Map, error)
	Save(Map) error
}

// FilePersister keeps the document as JSON on disk
type FilePersister struct {
	Path string
}

// NewFilePersister creates a persister writing to path
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

func (f *FilePersister) Load() (Map, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Map{}, err
	}
	return ParseMap(data)
}

func (f *FilePersister) Save(m Map) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Load reads the document from p. A missing document yields an empty map;
// an unreadable or invalid one yields an empty map and a warning.
func Load(p Persister) Map {
	m, err := p.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("discarding stored settings")
		}
		return NewMap()
	}
	return m
}
