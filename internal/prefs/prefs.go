// Package prefs stores the process-wide display preference of the editor
// UI. It is owned by the surfaces, never by the banner core.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

func (m Mode) Valid() bool { return m == ModeLight || m == ModeDark }

type Preferences struct {
	Mode Mode `json:"mode" toml:"mode"`
}

func Default() Preferences { return Preferences{Mode: ModeLight} }

// Store keeps preferences in memory and, when it has a path, in a TOML
// file. It is safe for concurrent use.
type Store struct {
	path string

	mu  sync.Mutex
	cur Preferences
}

// Open loads path. A missing file yields the defaults; an empty path keeps
// preferences in memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path, cur: Default()}
	if path == "" {
		return s, nil
	}
	var p Preferences
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if p.Mode.Valid() {
		s.cur = p
	}
	return s, nil
}

func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Set validates and persists p.
func (s *Store) Set(p Preferences) error {
	if !p.Mode.Valid() {
		return fmt.Errorf("invalid display mode %q", p.Mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(p); err != nil {
		return err
	}
	s.cur = p
	return nil
}

// Toggle flips between light and dark and returns the new preferences.
func (s *Store) Toggle() (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	if next.Mode == ModeDark {
		next.Mode = ModeLight
	} else {
		next.Mode = ModeDark
	}
	if err := s.saveLocked(next); err != nil {
		return s.cur, err
	}
	s.cur = next
	return next, nil
}

func (s *Store) saveLocked(p Preferences) error {
	if s.path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return writeAtomic(s.path, buf.Bytes(), 0o644)
}

// writeAtomic writes through a temp file in the same directory and renames
// it over path.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := f.Name()
	var success bool
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}
