package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// GenerationError is a failed image generation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "image generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// CredentialHint reports whether the failure looks like a missing or
// rejected API key, so the notice can point the user at their key.
func (e *GenerationError) CredentialHint() bool {
	return isCredentialFailure(e.Err)
}

// CredentialError means the API key is missing or was rejected, even after
// reselecting it.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string { return "api credential: " + e.Err.Error() }
func (e *CredentialError) Unwrap() error { return e.Err }

// CredentialSource hands out the current API key and can be asked to pick
// a new one after the service rejects it.
type CredentialSource interface {
	APIKey() string
	Reselect(ctx context.Context) error
}

var ErrNoKeyFile = errors.New("no key file configured")

// KeyFile serves a key given at startup and reselects by reading a key file,
// so an operator can rotate the key without a restart.
type KeyFile struct {
	path string

	mu  sync.RWMutex
	key string
}

func NewKeyFile(initial, path string) *KeyFile {
	k := &KeyFile{path: strings.TrimSpace(path), key: strings.TrimSpace(initial)}
	if k.key == "" && k.path != "" {
		_ = k.Reselect(context.Background())
	}
	return k
}

func (k *KeyFile) APIKey() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

func (k *KeyFile) Reselect(context.Context) error {
	if k.path == "" {
		return ErrNoKeyFile
	}
	raw, err := os.ReadFile(k.path)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return fmt.Errorf("key file %s is empty", k.path)
	}

	k.mu.Lock()
	k.key = key
	k.mu.Unlock()
	return nil
}
