// Package preference holds user preferences read by the download flow, and the store abstraction they live in.
package preference

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrNotFound       = errors.New("preference not set")
	ErrInvalidQuality = errors.New("invalid quality")
)

// KeyQuality is the key of the audio quality preference.
const KeyQuality = "audio_quality"

// Quality is an audio bitrate tier understood by the backend.
type Quality string

const (
	Quality128 Quality = "128K"
	Quality192 Quality = "192K"
	Quality256 Quality = "256K"
	Quality320 Quality = "320K"
)

// DefaultQuality is the highest tier, used when no preference has been stored.
const DefaultQuality = Quality320

// Qualities lists every tier from lowest to highest.
func Qualities() []Quality {
	return []Quality{Quality128, Quality192, Quality256, Quality320}
}

func (q Quality) String() string {
	return string(q)
}

// Valid returns true if q is one of Qualities().
func (q Quality) Valid() bool {
	for _, known := range Qualities() {
		if q == known {
			return true
		}
	}
	return false
}

// ParseQuality accepts a tier case-insensitively, with or without the "K" suffix (e.g. "192", "192k").
func ParseQuality(s string) (Quality, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s != "" && !strings.HasSuffix(s, "K") {
		s += "K"
	}
	q := Quality(s)
	if !q.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	return q, nil
}

// Store is a string key-value store. Get returns ErrNotFound for keys that were never set.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// ReadQuality resolves the quality preference from store. A missing preference yields DefaultQuality; an
// unrecognised stored value also yields DefaultQuality, along with an error wrapping ErrInvalidQuality so the caller
// can report it. Any other store error is returned with DefaultQuality.
func ReadQuality(store Store) (Quality, error) {
	if store == nil {
		return DefaultQuality, nil
	}
	value, err := store.Get(KeyQuality)
	if errors.Is(err, ErrNotFound) || (err == nil && value == "") {
		return DefaultQuality, nil
	} else if err != nil {
		return DefaultQuality, fmt.Errorf("read %s: %w", KeyQuality, err)
	}
	q, err := ParseQuality(value)
	if err != nil {
		return DefaultQuality, err
	}
	return q, nil
}

// WriteQuality stores q after validating it.
func WriteQuality(store Store, q Quality) error {
	if !q.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidQuality, q)
	}
	return store.Set(KeyQuality, q.String())
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
