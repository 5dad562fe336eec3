package kv

import (
	"context"
	"sync"
)

// MemoryStorage is a thread-safe, in-memory Storage. Nothing survives the
// process; it backs tests and the memory driver.
type MemoryStorage struct {
	mu       sync.RWMutex
	data     map[string][]byte
	readErr  error
	writeErr error
	setCount int
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// FailReads makes every subsequent Get fail with err wrapped in
// ErrUnavailable. Pass nil to restore normal behaviour.
func (s *MemoryStorage) FailReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// FailWrites makes every subsequent Set and Delete fail with err wrapped in
// ErrUnavailable. Pass nil to restore normal behaviour.
func (s *MemoryStorage) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// SetCount returns the number of successful Set calls.
func (s *MemoryStorage) SetCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setCount
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readErr != nil {
		return nil, unavailable("get", key, s.readErr)
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return unavailable("set", key, s.writeErr)
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	s.setCount++
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return unavailable("delete", key, s.writeErr)
	}
	delete(s.data, key)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
