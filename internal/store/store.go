// Package store persists analysis results keyed by session so MCP clients
// can re-fetch a past run without re-analyzing the document.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// ErrNotFound marks a lookup for a session key with no stored result.
var ErrNotFound = errors.New("analysis not found")

// AnalysisStore is the persistence contract for analysis results.
type AnalysisStore interface {
	Save(ctx context.Context, key string, result *voucher.VoucherAnalysisResult) error
	Load(ctx context.Context, key string) (*voucher.VoucherAnalysisResult, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStore keeps results in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*voucher.VoucherAnalysisResult
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*voucher.VoucherAnalysisResult)}
}

// Save stores or replaces the result for a key.
func (s *MemoryStore) Save(ctx context.Context, key string, result *voucher.VoucherAnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[key] = result
	return nil
}

// Load returns the result for a key, or ErrNotFound.
func (s *MemoryStore) Load(ctx context.Context, key string) (*voucher.VoucherAnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[key]
	if !ok {
		return nil, ErrNotFound
	}
	return result, nil
}

// Delete removes the result for a key. Unknown keys are not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, key)
	return nil
}

// Clear removes every stored result.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[string]*voucher.VoucherAnalysisResult)
	return nil
}

// Keys returns all stored session keys, sorted.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.results))
	for k := range s.results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
