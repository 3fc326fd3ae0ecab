package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory Store. It backs handler tests
// and local runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry

	// retention configuration; <= 0 means unlimited
	maxEntries int
	maxAge     time.Duration
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// Record appends one entry and enforces retention.
func (s *MemoryStore) Record(_ context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)

	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		over := len(s.entries) - s.maxEntries
		s.entries = s.entries[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.entries); i++ {
			if !s.entries[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.entries = s.entries[i:]
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, len(s.entries))
	copy(result, s.entries)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Popular groups entries by (city, country, region) in memory.
func (s *MemoryStore) Popular(_ context.Context, limit int) ([]PopularCity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type groupKey struct {
		city, country, region string
	}

	groups := make(map[groupKey]*PopularCity)
	for _, e := range s.entries {
		k := groupKey{e.CityName, e.Country, e.Region}
		g, ok := groups[k]
		if !ok {
			g = &PopularCity{
				CityName: e.CityName,
				Country:  e.Country,
				Region:   e.Region,
			}
			groups[k] = g
		}
		g.SearchCount++
		if e.Timestamp.After(g.LastSearched) {
			g.LastSearched = e.Timestamp
		}
	}

	result := make([]PopularCity, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SearchCount > result[j].SearchCount
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
