package storage

import (
	"context"
	"sort"
	"sync"

	"kae-hq/kae/pkg/history"
)

// MemoryStorage implements history.Storage with an in-memory map. Records
// are lost when the process exits.
type MemoryStorage struct {
	records map[string]*history.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*history.Record),
	}
}

// Store persists a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = copyRecord(record)
	return nil
}

// Query retrieves records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *history.Query) ([]*history.Record, error) {
	if query == nil {
		query = &history.Query{}
	}

	s.mu.RLock()
	results := make([]*history.Record, 0)
	for _, record := range s.records {
		if query.Matches(record) {
			results = append(results, copyRecord(record))
		}
	}
	s.mu.RUnlock()

	asc := query.SortOrder == history.SortAsc
	sort.Slice(results, func(i, j int) bool {
		if asc {
			return results[i].RecordedAt.Before(results[j].RecordedAt)
		}
		return results[i].RecordedAt.After(results[j].RecordedAt)
	})

	start := query.Offset
	if start > len(results) {
		return []*history.Record{}, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = history.DefaultQueryLimit
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}
	return results[start:end], nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if query.Matches(record) {
			count++
		}
	}
	return count, nil
}

// Delete removes records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if query.Matches(record) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*history.Record)
	return nil
}

func copyRecord(r *history.Record) *history.Record {
	cp := *r
	if r.Errors != nil {
		cp.Errors = append([]history.ErrorEntry(nil), r.Errors...)
	}
	return &cp
}
