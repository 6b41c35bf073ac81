package docstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the collection in process memory. IDs are monotonic per
// store instance and never reused after deletion. Used by tests and as the
// fallback when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	schema  []string
	records []Record
	lastID  int64
}

func NewMemoryStore(schema []string) *MemoryStore {
	return &MemoryStore{schema: schema}
}

func (s *MemoryStore) Create(ctx context.Context, fields Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := normalizeRecord(withSchema(s.schema, fields))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	rec[IDField] = s.lastID
	s.records = append(s.records, rec)

	return normalizeRecord(rec), nil
}

func (s *MemoryStore) Get(ctx context.Context, field string, value interface{}) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []Record{}
	for _, rec := range s.records {
		if equalValues(rec[field], value) {
			matches = append(matches, normalizeRecord(rec))
		}
	}
	return matches, nil
}

func (s *MemoryStore) GetAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, normalizeRecord(rec))
	}
	return all, nil
}

func (s *MemoryStore) Update(ctx context.Context, fields Record, field string, value interface{}) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, ok := fields[IDField]; ok {
		return nil, ErrImmutableID
	}
	patch := normalizeRecord(fields)

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []Record{}
	for _, rec := range s.records {
		if !equalValues(rec[field], value) {
			continue
		}
		for name, v := range patch {
			rec[name] = v
		}
		matches = append(matches, normalizeRecord(rec))
	}
	return matches, nil
}

func (s *MemoryStore) Delete(ctx context.Context, field string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if !equalValues(rec[field], value) {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}
