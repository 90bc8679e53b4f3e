// Package memory provides in-memory storage backends for tests and
// single-process development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
)

var (
	_ storage.KV             = (*KV)(nil)
	_ storage.DiscoveryStore = (*DiscoveryStore)(nil)
)

// KV is a map-backed storage.KV.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, storage.ErrNotFound
}

func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *KV) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// DiscoveryStore is a map-backed storage.DiscoveryStore.
type DiscoveryStore struct {
	mu      sync.RWMutex
	records map[string]models.DiscoveryRecord
}

func NewDiscoveryStore() *DiscoveryStore {
	return &DiscoveryStore{records: make(map[string]models.DiscoveryRecord)}
}

func (s *DiscoveryStore) GetDiscovery(_ context.Context, id string) (*models.DiscoveryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return &rec, nil
	}
	return nil, storage.ErrNotFound
}

func (s *DiscoveryStore) PutDiscovery(_ context.Context, rec *models.DiscoveryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

func (s *DiscoveryStore) ListDiscovery(_ context.Context, opts storage.ListOptions) ([]models.DiscoveryRecord, error) {
	s.mu.RLock()
	out := make([]models.DiscoveryRecord, 0, len(s.records))
	for id, rec := range s.records {
		if opts.ExcludeID != "" && id == opts.ExcludeID {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts), nil
}

func page(recs []models.DiscoveryRecord, opts storage.ListOptions) []models.DiscoveryRecord {
	if opts.Offset >= len(recs) {
		return []models.DiscoveryRecord{}
	}
	if opts.Offset > 0 {
		recs = recs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(recs) {
		recs = recs[:opts.Limit]
	}
	return recs
}
