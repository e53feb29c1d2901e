package history

import (
	"context"
	"sort"
	"strconv"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/verifica/internal/model"
)

// MemoryBackend keeps history in process memory. Records never expire.
type MemoryBackend struct {
	cache  *gocache.Cache
	nextID atomic.Int64
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Insert stores a copy of the result under a fresh id
func (m *MemoryBackend) Insert(_ context.Context, result model.VerificationResult) (int64, error) {
	id := m.nextID.Add(1)
	result.ID = id
	result.Citations = append([]model.Citation{}, result.Citations...)
	m.cache.Set(key(id), result, gocache.NoExpiration)
	return id, nil
}

// Get returns the record with the given id
func (m *MemoryBackend) Get(_ context.Context, id int64) (model.VerificationResult, error) {
	val, found := m.cache.Get(key(id))
	if !found {
		return model.VerificationResult{}, ErrNotFound
	}
	return copyResult(val.(model.VerificationResult)), nil
}

// List returns all records, newest first
func (m *MemoryBackend) List(_ context.Context) ([]model.VerificationResult, error) {
	items := m.cache.Items()
	results := make([]model.VerificationResult, 0, len(items))
	for _, item := range items {
		results = append(results, copyResult(item.Object.(model.VerificationResult)))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Timestamp != results[j].Timestamp {
			return results[i].Timestamp > results[j].Timestamp
		}
		return results[i].ID > results[j].ID
	})
	return results, nil
}

// Delete removes a record; unknown ids are ignored
func (m *MemoryBackend) Delete(_ context.Context, id int64) error {
	m.cache.Delete(key(id))
	return nil
}

// Clear removes all records
func (m *MemoryBackend) Clear(_ context.Context) error {
	m.cache.Flush()
	return nil
}

// Close is a no-op
func (m *MemoryBackend) Close() error {
	return nil
}

func key(id int64) string {
	return "claim:" + strconv.FormatInt(id, 10)
}

func copyResult(r model.VerificationResult) model.VerificationResult {
	r.Citations = append([]model.Citation{}, r.Citations...)
	return r
}
