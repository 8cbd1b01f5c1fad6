package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/synzr/torobooru/internal/domain"
)

// fakeExternalDataRepo is an in-memory domain.ExternalDataRepository.
type fakeExternalDataRepo struct {
	mu        sync.Mutex
	rows      map[string][]byte
	updatedAt map[string]time.Time
	finds     int
	upserts   [][]domain.StoredExternalData
	touches   [][]string
	findErr   error
	touchErr  error
}

func newFakeExternalDataRepo() *fakeExternalDataRepo {
	return &fakeExternalDataRepo{
		rows:      map[string][]byte{},
		updatedAt: map[string]time.Time{},
	}
}

func (r *fakeExternalDataRepo) FindByURNs(_ context.Context, urns []string) ([]domain.StoredExternalData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}

	var out []domain.StoredExternalData
	for _, u := range urns {
		if payload, ok := r.rows[u]; ok {
			out = append(out, domain.StoredExternalData{URN: u, Payload: payload})
		}
	}

	return out, nil
}

func (r *fakeExternalDataRepo) UpsertBatch(_ context.Context, rows []domain.StoredExternalData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upserts = append(r.upserts, rows)
	for _, row := range rows {
		r.rows[row.URN] = row.Payload
		r.updatedAt[row.URN] = time.Now()
	}

	return nil
}

func (r *fakeExternalDataRepo) ListStale(_ context.Context, olderThan time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var urns []string
	for u, at := range r.updatedAt {
		if at.Before(olderThan) {
			urns = append(urns, u)
		}
	}
	sort.Slice(urns, func(i, j int) bool { return r.updatedAt[urns[i]].Before(r.updatedAt[urns[j]]) })
	if len(urns) > limit {
		urns = urns[:limit]
	}

	return urns, nil
}

func (r *fakeExternalDataRepo) Touch(_ context.Context, urns []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touches = append(r.touches, urns)
	if r.touchErr != nil {
		return r.touchErr
	}
	for _, u := range urns {
		if _, ok := r.updatedAt[u]; ok {
			r.updatedAt[u] = time.Now()
		}
	}

	return nil
}

// countingFetcher returns a fixed record per identifier and counts calls.
type countingFetcher struct {
	mu      sync.Mutex
	records map[string]domain.Record
	calls   map[string]int
	err     error
}

func newCountingFetcher(records map[string]domain.Record) *countingFetcher {
	return &countingFetcher{records: records, calls: map[string]int{}}
}

func (f *countingFetcher) Fetch(_ context.Context, urn domain.URN) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[urn.String()]++
	if f.err != nil {
		return nil, f.err
	}

	return f.records[urn.Identifier], nil
}

func (f *countingFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		n += c
	}

	return n
}

// fakeContentRepo is an in-memory domain.ContentRepository.
type fakeContentRepo struct {
	rows      []*domain.Content
	queries   int
	inserts   int
	insertErr error
}

func (r *fakeContentRepo) Query(_ context.Context, settings domain.ViewSettings) ([]*domain.Content, error) {
	r.queries++

	start := settings.Offset()
	if start > len(r.rows) {
		start = len(r.rows)
	}
	end := start + settings.Limit()
	if end > len(r.rows) {
		end = len(r.rows)
	}

	return r.rows[start:end], nil
}

func (r *fakeContentRepo) InsertBatch(_ context.Context, contents []*domain.Content) (int64, error) {
	r.inserts++
	if r.insertErr != nil {
		return 0, r.insertErr
	}

	for _, c := range contents {
		c.ID = int64(len(r.rows) + 1)
		r.rows = append(r.rows, c)
	}

	return int64(len(contents)), nil
}

// memoryCache is an in-memory domain.Cache.
type memoryCache struct {
	data    map[string][]byte
	clears  int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.failGet {
		return nil, errors.New("connection refused")
	}

	return c.data[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memoryCache) Clear(_ context.Context) error {
	c.clears++
	c.data = map[string][]byte{}

	return nil
}

// fakeMedia maps every URL to deterministic keys.
type fakeMedia struct {
	batches []map[string][]domain.ImageType
	err     error
}

func (m *fakeMedia) ProcessBatch(_ context.Context, images map[string][]domain.ImageType) (map[string]map[domain.ImageType]string, error) {
	m.batches = append(m.batches, images)
	if m.err != nil {
		return nil, m.err
	}

	out := make(map[string]map[domain.ImageType]string, len(images))
	for u, types := range images {
		out[u] = map[domain.ImageType]string{}
		for _, t := range types {
			out[u][t] = t.StorageKey("hash-of-" + u[len(u)-1:])
		}
	}

	return out, nil
}

type prefixURLs string

func (p prefixURLs) URL(key string) string { return string(p) + key }
