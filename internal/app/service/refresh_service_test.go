package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
)

type recordingResolver struct {
	urns   []string
	force  bool
	result map[string]*domain.ExternalData
	err    error
}

func (r *recordingResolver) Resolve(_ context.Context, urns []string, forceRefresh bool) (map[string]*domain.ExternalData, error) {
	r.urns = urns
	r.force = forceRefresh
	if r.err != nil {
		return nil, r.err
	}

	return r.result, nil
}

func TestRefreshService_RefreshStale(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := newFakeExternalDataRepo()
	repo.updatedAt["urn:pixiv:artwork:1"] = now.Add(-72 * time.Hour)
	repo.updatedAt["urn:pixiv:artwork:2"] = now.Add(-48 * time.Hour)
	repo.updatedAt["urn:pixiv:artwork:3"] = now.Add(-36 * time.Hour)
	repo.updatedAt["urn:pixiv:artwork:4"] = now.Add(-time.Hour)

	resolver := &recordingResolver{result: map[string]*domain.ExternalData{
		"urn:pixiv:artwork:1": {URNString: "urn:pixiv:artwork:1"},
		"urn:pixiv:artwork:2": nil,
	}}

	svc := NewRefreshService(repo, resolver, 24*time.Hour, 2, zap.NewNop())
	svc.now = func() time.Time { return now }

	result, err := svc.RefreshStale(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"urn:pixiv:artwork:1", "urn:pixiv:artwork:2"}, resolver.urns, "Oldest rows first, capped at the batch size")
	assert.True(t, resolver.force)
	assert.Equal(t, 2, result.Stale)
	assert.Equal(t, 1, result.Refreshed)
}

func TestRefreshService_NothingStale(t *testing.T) {
	repo := newFakeExternalDataRepo()
	repo.updatedAt["urn:pixiv:artwork:1"] = time.Now()
	resolver := &recordingResolver{}

	svc := NewRefreshService(repo, resolver, time.Hour, 10, zap.NewNop())

	result, err := svc.RefreshStale(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Stale)
	assert.Nil(t, resolver.urns, "Resolver should not be called")
}

func TestRefreshService_ResolverError(t *testing.T) {
	repo := newFakeExternalDataRepo()
	repo.updatedAt["urn:pixiv:artwork:1"] = time.Now().Add(-48 * time.Hour)
	resolver := &recordingResolver{err: errors.New("provider down")}

	svc := NewRefreshService(repo, resolver, time.Hour, 10, zap.NewNop())

	_, err := svc.RefreshStale(context.Background())
	assert.ErrorContains(t, err, "provider down")
}

func TestRefreshService_GoneRowsDoNotBlockQueue(t *testing.T) {
	fetcher := newCountingFetcher(map[string]domain.Record{
		"2": &domain.PixivArtwork{ArtworkID: "2"},
	})
	repo := newFakeExternalDataRepo()
	repo.rows["urn:pixiv:artwork:gone"] = []byte(`{"artwork_id":"gone"}`)
	repo.rows["urn:pixiv:artwork:2"] = []byte(`{"artwork_id":"2"}`)
	repo.updatedAt["urn:pixiv:artwork:gone"] = time.Now().Add(-96 * time.Hour)
	repo.updatedAt["urn:pixiv:artwork:2"] = time.Now().Add(-48 * time.Hour)

	resolver := NewExternalDataService(repo, newPixivRegistry(fetcher), 1, zap.NewNop())
	svc := NewRefreshService(repo, resolver, 24*time.Hour, 1, zap.NewNop())
	ctx := context.Background()

	first, err := svc.RefreshStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Stale)
	assert.Zero(t, first.Refreshed)
	assert.Equal(t, `{"artwork_id":"gone"}`, string(repo.rows["urn:pixiv:artwork:gone"]), "Unresolved rows keep their payload")

	second, err := svc.RefreshStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Refreshed)
	assert.Equal(t, 1, fetcher.calls["urn:pixiv:artwork:2"], "Newer row should be fetched on the second pass")
	assert.Equal(t, 1, fetcher.calls["urn:pixiv:artwork:gone"])
}

func TestRefreshService_TouchError(t *testing.T) {
	repo := newFakeExternalDataRepo()
	repo.updatedAt["urn:pixiv:artwork:1"] = time.Now().Add(-48 * time.Hour)
	repo.touchErr = errors.New("db down")
	resolver := &recordingResolver{result: map[string]*domain.ExternalData{}}

	svc := NewRefreshService(repo, resolver, time.Hour, 10, zap.NewNop())

	_, err := svc.RefreshStale(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, [][]string{{"urn:pixiv:artwork:1"}}, repo.touches)
}
