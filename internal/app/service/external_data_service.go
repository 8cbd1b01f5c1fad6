// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/synzr/torobooru/internal/domain"
)

// ExternalDataService resolves URNs to provider records, reading the
// persisted store first and calling providers only for misses.
type ExternalDataService struct {
	repo        domain.ExternalDataRepository
	registry    domain.ProviderRegistry
	concurrency int
	logger      *zap.Logger
}

// NewExternalDataService creates a new ExternalDataService. At most
// concurrency provider calls run at once; values below 1 mean one.
func NewExternalDataService(
	repo domain.ExternalDataRepository,
	registry domain.ProviderRegistry,
	concurrency int,
	logger *zap.Logger,
) *ExternalDataService {
	if concurrency < 1 {
		concurrency = 1
	}

	return &ExternalDataService{
		repo:        repo,
		registry:    registry,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Resolve returns a mapping holding every input URN. URNs that cannot be
// resolved (not a URN, malformed, unregistered, or not found by the
// provider) map to nil. Unless forceRefresh is set, stored rows are served
// without calling providers. Fresh records are written in one transaction.
func (s *ExternalDataService) Resolve(ctx context.Context, urns []string, forceRefresh bool) (map[string]*domain.ExternalData, error) {
	result := make(map[string]*domain.ExternalData, len(urns))
	unique := make([]string, 0, len(urns))
	for _, u := range urns {
		if _, seen := result[u]; !seen {
			result[u] = nil
			unique = append(unique, u)
		}
	}

	if len(unique) == 0 {
		return result, nil
	}

	cached := 0
	if !forceRefresh {
		hits, err := s.fromStore(ctx, unique)
		if err != nil {
			return nil, err
		}
		for u, data := range hits {
			result[u] = data
		}
		cached = len(hits)
	}

	misses := make([]string, 0, len(unique)-cached)
	for _, u := range unique {
		if result[u] == nil {
			misses = append(misses, u)
		}
	}

	fresh, err := s.fromProviders(ctx, misses)
	if err != nil {
		return nil, err
	}

	if len(fresh) > 0 {
		rows := make([]domain.StoredExternalData, 0, len(fresh))
		for u, data := range fresh {
			payload, err := json.Marshal(data.Record)
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", u, err)
			}
			rows = append(rows, domain.StoredExternalData{URN: u, Payload: payload})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].URN < rows[j].URN })

		if err := s.repo.UpsertBatch(ctx, rows); err != nil {
			s.logger.Error("storing external data failed",
				zap.Int("count", len(rows)),
				zap.Error(err),
			)
			return nil, err
		}

		for u, data := range fresh {
			result[u] = data
		}
	}

	s.logger.Info("external data resolved",
		zap.Int("requested", len(unique)),
		zap.Int("cached", cached),
		zap.Int("fetched", len(fresh)),
		zap.Int("unresolved", len(misses)-len(fresh)),
		zap.Bool("force_refresh", forceRefresh),
	)

	return result, nil
}

// fromStore loads the stored rows for urns with one query. A row whose
// provider/object is no longer registered fails the whole lookup.
func (s *ExternalDataService) fromStore(ctx context.Context, urns []string) (map[string]*domain.ExternalData, error) {
	rows, err := s.repo.FindByURNs(ctx, urns)
	if err != nil {
		s.logger.Error("reading external data failed", zap.Error(err))
		return nil, err
	}

	hits := make(map[string]*domain.ExternalData, len(rows))
	for _, row := range rows {
		urn, err := domain.ParseURN(row.URN)
		if err != nil {
			return nil, fmt.Errorf("stored urn %q: %w", row.URN, err)
		}

		record, err := s.registry.Decode(urn, row.Payload)
		if err != nil {
			return nil, fmt.Errorf("stored urn %q: %w", row.URN, err)
		}

		hits[row.URN] = &domain.ExternalData{URNString: row.URN, URN: urn, Record: record}
	}

	s.logger.Debug("external data cache lookup",
		zap.Int("requested", len(urns)),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// fromProviders fetches urns through the registry. Provider errors abort
// the call; everything else that yields no record is simply left out.
func (s *ExternalDataService) fromProviders(ctx context.Context, urns []string) (map[string]*domain.ExternalData, error) {
	var (
		mu    sync.Mutex
		fresh = make(map[string]*domain.ExternalData, len(urns))
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, u := range urns {
		g.Go(func() error {
			urn, err := domain.ParseURN(u)
			if err != nil {
				if !errors.Is(err, domain.ErrNotURN) {
					s.logger.Warn("malformed urn", zap.String("urn", u), zap.Error(err))
				}
				return nil
			}

			record, err := s.registry.Fetch(gCtx, urn)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", u, err)
			}
			if record == nil {
				s.logger.Debug("urn not resolved", zap.String("urn", u))
				return nil
			}

			mu.Lock()
			fresh[u] = &domain.ExternalData{URNString: u, URN: urn, Record: record}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fresh, nil
}
