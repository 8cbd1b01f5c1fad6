package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
)

// MediaProcessor derives and stores images for a batch of source URLs.
type MediaProcessor interface {
	ProcessBatch(ctx context.Context, images map[string][]domain.ImageType) (map[string]map[domain.ImageType]string, error)
}

// URLBuilder maps storage keys to public URLs.
type URLBuilder interface {
	URL(key string) string
}

// ContentService answers catalog queries and ingests new rows.
type ContentService struct {
	repo   domain.ContentRepository
	media  MediaProcessor
	urls   URLBuilder
	cache  domain.Cache // nil disables caching
	ttl    time.Duration
	logger *zap.Logger
}

// NewContentService creates a new ContentService. cache may be nil.
func NewContentService(
	repo domain.ContentRepository,
	media MediaProcessor,
	urls URLBuilder,
	cache domain.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		repo:   repo,
		media:  media,
		urls:   urls,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Query returns one page of the catalog. Cache failures are logged and
// the store is queried instead.
func (s *ContentService) Query(ctx context.Context, settings domain.ViewSettings) (domain.ViewResult[*domain.Content], error) {
	if err := settings.Check(); err != nil {
		return domain.ViewResult[*domain.Content]{}, err
	}

	key := queryCacheKey(settings)
	if cached, ok := s.cached(ctx, key); ok {
		return cached, nil
	}

	rows, err := s.repo.Query(ctx, settings)
	if err != nil {
		s.logger.Error("content query failed", zap.Error(err))
		return domain.ViewResult[*domain.Content]{}, err
	}

	result := domain.NewViewResult(rows, settings.PageSize)

	s.logger.Debug("content query completed",
		zap.Int("page", settings.PageIndex),
		zap.Int("page_size", settings.PageSize),
		zap.Int("count", len(result.Results)),
		zap.Bool("has_more", result.HasMore),
	)

	s.store(ctx, key, result)

	return result, nil
}

// Add inserts contents in one batch and returns the number of rows the
// store reports. With processMedia, every distinct media URL is first
// turned into MEDIA and THUMBNAIL derivatives and the rows are rewritten to
// point at their public URLs. Any failure aborts the whole call.
func (s *ContentService) Add(ctx context.Context, contents []*domain.Content, processMedia bool) (int64, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	if processMedia {
		if err := s.processMedia(ctx, contents); err != nil {
			return 0, err
		}
	}

	affected, err := s.repo.InsertBatch(ctx, contents)
	if err != nil {
		s.logger.Error("content insert failed",
			zap.Int("count", len(contents)),
			zap.Error(err),
		)
		return 0, err
	}

	s.logger.Info("contents added",
		zap.Int64("inserted", affected),
		zap.Bool("process_media", processMedia),
	)

	if affected > 0 && s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.logger.Warn("query cache clear failed", zap.Error(err))
		}
	}

	return affected, nil
}

func (s *ContentService) processMedia(ctx context.Context, contents []*domain.Content) error {
	wanted := []domain.ImageType{domain.ImageTypeMedia, domain.ImageTypeThumbnail}

	images := make(map[string][]domain.ImageType, len(contents))
	for _, c := range contents {
		images[c.MediaURL] = wanted
	}

	keys, err := s.media.ProcessBatch(ctx, images)
	if err != nil {
		return fmt.Errorf("processing media: %w", err)
	}

	for _, c := range contents {
		derived := keys[c.MediaURL]
		thumbnail := s.urls.URL(derived[domain.ImageTypeThumbnail])

		c.MediaURL = s.urls.URL(derived[domain.ImageTypeMedia])
		c.ThumbnailURL = &thumbnail
	}

	return nil
}

func (s *ContentService) cached(ctx context.Context, key string) (domain.ViewResult[*domain.Content], bool) {
	var result domain.ViewResult[*domain.Content]
	if s.cache == nil {
		return result, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("query cache read failed", zap.Error(err))
		return result, false
	}
	if data == nil {
		return result, false
	}

	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("query cache entry unreadable", zap.String("key", key), zap.Error(err))
		return result, false
	}

	return result, true
}

func (s *ContentService) store(ctx context.Context, key string, result domain.ViewResult[*domain.Content]) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("query cache entry not encodable", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("query cache write failed", zap.Error(err))
	}
}

// queryCacheKey hashes the normalized settings so that equal requests share
// an entry whatever the order of their tags.
func queryCacheKey(settings domain.ViewSettings) string {
	normalized, _ := json.Marshal(struct {
		Page     int      `json:"p"`
		Size     int      `json:"s"`
		Order    string   `json:"o"`
		Required []string `json:"r"`
		Blocked  []string `json:"b"`
	}{
		Page:     settings.PageIndex,
		Size:     settings.PageSize,
		Order:    string(settings.OrderBy),
		Required: settings.RequiredTags(),
		Blocked:  settings.BlockedTags(),
	})

	sum := sha256.Sum256(normalized)

	return "contents:" + hex.EncodeToString(sum[:])
}
