// Package registry dispatches URNs to the provider that serves them.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/synzr/torobooru/internal/config"
	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/infra/provider"
	"github.com/synzr/torobooru/internal/infra/provider/discord"
	"github.com/synzr/torobooru/internal/infra/provider/pixiv"
	"github.com/synzr/torobooru/internal/infra/provider/tumblr"
	"github.com/synzr/torobooru/internal/infra/provider/twitter"

	"go.uber.org/zap"
)

type entry struct {
	fetcher domain.Fetcher
	objects map[string]domain.RecordFactory
}

// Registry maps provider names to their fetchers and record shapes.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *zap.Logger
}

var _ domain.ProviderRegistry = (*Registry)(nil)

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// NewRegistry creates a registry holding every given provider.
func NewRegistry(providers []domain.Provider, logger *zap.Logger) *Registry {
	r := New(logger)
	for _, p := range providers {
		r.RegisterProvider(p)
	}

	return r
}

// Register adds a provider under name. The first registration of a name wins;
// later ones are ignored and Register returns false.
func (r *Registry) Register(name string, fetcher domain.Fetcher, objects map[string]domain.RecordFactory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		r.logger.Warn("provider already registered, ignoring",
			zap.String("provider", name),
		)
		return false
	}

	declared := make(map[string]domain.RecordFactory, len(objects))
	for object, factory := range objects {
		declared[object] = factory
	}

	r.entries[name] = entry{fetcher: fetcher, objects: declared}
	r.logger.Info("provider registered",
		zap.String("provider", name),
		zap.Int("objects", len(declared)),
	)

	return true
}

// RegisterProvider registers p under its own name.
func (r *Registry) RegisterProvider(p domain.Provider) bool {
	return r.Register(p.Name(), p, p.Objects())
}

func (r *Registry) lookup(urn domain.URN) (entry, domain.RecordFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[urn.Provider]
	if !ok {
		return entry{}, nil, false
	}

	factory, ok := e.objects[urn.Object]
	if !ok {
		return entry{}, nil, false
	}

	return e, factory, true
}

// Fetch dispatches the URN to its provider. It returns nil without calling
// anything when the provider or object type is not registered.
func (r *Registry) Fetch(ctx context.Context, urn domain.URN) (domain.Record, error) {
	e, _, ok := r.lookup(urn)
	if !ok {
		r.logger.Debug("no provider for urn", zap.String("urn", urn.String()))
		return nil, nil
	}

	return e.fetcher.Fetch(ctx, urn)
}

// Decode rebuilds a stored record with the shape registered for the URN.
func (r *Registry) Decode(urn domain.URN, payload []byte) (domain.Record, error) {
	_, factory, ok := r.lookup(urn)
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", domain.ErrUnknownObject, urn.Provider, urn.Object)
	}

	record := factory()
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", record.Kind(), err)
	}

	return record, nil
}

// Supports reports whether the URN's provider and object type are registered.
func (r *Registry) Supports(urn domain.URN) bool {
	_, _, ok := r.lookup(urn)
	return ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// NewProviders creates all configured provider clients.
// Disabled providers are skipped; Discord also needs a bot token.
func NewProviders(cfg config.ProviderConfig, logger *zap.Logger) []domain.Provider {
	providers := make([]domain.Provider, 0, 4)

	if cfg.Pixiv.Enabled {
		providers = append(providers, pixiv.New(clientConfig(cfg.Pixiv, cfg.UserAgent), logger))
	}

	if cfg.Tumblr.Enabled {
		providers = append(providers, tumblr.New(clientConfig(cfg.Tumblr, cfg.UserAgent), logger))
	}

	if cfg.Twitter.Enabled {
		providers = append(providers, twitter.New(clientConfig(cfg.Twitter, cfg.UserAgent), logger))
	}

	if cfg.Discord.Enabled {
		if cfg.Discord.BotToken == "" {
			logger.Info("discord provider disabled: no bot token configured")
		} else {
			providers = append(providers, discord.New(
				clientConfig(cfg.Discord.ProviderEndpoint, cfg.UserAgent),
				cfg.Discord.BotToken,
				logger,
			))
		}
	}

	return providers
}

func clientConfig(ep config.ProviderEndpoint, userAgent string) provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL:   ep.BaseURL,
		Timeout:   ep.Timeout,
		UserAgent: userAgent,
		Retry: provider.RetryConfig{
			MaxAttempts: ep.Retry.MaxAttempts,
			WaitTime:    ep.Retry.WaitTime,
			MaxWaitTime: ep.Retry.MaxWaitTime,
		},
		CB: provider.CBConfig{
			MaxRequests:  ep.CB.MaxRequests,
			Interval:     ep.CB.Interval,
			Timeout:      ep.CB.Timeout,
			FailureRatio: ep.CB.FailureRatio,
		},
	}
}
