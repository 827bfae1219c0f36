package partlist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/events"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pos"
)

// Source supplies part-list products, typically the gateway client.
type Source interface {
	ProductsByType(ctx context.Context, productType pos.ProductType) ([]pos.Product, error)
}

// Service owns the refreshable recipe catalog and applies bundle
// substitution to tickets. The recipe snapshot is replaced wholesale on each
// successful refresh; a ticket rewrite in progress keeps the snapshot it
// started with.
type Service struct {
	Source  Source
	Cache   *Cache
	Bus     *events.Bus
	Logger  zerolog.Logger
	Timeout time.Duration

	mu      sync.RWMutex
	recipes []Recipe
	loaded  bool
	loading atomic.Bool
}

// ErrNoSource is returned by Refresh when no product source is configured.
var ErrNoSource = errors.New("partlist: source not configured")

// UpdateTicket applies at most one bundle substitution to the ticket. When
// the recipe catalog has not been loaded yet the ticket passes through
// unmodified and a background load is scheduled; an unavailable catalog is a
// degradation, not an error.
func (s *Service) UpdateTicket(ctx context.Context, ticket []pos.Item) []pos.Item {
	recipes, ok := s.snapshot()
	if !ok {
		s.triggerLoad()
		return ticket
	}
	recipe, hit := Match(ticket, recipes)
	if !hit {
		return ticket
	}
	if obs.PartListDetectedTotal != nil {
		obs.PartListDetectedTotal.Inc()
	}
	s.Logger.Info().Str("partlist_oid", recipe.Product.OID).Msg("part list detected")
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicPartListDetected, recipe.Product); err != nil {
			s.Logger.Error().Err(err).Msg("emit partlist event")
		}
	}
	return Apply(ticket, recipe)
}

// Refresh fetches the part-list catalog from the source, replaces the
// in-memory snapshot and updates the cache. On failure the previous snapshot
// stays in effect.
func (s *Service) Refresh(ctx context.Context) error {
	if s.Source == nil {
		return ErrNoSource
	}
	products, err := s.Source.ProductsByType(ctx, pos.ProductTypePartList)
	if err != nil {
		return err
	}
	s.install(products)
	if err := s.Cache.Set(ctx, products); err != nil {
		s.Logger.Warn().Err(err).Msg("cache part lists")
	}
	return nil
}

// Run refreshes the catalog on the given interval until the context ends,
// bounding how stale the recipe snapshot can get.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.Logger.Warn().Err(err).Msg("refresh part lists")
			}
		}
	}
}

// Loaded reports whether a recipe snapshot is available.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Service) snapshot() ([]Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recipes, s.loaded
}

func (s *Service) install(products []pos.Product) {
	recipes := Recipes(products)
	s.mu.Lock()
	s.recipes = recipes
	s.loaded = true
	s.mu.Unlock()
}

// triggerLoad starts a single background load attempt: first the cache, then
// the source. Concurrent triggers collapse into one in-flight load.
func (s *Service) triggerLoad() {
	if !s.loading.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.loading.Store(false)
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if products, ok, err := s.Cache.Get(ctx); err != nil {
			s.Logger.Warn().Err(err).Msg("read part list cache")
		} else if ok {
			s.install(products)
			return
		}
		if err := s.Refresh(ctx); err != nil {
			s.Logger.Warn().Err(err).Msg("load part lists")
		}
	}()
}
