package featureflags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// ErrInvalidFlag is returned when a key or value is not a valid setting.
var ErrInvalidFlag = errors.New("invalid feature flag")

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	CacheTTL   time.Duration // How long to cache flags in memory
	Clock      clockwork.Clock
}

// Service reads and writes settings with a short-lived cache and falls back to the
// defaults when the repository is unavailable.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	clock    clockwork.Clock

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		clock:    clock,
	}
}

// GetAllFlags returns every setting: defaults overlaid with stored values.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	if cached := s.cached(); cached != nil {
		return cached
	}

	result := DefaultFlags(s.clock.Now())
	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load feature flags, using defaults")
		return result
	}
	for k, v := range stored {
		result[k] = v
	}

	s.mu.Lock()
	s.cache = result
	s.cacheExpiry = s.clock.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return copyFlags(result)
}

// GetFlag returns one setting, or nil for an unknown key.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	return s.GetAllFlags(ctx)[key]
}

// SetFlags validates and stores several settings.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	for _, f := range flags {
		if err := validate(f); err != nil {
			return err
		}
	}
	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return fmt.Errorf("saving feature flags: %w", err)
	}
	s.InvalidateCache()
	return nil
}

// SetFlag validates and stores one setting.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	return s.SetFlags(ctx, []*Flag{flag})
}

// InvalidateCache clears the cached flags, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.cacheExpiry = time.Time{}
}

// IsEnabled returns true if a boolean flag is set.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// DomainEnabled reports whether the panels of d are shown.
func (s *Service) DomainEnabled(ctx context.Context, d hydro.Domain) bool {
	return !s.IsEnabled(ctx, DomainDisabledKey(d))
}

// ViewSettings returns the current settings for view composition.
func (s *Service) ViewSettings(ctx context.Context) view.Settings {
	return Settings(s.GetAllFlags(ctx))
}

func (s *Service) cached() map[string]*Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil || s.clock.Now().After(s.cacheExpiry) {
		return nil
	}
	return copyFlags(s.cache)
}

func copyFlags(in map[string]*Flag) map[string]*Flag {
	out := make(map[string]*Flag, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

func validate(f *Flag) error {
	if f == nil || !ValidKey(f.Key) {
		return fmt.Errorf("%w: unknown key", ErrInvalidFlag)
	}
	if _, ok := f.Value.(bool); ok && isDomainKey(f.Key) {
		return nil
	}
	if v, ok := f.Value.(string); ok && !isDomainKey(f.Key) {
		if f.Key == StrategyKey(view.PanelDischarge) && view.Strategy(v) != view.StrategyChart {
			return fmt.Errorf("%w: discharge is always drawn as a chart", ErrInvalidFlag)
		}
		if view.Strategy(v).Valid() {
			return nil
		}
	}
	return fmt.Errorf("%w: bad value for %s", ErrInvalidFlag, f.Key)
}

func isDomainKey(key string) bool {
	return strings.HasPrefix(key, domainDisabledPrefix)
}
