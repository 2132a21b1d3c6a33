package featureflags

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

// InMemoryRepository keeps flags in process memory. Settings are lost on restart.
type InMemoryRepository struct {
	clock clockwork.Clock

	mu    sync.RWMutex
	flags map[string]*Flag
}

// NewInMemoryRepository creates a repository seeded with the default flags.
func NewInMemoryRepository(clock clockwork.Clock) *InMemoryRepository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InMemoryRepository{
		clock: clock,
		flags: DefaultFlags(clock.Now()),
	}
}

// GetFlag retrieves a single flag by key.
func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flag, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	c := *flag
	return &c, nil
}

// GetAllFlags retrieves copies of all flags.
func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Flag, len(r.flags))
	for k, v := range r.flags {
		c := *v
		result[k] = &c
	}
	return result, nil
}

// SetFlag creates or updates a flag.
func (r *InMemoryRepository) SetFlag(ctx context.Context, flag *Flag) error {
	return r.SetFlags(ctx, []*Flag{flag})
}

// SetFlags creates or updates several flags at once.
func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for _, flag := range flags {
		r.flags[flag.Key] = &Flag{Key: flag.Key, Value: flag.Value, UpdatedAt: now}
	}
	return nil
}

// DeleteFlag removes a flag by key.
func (r *InMemoryRepository) DeleteFlag(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
