package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
)

// UpstreamHealth is the health snapshot of one upstream.
type UpstreamHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy returns true if the upstream circuit is closed.
func (h *UpstreamHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded returns true if the upstream circuit is half-open.
func (h *UpstreamHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy returns true if the upstream circuit is open.
func (h *UpstreamHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry tracks upstream clients and their last outcomes.
type Registry struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	upstreams map[string]*registeredUpstream
}

type registeredUpstream struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates a registry using the real clock.
func NewRegistry() *Registry {
	return NewRegistryWithClock(clockwork.NewRealClock())
}

// NewRegistryWithClock creates a registry with an injected clock.
func NewRegistryWithClock(clock clockwork.Clock) *Registry {
	return &Registry{
		clock:     clock,
		upstreams: make(map[string]*registeredUpstream),
	}
}

// Register adds a client to the registry, replacing any client with the same name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upstreams[name] = &registeredUpstream{client: client}
}

// Unregister removes an upstream from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.upstreams, name)
}

// RecordSuccess records a successful request.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.upstreams[name]; ok {
		now := r.clock.Now()
		u.lastSuccessAt = &now
	}
}

// RecordFailure records a failed request.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.upstreams[name]; ok {
		now := r.clock.Now()
		u.lastFailureAt = &now
		if err != nil {
			u.lastError = err.Error()
		}
	}
}

// Health returns the health of one upstream, or nil if it is not registered.
func (r *Registry) Health(name string) *UpstreamHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.upstreams[name]
	if !ok {
		return nil
	}
	return u.snapshot(name)
}

// AllHealth returns the health of every upstream, sorted by name.
func (r *Registry) AllHealth() []*UpstreamHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*UpstreamHealth, 0, len(r.upstreams))
	for name, u := range r.upstreams {
		health = append(health, u.snapshot(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// Count returns the number of registered upstreams.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.upstreams)
}

func (u *registeredUpstream) snapshot(name string) *UpstreamHealth {
	return &UpstreamHealth{
		Name:          name,
		CircuitState:  u.client.CircuitBreakerState(),
		Counts:        u.client.CircuitBreakerCounts(),
		LastSuccessAt: u.lastSuccessAt,
		LastFailureAt: u.lastFailureAt,
		LastError:     u.lastError,
	}
}
