package resilience_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
)

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("live-backend")
	cfg.Registry = registry

	client := resilience.NewClient(cfg)

	assert.Equal(t, 1, registry.Count())

	health := registry.Health("live-backend")
	require.NotNil(t, health)
	assert.Equal(t, "live-backend", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())

	assert.Equal(t, "live-backend", client.Name())
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("static-data")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	registry.Unregister("static-data")

	assert.Equal(t, 0, registry.Count())
	assert.Nil(t, registry.Health("static-data"))
}

func TestRegistry_RecordOutcomesUseClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2012, 10, 29, 12, 0, 0, 0, time.UTC))
	registry := resilience.NewRegistryWithClock(clock)
	cfg := resilience.DefaultClientConfig("live-backend")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	health := registry.Health("live-backend")
	require.NotNil(t, health)
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	registry.RecordSuccess("live-backend")
	clock.Advance(time.Minute)
	registry.RecordFailure("live-backend", assert.AnError)

	health = registry.Health("live-backend")
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, time.Minute, health.LastFailureAt.Sub(*health.LastSuccessAt))
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_AllHealthSortedByName(t *testing.T) {
	registry := resilience.NewRegistry()

	for _, name := range []string{"static-data", "live-backend", "image-host"} {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	all := registry.AllHealth()
	require.Len(t, all, 3)
	assert.Equal(t, "image-host", all[0].Name)
	assert.Equal(t, "live-backend", all[1].Name)
	assert.Equal(t, "static-data", all[2].Name)
}

func TestRegistry_UnknownNamesAreIgnored(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("nonexistent")
	registry.RecordFailure("nonexistent", assert.AnError)
	assert.Nil(t, registry.Health("nonexistent"))
}

func TestUpstreamHealth_States(t *testing.T) {
	tests := []struct {
		state      gobreaker.State
		isHealthy  bool
		isDegraded bool
		isUnhealth bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.UpstreamHealth{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealth, h.IsUnhealthy())
		})
	}
}
