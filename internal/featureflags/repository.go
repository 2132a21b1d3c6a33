package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when no setting is stored under a key.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores view settings as flags keyed by DomainDisabledKey and
// StrategyKey. Keys that were never written fall back to the defaults: every
// domain enabled, every panel drawn with its default strategy.
type Repository interface {
	// GetFlag returns the setting stored under key, or ErrFlagNotFound.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags returns every stored domain and strategy setting by key.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag stores one setting.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags stores a whole settings update atomically.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag resets key to its default. ErrFlagNotFound when nothing was stored.
	DeleteFlag(ctx context.Context, key string) error
}
