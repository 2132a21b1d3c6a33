// Package featureflags stores runtime view settings as flags: which data domains are
// shown and how each panel is drawn.
package featureflags

import (
	"strings"
	"time"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// Key prefixes.
const (
	// domainDisabledPrefix keys a boolean that hides the panels of a domain.
	domainDisabledPrefix = "domain_disabled."

	// strategyPrefix keys the render strategy ("chart" or "image") of a panel.
	strategyPrefix = "strategy."
)

// DomainDisabledKey returns the flag key that disables a domain.
func DomainDisabledKey(d hydro.Domain) string {
	return domainDisabledPrefix + string(d)
}

// StrategyKey returns the flag key holding a panel's strategy.
func StrategyKey(id view.PanelID) string {
	return strategyPrefix + string(id)
}

// Flag is a stored setting.
type Flag struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// StringValue returns the flag value as a string.
// Returns the default value if the flag is nil or not a string.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(string); ok {
		return v
	}
	return defaultValue
}

// DefaultFlags enables every domain and draws every panel except discharge from
// pre-rendered images.
func DefaultFlags(now time.Time) map[string]*Flag {
	flags := make(map[string]*Flag)
	for _, d := range hydro.AllDomains() {
		k := DomainDisabledKey(d)
		flags[k] = &Flag{Key: k, Value: false, UpdatedAt: now}
	}
	for _, id := range view.PanelOrder() {
		if id == view.PanelDischarge {
			continue
		}
		k := StrategyKey(id)
		flags[k] = &Flag{Key: k, Value: string(view.StrategyImage), UpdatedAt: now}
	}
	return flags
}

// Settings converts flags to view settings. Unknown keys and malformed values are
// ignored.
func Settings(flags map[string]*Flag) view.Settings {
	s := view.Settings{
		Disabled:   make(map[hydro.Domain]bool),
		Strategies: make(map[view.PanelID]view.Strategy),
	}
	for key, f := range flags {
		switch {
		case strings.HasPrefix(key, domainDisabledPrefix):
			d := hydro.Domain(strings.TrimPrefix(key, domainDisabledPrefix))
			if d.Valid() && f.BoolValue(false) {
				s.Disabled[d] = true
			}
		case strings.HasPrefix(key, strategyPrefix):
			id := view.PanelID(strings.TrimPrefix(key, strategyPrefix))
			if st := view.Strategy(f.StringValue("")); st.Valid() {
				s.Strategies[id] = st
			}
		}
	}
	return s
}

// ValidKey reports whether key names a known domain or panel.
func ValidKey(key string) bool {
	switch {
	case strings.HasPrefix(key, domainDisabledPrefix):
		return hydro.Domain(strings.TrimPrefix(key, domainDisabledPrefix)).Valid()
	case strings.HasPrefix(key, strategyPrefix):
		id := view.PanelID(strings.TrimPrefix(key, strategyPrefix))
		for _, known := range view.PanelOrder() {
			if id == known {
				return true
			}
		}
	}
	return false
}
