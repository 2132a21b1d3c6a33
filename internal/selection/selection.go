// Package selection is the station selection state machine. Transitions are pure: they
// return the next state and the effects the caller must perform, in order.
package selection

import (
	"strings"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

// State is the active selection. The zero value is Unselected.
type State struct {
	Kind      hydro.StationKind `json:"kind,omitempty"`
	StationID string            `json:"stationId,omitempty"`
}

// Unselected is the initial state.
var Unselected = State{}

// IsZero reports whether no station is selected.
func (s State) IsZero() bool {
	return s.Kind == "" && s.StationID == ""
}

// IsDischarge reports whether a discharge station is selected.
func (s State) IsDischarge() bool {
	return s.Kind == hydro.KindDischarge
}

// IsTide reports whether a tide station is selected.
func (s State) IsTide() bool {
	return s.Kind == hydro.KindTide
}

// Event is a user action that changes the selection.
type Event struct {
	Kind      hydro.StationKind
	StationID string
}

// SelectDischarge builds the event for choosing a discharge station.
func SelectDischarge(id string) Event {
	return Event{Kind: hydro.KindDischarge, StationID: id}
}

// SelectTide builds the event for choosing a tide station.
func SelectTide(id string) Event {
	return Event{Kind: hydro.KindTide, StationID: id}
}

// EffectType names a side effect.
type EffectType string

// Effect types.
const (
	EffectClearDischargeSelector EffectType = "clear_discharge_selector"
	EffectClearTideSelector      EffectType = "clear_tide_selector"
	EffectSetDischargeSelector   EffectType = "set_discharge_selector"
	EffectSetTideSelector        EffectType = "set_tide_selector"
	EffectRecompose              EffectType = "recompose"
)

// Effect is one side effect of a transition.
type Effect struct {
	Type      EffectType
	StationID string
}

// Apply performs a transition. Events with an empty station id or an unknown kind are
// rejected: the state is returned unchanged with no effects.
func Apply(s State, e Event) (State, []Effect) {
	id := strings.TrimSpace(e.StationID)
	if id == "" {
		return s, nil
	}

	switch e.Kind {
	case hydro.KindDischarge:
		return State{Kind: hydro.KindDischarge, StationID: id}, []Effect{
			{Type: EffectClearTideSelector},
			{Type: EffectSetDischargeSelector, StationID: id},
			{Type: EffectRecompose},
		}
	case hydro.KindTide:
		return State{Kind: hydro.KindTide, StationID: id}, []Effect{
			{Type: EffectClearDischargeSelector},
			{Type: EffectSetTideSelector, StationID: id},
			{Type: EffectRecompose},
		}
	default:
		return s, nil
	}
}

// Selectors holds the values of the two station dropdowns.
type Selectors struct {
	Discharge string `json:"discharge"`
	Tide      string `json:"tide"`
}

// Perform applies the selector effects and reports whether a recomposition was requested.
func (sel *Selectors) Perform(effects []Effect) (recompose bool) {
	for _, e := range effects {
		switch e.Type {
		case EffectClearDischargeSelector:
			sel.Discharge = ""
		case EffectClearTideSelector:
			sel.Tide = ""
		case EffectSetDischargeSelector:
			sel.Discharge = e.StationID
		case EffectSetTideSelector:
			sel.Tide = e.StationID
		case EffectRecompose:
			recompose = true
		}
	}
	return recompose
}

// Exclusive reports whether at most one selector holds a value.
func (sel Selectors) Exclusive() bool {
	return sel.Discharge == "" || sel.Tide == ""
}
