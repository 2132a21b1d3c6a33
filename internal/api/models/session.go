package models

import "strings"

// Selection domains accepted by POST /sessions/{id}/selection.
const (
	SelectionDomainDischarge = "discharge"
	SelectionDomainTide      = "tide"
)

// SelectionRequest picks a station from one of the two selectors.
type SelectionRequest struct {
	Domain    string `json:"domain"`
	StationID string `json:"stationId"`
}

// Validate returns field errors for the request.
func (r SelectionRequest) Validate() []FieldError {
	var errs []FieldError
	switch r.Domain {
	case SelectionDomainDischarge, SelectionDomainTide:
	case "":
		errs = append(errs, FieldError{Field: "domain", Message: "required", Code: "REQUIRED"})
	default:
		errs = append(errs, FieldError{Field: "domain", Message: "must be discharge or tide", Code: "INVALID_ENUM"})
	}
	if strings.TrimSpace(r.StationID) == "" {
		errs = append(errs, FieldError{Field: "stationId", Message: "required", Code: "REQUIRED"})
	}
	return errs
}

// StormRequest sets or clears the storm filter.
type StormRequest struct {
	StormID string `json:"stormId"`
}

// LayerToggleRequest turns an overlay on or off.
type LayerToggleRequest struct {
	Visible *bool `json:"visible"`
}

// Validate returns field errors for the request.
func (r LayerToggleRequest) Validate() []FieldError {
	if r.Visible == nil {
		return []FieldError{{Field: "visible", Message: "required", Code: "REQUIRED"}}
	}
	return nil
}
