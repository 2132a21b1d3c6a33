package models

// DomainSetting reports whether one data domain is shown.
type DomainSetting struct {
	Domain  string `json:"domain"`
	Enabled bool   `json:"enabled"`
}

// ViewSettings is the GET /admin/domains payload.
type ViewSettings struct {
	Domains    []DomainSetting   `json:"domains"`
	Strategies map[string]string `json:"strategies"`
}

// UpdateViewSettings is the PUT /admin/domains body. Omitted entries are unchanged.
type UpdateViewSettings struct {
	Domains    map[string]bool   `json:"domains,omitempty"`
	Strategies map[string]string `json:"strategies,omitempty"`
}
