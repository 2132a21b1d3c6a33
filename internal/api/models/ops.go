package models

// Health is the liveness and readiness payload.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus summarizes data sources, domains and upstreams.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Mode      string           `json:"mode"` // "live" or "static"
	APIBase   string           `json:"apiBase,omitempty"`
	Banner    BannerStatus     `json:"banner"`
	Domains   []DomainStatus   `json:"domains"`
	Providers []ProviderStatus `json:"providers"`
	Sessions  int              `json:"sessions"`
	Preload   *PreloadStatus   `json:"preload,omitempty"`
}

// BannerStatus is the data-unavailable banner.
type BannerStatus struct {
	Raised  bool     `json:"raised"`
	Message string   `json:"message,omitempty"`
	Domains []string `json:"domains,omitempty"`
}

// DomainStatus is the resolution state of one data domain.
type DomainStatus struct {
	Domain     string     `json:"domain"`
	Enabled    bool       `json:"enabled"`
	Resolved   bool       `json:"resolved"`
	Origin     string     `json:"origin,omitempty"`
	ResolvedAt *Timestamp `json:"resolvedAt,omitempty"`
	Failures   int        `json:"failures"`
}

// ProviderStatus represents the status of an upstream.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// PreloadStatus reports the domain warming job.
type PreloadStatus struct {
	TotalRuns     int64      `json:"totalRuns"`
	DomainsLoaded int64      `json:"domainsLoaded"`
	DomainsFailed int64      `json:"domainsFailed"`
	LastRunAt     *Timestamp `json:"lastRunAt,omitempty"`
}
