package source

import (
	"sort"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

// BannerMessage is shown while the banner is raised.
const BannerMessage = "Data unavailable. Some station data could not be loaded."

// Banner is the data-unavailable indicator.
type Banner struct {
	Raised  bool           `json:"raised"`
	Message string         `json:"message,omitempty"`
	Domains []hydro.Domain `json:"domains,omitempty"`
}

// banner is guarded by Resolver.mu.
type banner struct {
	raised  bool
	domains map[hydro.Domain]struct{}
}

// raise reports whether d was not already reported since the banner was last lowered.
func (b *banner) raise(d hydro.Domain) bool {
	b.raised = true
	if b.domains == nil {
		b.domains = make(map[hydro.Domain]struct{})
	}
	if _, ok := b.domains[d]; ok {
		return false
	}
	b.domains[d] = struct{}{}
	return true
}

// clear drops d and lowers the banner once no domain is left.
func (b *banner) clear(d hydro.Domain) {
	if !b.raised {
		return
	}
	delete(b.domains, d)
	if len(b.domains) == 0 {
		b.lower()
	}
}

func (b *banner) lower() {
	b.raised = false
	b.domains = nil
}

func (b *banner) snapshot() Banner {
	if !b.raised {
		return Banner{}
	}
	domains := make([]hydro.Domain, 0, len(b.domains))
	for d := range b.domains {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
	return Banner{Raised: true, Message: BannerMessage, Domains: domains}
}
