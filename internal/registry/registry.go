// Package registry holds the static, ordered list of publisher domains
// and the small set of domains whose default language is not
// Portuguese (the "inverted-language" set from spec.md §4.2).
package registry

// Domain is a single publisher hostname plus its language-inversion
// flag. Immutable once constructed.
type Domain struct {
	Host     string
	Inverted bool
}

// Registry is the ordered, immutable list of publisher domains this
// dispatcher rotates across.
type Registry struct {
	domains  []Domain
	inverted map[string]bool
}

// New builds a Registry from an ordered host list and the subset of
// those hosts considered language-inverted.
func New(hosts []string, invertedHosts []string) *Registry {
	inverted := make(map[string]bool, len(invertedHosts))
	for _, h := range invertedHosts {
		inverted[h] = true
	}

	domains := make([]Domain, 0, len(hosts))
	for _, h := range hosts {
		domains = append(domains, Domain{Host: h, Inverted: inverted[h]})
	}

	return &Registry{domains: domains, inverted: inverted}
}

// Domains returns the registry in its fixed order.
func (r *Registry) Domains() []Domain {
	return r.domains
}

// Len returns the number of registered domains.
func (r *Registry) Len() int {
	return len(r.domains)
}

// At returns the domain at position i (0-based), wrapping is the
// caller's responsibility.
func (r *Registry) At(i int) Domain {
	return r.domains[i]
}

// Hosts returns just the hostnames, in registry order.
func (r *Registry) Hosts() []string {
	hosts := make([]string, len(r.domains))
	for i, d := range r.domains {
		hosts[i] = d.Host
	}
	return hosts
}

// IsInverted reports whether host is in the inverted-language set.
func (r *Registry) IsInverted(host string) bool {
	return r.inverted[host]
}

// Default is the registry's default publisher list, used when no
// deployment-specific override is configured. Not part of spec.md's
// data model proper (the registry is deployment config in the source
// system); kept here as the zero-config starting point referenced by
// the end-to-end scenarios in spec.md §8.
func Default() *Registry {
	return New(
		[]string{
			"appnewsdaily.com",
			"trendhubtoday.com",
			"quickreadnow.com",
			"dailybriefly.net",
		},
		[]string{
			"appmobile4u.com",
		},
	)
}
