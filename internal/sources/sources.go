// Package sources holds the trusted-domain allow-list sent with every
// verification request.
package sources

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MaxDomains is the upstream limit on search_domain_filter entries
const MaxDomains = 20

// List is an ordered, validated set of trusted domains
type List struct {
	domains []string
	index   map[string]bool
}

// NewList validates and normalizes the given domains.
// Order is preserved. Entries must be registrable domains (or subdomains of one),
// not public suffixes, URLs or duplicates.
func NewList(domains []string) (*List, error) {
	if len(domains) > MaxDomains {
		return nil, fmt.Errorf("too many trusted domains: %d (max %d)", len(domains), MaxDomains)
	}

	l := &List{
		domains: make([]string, 0, len(domains)),
		index:   make(map[string]bool, len(domains)),
	}

	for _, raw := range domains {
		domain, err := normalizeDomain(raw)
		if err != nil {
			return nil, err
		}
		if l.index[domain] {
			return nil, fmt.Errorf("duplicate trusted domain: %s", domain)
		}
		l.index[domain] = true
		l.domains = append(l.domains, domain)
	}

	return l, nil
}

// Domains returns a copy of the allow-list in configured order
func (l *List) Domains() []string {
	out := make([]string, len(l.domains))
	copy(out, l.domains)
	return out
}

// Len returns the number of trusted domains
func (l *List) Len() int {
	return len(l.domains)
}

// Match reports whether the URL's host is a trusted domain or a subdomain of one
func (l *List) Match(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return false
	}

	if l.index[host] {
		return true
	}

	// Walk up the labels: news.bbc.co.uk -> bbc.co.uk -> co.uk
	for {
		idx := strings.Index(host, ".")
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
		if l.index[host] {
			return true
		}
	}
}

func normalizeDomain(raw string) (string, error) {
	domain := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if domain == "" {
		return "", fmt.Errorf("empty trusted domain")
	}
	if strings.ContainsAny(domain, "/:@ ") {
		return "", fmt.Errorf("trusted domain must be a bare host name: %q", raw)
	}

	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return "", fmt.Errorf("trusted domain %q is not a registrable domain: %w", raw, err)
	}

	return domain, nil
}
