package research

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// SourceConfig holds the domain allow-lists the classifier and the
// extraction filters run against. All matching is done on lowercased
// registrable domains.
type SourceConfig struct {
	OEMDomains       []string `yaml:"oem_domains" mapstructure:"oem_domains"`
	RetailerDomains  []string `yaml:"retailer_domains" mapstructure:"retailer_domains"`
	CatalogDomains   []string `yaml:"catalog_domains" mapstructure:"catalog_domains"`
	MarketplaceHosts []string `yaml:"marketplace_hosts" mapstructure:"marketplace_hosts"`
	ForumMarkers     []string `yaml:"forum_markers" mapstructure:"forum_markers"`
}

// TierClassifier maps URLs to trust tiers. It holds only configuration and
// is safe for concurrent use; Classify is pure and deterministic.
type TierClassifier struct {
	cfg SourceConfig
}

// NewTierClassifier creates a classifier over the given allow-lists.
func NewTierClassifier(cfg SourceConfig) *TierClassifier {
	return &TierClassifier{cfg: cfg}
}

// RegistrableDomain returns the eTLD+1 of a URL's host, lowercased.
// Returns "" for unparseable URLs.
func RegistrableDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// Classify maps a URL plus a brand hint to a trust tier. Brand-substring
// match on the registrable domain wins over every list so OEM country
// domains (hp.de, canon.co.uk) classify without enumeration.
func (c *TierClassifier) Classify(rawURL, brand string) model.SourceTier {
	domain := RegistrableDomain(rawURL)
	if domain == "" {
		return model.TierUnknown
	}

	if token := brandToken(brand); token != "" && strings.Contains(domain, token) {
		return model.TierAOEM
	}
	if matchDomain(domain, c.cfg.OEMDomains) {
		return model.TierAOEM
	}
	if matchDomain(domain, c.cfg.RetailerDomains) {
		return model.TierBRetailer
	}
	if c.isMarketplaceOrForum(rawURL, domain) {
		return model.TierCMarketplace
	}
	return model.TierUnknown
}

// IsCatalog reports whether the URL belongs to the logistics catalog
// allow-list (spec databases like Icecat).
func (c *TierClassifier) IsCatalog(rawURL string) bool {
	return matchDomain(RegistrableDomain(rawURL), c.cfg.CatalogDomains)
}

// IsAllowListed reports whether the URL's domain is on any configured
// trust list (OEM, retailer, or catalog). Used by strict-source filtering.
func (c *TierClassifier) IsAllowListed(rawURL string) bool {
	domain := RegistrableDomain(rawURL)
	return matchDomain(domain, c.cfg.OEMDomains) ||
		matchDomain(domain, c.cfg.RetailerDomains) ||
		matchDomain(domain, c.cfg.CatalogDomains)
}

func (c *TierClassifier) isMarketplaceOrForum(rawURL, domain string) bool {
	for _, h := range c.cfg.MarketplaceHosts {
		if strings.Contains(domain, strings.ToLower(h)) {
			return true
		}
	}
	lower := strings.ToLower(rawURL)
	for _, marker := range c.cfg.ForumMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// brandToken lowercases the brand and strips spaces so "Canon" matches
// canon.com and "Brother International" matches brother.de.
func brandToken(brand string) string {
	token := strings.ToLower(strings.TrimSpace(brand))
	if i := strings.IndexByte(token, ' '); i > 0 {
		token = token[:i]
	}
	if len(token) < 2 {
		return ""
	}
	return token
}

func matchDomain(domain string, list []string) bool {
	if domain == "" {
		return false
	}
	for _, d := range list {
		d = strings.ToLower(d)
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
