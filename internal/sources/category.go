package sources

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Category is the kind of publisher behind a source
type Category string

const (
	CategoryNews       Category = "news"
	CategoryReference  Category = "reference"
	CategoryFactCheck  Category = "fact-check"
	CategoryGovernment Category = "government/scientific"
	CategoryOther      Category = "other"
)

// knownPublishers maps registrable domains to their category
var knownPublishers = map[string]Category{
	"reuters.com":     CategoryNews,
	"apnews.com":      CategoryNews,
	"npr.org":         CategoryNews,
	"bbc.com":         CategoryNews,
	"bbc.co.uk":       CategoryNews,
	"theguardian.com": CategoryNews,
	"nytimes.com":     CategoryNews,

	"britannica.com": CategoryReference,
	"wikipedia.org":  CategoryReference,

	"snopes.com":     CategoryFactCheck,
	"factcheck.org":  CategoryFactCheck,
	"politifact.com": CategoryFactCheck,
	"fullfact.org":   CategoryFactCheck,

	"who.int":    CategoryGovernment,
	"nature.com": CategoryGovernment,
}

// Categorize classifies a source URL by its publisher
func Categorize(rawURL string) Category {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return CategoryOther
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return CategoryOther
	}

	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if c, ok := knownPublishers[site]; ok {
			return c
		}
	}

	// Public-sector and academic suffixes
	suffix, _ := publicsuffix.PublicSuffix(host)
	for _, s := range []string{"gov", "mil", "edu", "int"} {
		if suffix == s || strings.HasPrefix(suffix, s+".") || strings.HasSuffix(suffix, "."+s) {
			return CategoryGovernment
		}
	}
	if suffix == "ac.uk" {
		return CategoryGovernment
	}

	return CategoryOther
}
