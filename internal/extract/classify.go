package extract

import (
	"net/url"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"notesum-backend/internal/failure"
)

var defaultArticleDomains = []string{
	"medium.com", "substack.com", "dev.to", "hashnode.com",
	"wordpress.com", "blogspot.com", "ghost.org",
	"nytimes.com", "washingtonpost.com", "theguardian.com",
	"bbc.com", "cnn.com", "reuters.com", "ap.org",
	"techcrunch.com", "arstechnica.com", "wired.com",
	"atlantic.com", "newyorker.com", "economist.com",
}

var articlePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/articles?/`),
	regexp.MustCompile(`/blog/`),
	regexp.MustCompile(`/news/`),
	regexp.MustCompile(`/posts?/`),
	regexp.MustCompile(`/story/`),
	regexp.MustCompile(`/\d{4}/\d{2}/\d{2}/`),
	regexp.MustCompile(`/[a-z0-9-]+\.html?$`),
}

// Classifier routes ambiguous links to a source type.
type Classifier struct {
	domains mapset.Set[string]
}

// NewClassifier builds a classifier from the built-in domain allow-list plus extra.
func NewClassifier(extra []string) *Classifier {
	domains := mapset.NewSet[string]()
	for _, d := range append(append([]string(nil), defaultArticleDomains...), extra...) {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains.Add(strings.TrimPrefix(d, "www."))
		}
	}
	return &Classifier{domains: domains}
}

// IsLikelyArticleURL applies the domain allow-list and path heuristics. Pure, no I/O.
func (c *Classifier) IsLikelyArticleURL(raw string) bool {
	u, ok := parseHTTPURL(raw)
	if !ok {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for label := host; label != ""; {
		if c.domains.Contains(label) {
			return true
		}
		_, rest, found := strings.Cut(label, ".")
		if !found {
			break
		}
		label = rest
	}
	path := strings.ToLower(u.EscapedPath())
	for _, p := range articlePathPatterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

// Classify picks youtube for YouTube links, article for likely articles, and
// otherwise asks the caller for an explicit type.
func (c *Classifier) Classify(raw string) (SourceType, error) {
	if _, ok := parseHTTPURL(raw); !ok {
		return "", failure.New(failure.InvalidInput, "classify", "url must be http or https")
	}
	if IsYouTubeURL(raw) {
		return SourceYouTube, nil
	}
	if c.IsLikelyArticleURL(raw) {
		return SourceArticle, nil
	}
	return "", failure.New(failure.InvalidInput, "classify", "could not tell what kind of link this is; pass sourceType")
}

// DomainName returns the host without a leading www.
func DomainName(raw string) string {
	u, ok := parseHTTPURL(raw)
	if !ok {
		return "Unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func parseHTTPURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// IsHTTPURL reports whether raw is an absolute http(s) URL.
func IsHTTPURL(raw string) bool {
	_, ok := parseHTTPURL(raw)
	return ok
}
