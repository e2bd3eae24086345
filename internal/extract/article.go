package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/textnorm"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	minArticleChars   = 100
	minContainerChars = 100
	preferTextChars   = 200
	maxNoiseLineChars = 10
	maxChromeLineLen  = 60
	maxArticleBytes   = 5 << 20
)

var defaultChromePhrases = []string{
	"Share", "Tweet", "Pin", "Email", "Print", "Subscribe",
	"Newsletter", "Advertisement", "Cookie", "Privacy",
}

var (
	titleSuffixRe = regexp.MustCompile(`\s*-\s*[^-]*$`)
	bylineRe      = regexp.MustCompile(`\b[Bb]y\s+([A-Z][\w.'-]*(?:\s+[A-Z][\w.'-]*){0,3})`)
	spaceBeforeRe = regexp.MustCompile(`\s+([,.!?])`)

	containerSelectors = []string{
		"article",
		`[class*="article"]`,
		`[class*="content"]`,
		`[class*="post"]`,
		"main",
	}
)

// ArticleExtractor turns a web page into readable text plus metadata.
type ArticleExtractor struct {
	client *http.Client
	chrome *regexp.Regexp
}

// NewArticleExtractor builds an extractor; phrases extend the default chrome list.
func NewArticleExtractor(client *http.Client, phrases []string) *ArticleExtractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	all := append(append([]string(nil), defaultChromePhrases...), phrases...)
	quoted := make([]string, 0, len(all))
	for _, p := range all {
		if p = strings.TrimSpace(p); p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	return &ArticleExtractor{
		client: client,
		chrome: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Extract fetches rawURL and returns its main content.
func (a *ArticleExtractor) Extract(ctx context.Context, rawURL string) (Result, error) {
	const op = "article.extract"
	if _, ok := parseHTTPURL(rawURL); !ok {
		return Result{}, failure.New(failure.InvalidInput, op, "url must be http or https")
	}

	doc, err := a.fetch(ctx, rawURL)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SourceURL: rawURL,
		Title:     pageTitle(doc, rawURL),
		Excerpt:   metaContent(doc, `meta[name="description"]`, `meta[property="og:description"]`),
		SiteName:  metaContent(doc, `meta[property="og:site_name"]`),
	}
	if res.SiteName == "" {
		res.SiteName = DomainName(rawURL)
	}

	doc.Find("script, style, noscript, template, iframe, svg").Remove()

	res.Byline = metaContent(doc, `meta[name="author"]`, `meta[property="article:author"]`)
	if res.Byline == "" {
		if m := bylineRe.FindStringSubmatch(textnorm.Collapse(doc.Find("body").Text())); m != nil {
			res.Byline = m[1]
		}
	}

	res.Text = a.mainText(doc)
	if len(res.Text) < minArticleChars {
		return Result{}, failure.New(failure.ExtractionTooShort, op, fmt.Sprintf("only %d characters of readable text", len(res.Text)))
	}
	return res, nil
}

func (a *ArticleExtractor) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	const op = "article.fetch"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidInput, op, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.FetchFailed, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, failure.Upstream(failure.FetchFailed, op, resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return nil, failure.Wrap(failure.FetchFailed, op, fmt.Errorf("parse document: %w", err))
	}
	return doc, nil
}

// mainText picks the content container and keeps paragraph-level text from it.
func (a *ArticleExtractor) mainText(doc *goquery.Document) string {
	container := doc.Find("body").First()
	for _, sel := range containerSelectors {
		var found *goquery.Selection
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(textnorm.Collapse(s.Text())) >= minContainerChars {
				found = s
				return false
			}
			return true
		})
		if found != nil {
			container = found
			break
		}
	}
	if container.Length() == 0 {
		container = doc.Selection
	}

	var lines []string
	container.Find("p, h1, h2, h3, h4, h5, h6, div").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "div" && s.Find("p, div, h1, h2, h3, h4, h5, h6").Length() > 0 {
			return
		}
		if line := textnorm.Collapse(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})

	text := a.clean(lines)
	if len(text) < preferTextChars {
		text = a.clean([]string{textnorm.Collapse(container.Text())})
	}
	return text
}

// clean strips chrome phrases from short lines, drops navigation noise and
// repeated lines, and tidies punctuation spacing.
func (a *ArticleExtractor) clean(lines []string) string {
	out := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		if len(line) <= maxChromeLineLen {
			line = textnorm.Collapse(a.chrome.ReplaceAllString(line, " "))
		}
		line = spaceBeforeRe.ReplaceAllString(line, "$1")
		if len(line) <= maxNoiseLineChars || line == prev {
			continue
		}
		out = append(out, line)
		prev = line
	}
	return strings.Join(out, "\n")
}

func pageTitle(doc *goquery.Document, rawURL string) string {
	title := textnorm.Collapse(doc.Find("title").First().Text())
	if title == "" {
		title = metaContent(doc, `meta[property="og:title"]`)
	}
	if title == "" {
		return titleFromURL(rawURL)
	}
	if stripped := titleSuffixRe.ReplaceAllString(title, ""); stripped != "" {
		title = stripped
	}
	return title
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = textnorm.Collapse(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// titleFromURL turns the last path segment into a title, e.g. my-post.html -> My Post.
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "Article"
	}
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "." || seg == "/" || seg == "" {
		return u.Hostname()
	}
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	words := strings.Fields(seg)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	if len(words) == 0 {
		return u.Hostname()
	}
	return strings.Join(words, " ")
}
