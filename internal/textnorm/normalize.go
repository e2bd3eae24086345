package textnorm

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<(script|style|noscript)\b[^>]*>.*?</(script|style|noscript)\s*>`)
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	cdataRe      = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	tagRe        = regexp.MustCompile(`<[a-zA-Z/!?][^<>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	captionRe    = regexp.MustCompile(`(?is)<(text|p)\b[^>]*>(.*?)</(text|p)\s*>`)
)

// Normalize strips markup, decodes entities and collapses whitespace.
// Malformed markup is stripped best-effort; it never fails.
func Normalize(markup string) string {
	if markup == "" {
		return ""
	}
	s := cdataRe.ReplaceAllString(markup, "$1")
	s = scriptRe.ReplaceAllString(s, " ")
	s = commentRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return Collapse(s)
}

// Collapse folds whitespace runs, including non-breaking spaces, to a single space.
func Collapse(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Captions converts a timed-text caption document into plain transcript text.
// Caption payloads are often entity-encoded twice, so cue text is decoded again
// after the tags are stripped.
func Captions(doc string) string {
	matches := captionRe.FindAllStringSubmatch(doc, -1)
	if len(matches) == 0 {
		return ""
	}
	cues := make([]string, 0, len(matches))
	for _, m := range matches {
		cue := Normalize(html.UnescapeString(m[2]))
		if cue != "" {
			cues = append(cues, cue)
		}
	}
	return Collapse(strings.Join(cues, " "))
}
