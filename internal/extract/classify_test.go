package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/failure"
)

func TestIsLikelyArticleURL(t *testing.T) {
	c := NewClassifier([]string{"www.Internal.Example"})
	cases := map[string]bool{
		"https://medium.com/@a/some-story-123":    true,
		"https://engineering.medium.com/x":        true,
		"https://internal.example/anything":       true,
		"https://random.test/blog/hello":          true,
		"https://random.test/2024/05/01/headline": true,
		"https://random.test/page.html":           true,
		"https://random.test/":                    false,
		"https://random.test/dashboard?id=1":      false,
		"mailto:someone@medium.com":               false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, c.IsLikelyArticleURL(raw), raw)
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)

	st, err := c.Classify("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, SourceYouTube, st)

	st, err = c.Classify("https://www.nytimes.com/2024/01/01/world/story.html")
	require.NoError(t, err)
	assert.Equal(t, SourceArticle, st)

	_, err = c.Classify("https://random.test/")
	assert.True(t, failure.Is(err, failure.InvalidInput))

	_, err = c.Classify("javascript:alert(1)")
	assert.True(t, failure.Is(err, failure.InvalidInput))
}

func TestDomainName(t *testing.T) {
	assert.Equal(t, "example.com", DomainName("https://WWW.Example.com/a"))
	assert.Equal(t, "Unknown", DomainName("nope"))
}

func TestParseSourceType(t *testing.T) {
	st, ok := ParseSourceType(" PDF ")
	assert.True(t, ok)
	assert.Equal(t, SourcePDF, st)
	_, ok = ParseSourceType("docx")
	assert.False(t, ok)
}
