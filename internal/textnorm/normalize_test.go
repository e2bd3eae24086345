package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "tags and entities", input: "<p>Fish &amp; Chips &lt;3</p>", want: "Fish & Chips <3"},
		{name: "quotes", input: "<b>It&#39;s &quot;fine&quot;</b>", want: `It's "fine"`},
		{name: "typographic", input: "&ldquo;Go&rdquo; &mdash; a language&hellip;", want: "“Go” — a language…"},
		{name: "nbsp collapses", input: "a&nbsp;&nbsp;b", want: "a b"},
		{name: "numeric entity", input: "caf&#233; &#x263A;", want: "café ☺"},
		{name: "script dropped", input: "<div>hi<script>var x = '<b>';</script> there</div>", want: "hi there"},
		{name: "comment dropped", input: "one<!-- hidden -->two", want: "one two"},
		{name: "unclosed tag kept as text", input: "broken <div class=\"x\" text", want: "broken <div class=\"x\" text"},
		{name: "multiline", input: "<h1>Title</h1>\n\n<p>Body\ttext</p>", want: "Title Body text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdentityOnPlainText(t *testing.T) {
	inputs := []string{
		"Plain sentence with punctuation, numbers 1 2 3 and symbols like a < b.",
		"  leading and trailing   spaces are collapsed  ",
		"Tom & Jerry met AT&T engineers.",
		"Unicode stays: café, “quoted”, — dashes.",
	}
	for _, in := range inputs {
		assert.Equal(t, Collapse(in), Normalize(in), in)
		assert.Equal(t, Normalize(in), Normalize(Normalize(in)), in)
	}
}

func TestCaptions(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
		`<text start="0.5" dur="1.2">Hello &amp;amp; welcome</text>` +
		`<text start="1.7" dur="2.0">it&amp;#39;s a   test</text>` +
		`<text start="3.7" dur="1.0"></text>` +
		`</transcript>`

	assert.Equal(t, "Hello & welcome it's a test", Captions(doc))
}

func TestCaptionsTimedTextParagraphs(t *testing.T) {
	doc := `<timedtext format="3"><body><p t="0" d="1000"><s>first</s><s t="200"> cue</s></p><p t="1000" d="900">second cue</p></body></timedtext>`
	assert.Equal(t, "first cue second cue", Captions(doc))
}

func TestCaptionsWithoutCues(t *testing.T) {
	assert.Equal(t, "", Captions("<transcript></transcript>"))
	assert.Equal(t, "", Captions("not xml at all"))
}
