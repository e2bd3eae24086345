package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/extract"
)

func TestStructureShortContentStillPopulatesFields(t *testing.T) {
	s := Structure("Short one. Tiny", extract.SourceArticle)
	assert.Equal(t, []string{"Short one", "Tiny"}, s.KeyPoints)
	assert.Equal(t, []string{"Short one", "Tiny"}, s.Overview)
	require.Len(t, s.Sections, 3)
	assert.Equal(t, "Main Arguments", s.Sections[0].Title)
	assert.Len(t, s.ChatOptions, 3)
}

func TestStructureFewSentencesKeepsEveryTitle(t *testing.T) {
	cases := map[string]struct {
		content string
		want    [][]string
	}{
		"one sentence": {
			content: "The whole talk argues for smaller pull requests.",
			want: [][]string{
				{"The whole talk argues for smaller pull requests"},
				{"The whole talk argues for smaller pull requests"},
				{"The whole talk argues for smaller pull requests"},
			},
		},
		"two sentences": {
			content: "Smaller pull requests get reviewed faster. Reviewers catch more bugs in short diffs.",
			want: [][]string{
				{"Smaller pull requests get reviewed faster"},
				{"Smaller pull requests get reviewed faster"},
				{"Reviewers catch more bugs in short diffs"},
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := Structure(tc.content, extract.SourceYouTube)
			require.Len(t, s.Sections, 3)
			for i, title := range []string{"Main Topics Discussed", "Key Insights", "Takeaways"} {
				assert.Equal(t, title, s.Sections[i].Title)
				assert.Equal(t, tc.want[i], s.Sections[i].Bullets, title)
			}
		})
	}
}

func TestStructureFiltersFragmentsFromKeyPoints(t *testing.T) {
	content := "Ok. This sentence is long enough to be a key point. " +
		"- Bulleted line that also qualifies as a point! Yes."
	s := Structure(content, extract.SourcePDF)
	assert.Equal(t, []string{
		"This sentence is long enough to be a key point",
		"Bulleted line that also qualifies as a point",
	}, s.KeyPoints)
	assert.Equal(t, "Ok", s.Overview[0])
}

func TestStructureSplitsIntoThirds(t *testing.T) {
	content := "First sentence is about the opening topic. Second sentence adds more background. " +
		"Third sentence introduces the middle part. Fourth sentence continues the middle part. " +
		"Fifth sentence wraps up with a conclusion. Sixth sentence lists the final takeaway."
	s := Structure(content, extract.SourceAudio)
	require.Len(t, s.Sections, 3)
	assert.Equal(t, "Discussion Points", s.Sections[0].Title)
	assert.Equal(t, []string{"First sentence is about the opening topic", "Second sentence adds more background"}, s.Sections[0].Bullets)
	assert.Equal(t, []string{"Fifth sentence wraps up with a conclusion", "Sixth sentence lists the final takeaway"}, s.Sections[2].Bullets)
}

func TestStructureEmpty(t *testing.T) {
	s := Structure("   ", extract.SourceYouTube)
	assert.Empty(t, s.KeyPoints)
	assert.Empty(t, s.Sections)
	assert.NotEmpty(t, s.ChatOptions)
}

func TestChatOptionsUnknownTypeFallsBack(t *testing.T) {
	assert.Equal(t, ChatOptions(extract.SourcePDF), ChatOptions("other"))
	opts := ChatOptions(extract.SourceYouTube)
	opts[0] = "mutated"
	assert.NotEqual(t, "mutated", ChatOptions(extract.SourceYouTube)[0])
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(" \n\t"))
	assert.Equal(t, 4, WordCount("one  two\nthree\tfour"))
}
