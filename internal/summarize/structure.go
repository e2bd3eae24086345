package summarize

import (
	"regexp"
	"strings"

	"notesum-backend/internal/extract"
)

const (
	minKeyPointLen     = 20
	maxKeyPointLen     = 200
	maxKeyPoints       = 5
	overviewSentences  = 3
	maxSectionBullets  = 4
	minSectionSentence = 20
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// Section is a titled bullet group of a structured summary.
type Section struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// Structured is the decomposition of free-text summary content.
type Structured struct {
	KeyPoints   []string
	Overview    []string
	Sections    []Section
	ChatOptions []string
}

var sectionTitles = map[extract.SourceType][]string{
	extract.SourceYouTube: {"Main Topics Discussed", "Key Insights", "Takeaways"},
	extract.SourceArticle: {"Main Arguments", "Supporting Evidence", "Conclusions"},
	extract.SourcePDF:     {"Document Purpose", "Key Information", "Important Details"},
	extract.SourceAudio:   {"Discussion Points", "Key Insights", "Follow-ups"},
}

var chatOptions = map[extract.SourceType][]string{
	extract.SourceYouTube: {
		"What were the main points of this video?",
		"Can you explain the key concepts discussed?",
		"What are the practical applications mentioned?",
	},
	extract.SourceArticle: {
		"What is the author's main argument?",
		"What evidence supports the claims?",
		"How does this relate to current trends?",
	},
	extract.SourcePDF: {
		"What is the main purpose of this document?",
		"Can you explain the key requirements?",
		"What are the important deadlines or dates?",
	},
	extract.SourceAudio: {
		"What were the main topics discussed?",
		"Were any decisions or action items mentioned?",
		"Can you explain the most important point in more detail?",
	},
}

// Structure derives key points, overview, sections and chat options from
// summary content. Every field is non-empty when content has any sentence.
func Structure(content string, st extract.SourceType) Structured {
	sentences := splitSentences(content)
	return Structured{
		KeyPoints:   keyPoints(sentences),
		Overview:    firstN(sentences, overviewSentences),
		Sections:    sections(sentences, st),
		ChatOptions: ChatOptions(st),
	}
}

// ChatOptions returns the suggested questions for a source type.
func ChatOptions(st extract.SourceType) []string {
	opts, ok := chatOptions[st]
	if !ok {
		opts = chatOptions[extract.SourcePDF]
	}
	return append([]string(nil), opts...)
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func splitSentences(content string) []string {
	var out []string
	for _, part := range sentenceSplitRe.Split(content, -1) {
		if s := strings.Join(strings.Fields(strings.TrimLeft(part, "-*• \t\n")), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func keyPoints(sentences []string) []string {
	var out []string
	for _, s := range sentences {
		if n := len(s); n > minKeyPointLen && n < maxKeyPointLen {
			out = append(out, s)
			if len(out) == maxKeyPoints {
				break
			}
		}
	}
	if len(out) == 0 {
		return firstN(sentences, overviewSentences)
	}
	return out
}

// sections splits the substantive sentences into thirds under source-specific
// titles. All titles are always present.
func sections(sentences []string, st extract.SourceType) []Section {
	titles, ok := sectionTitles[st]
	if !ok {
		titles = sectionTitles[extract.SourcePDF]
	}
	var body []string
	for _, s := range sentences {
		if len(s) > minSectionSentence {
			body = append(body, s)
		}
	}
	if len(body) == 0 {
		body = sentences
	}
	if len(body) == 0 {
		return nil
	}

	out := make([]Section, 0, len(titles))
	n := len(body)
	for i, title := range titles {
		// With fewer sentences than titles, neighbouring sections share one.
		chunk := body[i*n/len(titles) : max((i+1)*n/len(titles), i*n/len(titles)+1)]
		out = append(out, Section{Title: title, Bullets: firstN(chunk, maxSectionBullets)})
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	return append([]string(nil), items...)
}
