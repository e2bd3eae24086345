package summarize

import (
	"fmt"
	"strings"

	"notesum-backend/internal/extract"
)

const summarySystemPrompt = "Summarize the following content clearly and concisely. Provide the main points and key insights in a structured format. Write complete sentences."

const chatSystemPrompt = `You answer questions about a single document. Use only the document context provided in the message.
Do not use outside knowledge, even when you know the answer.
If the context does not contain the answer, reply exactly: "` + NoAnswer + `"`

// NoAnswer is the reply when the document context lacks the answer.
const NoAnswer = "The document doesn't cover that."

func sourceNoun(st extract.SourceType) string {
	switch st {
	case extract.SourceYouTube:
		return "YouTube video"
	case extract.SourceArticle:
		return "web article"
	case extract.SourceAudio:
		return "audio recording"
	default:
		return "PDF document"
	}
}

func sourceDescription(st extract.SourceType) string {
	switch st {
	case extract.SourceYouTube:
		return "a transcript from a YouTube video"
	case extract.SourceAudio:
		return "a transcript from an audio recording"
	case extract.SourceArticle:
		return "content from a web article"
	default:
		return "content from a PDF document"
	}
}

func instructions(st extract.SourceType) string {
	switch st {
	case extract.SourceYouTube:
		return "Summarize the key points, main topics discussed, and any important insights or conclusions.\nFocus on the educational or informational content while ignoring filler words or tangential remarks."
	case extract.SourceArticle:
		return "Summarize the main arguments, key findings, and important conclusions.\nFocus on the core message and supporting evidence presented by the author."
	case extract.SourceAudio:
		return "Summarize the topics discussed, decisions reached, and any follow-up items.\nIgnore filler words, false starts, and small talk."
	default:
		return "Summarize the key information, main topics, and important details.\nFocus on the document's primary purpose and essential information."
	}
}

// buildSummaryPrompt returns the user message for a summary request.
func buildSummaryPrompt(text string, opts Options) string {
	noun := sourceNoun(opts.SourceType)
	var b strings.Builder
	fmt.Fprintf(&b, "Please provide a comprehensive summary of the following %s content.\n\n", noun)
	fmt.Fprintf(&b, "This is %s", sourceDescription(opts.SourceType))
	if title := strings.TrimSpace(opts.Title); title != "" {
		fmt.Fprintf(&b, " titled %q", title)
	}
	b.WriteString(".\n")
	b.WriteString(instructions(opts.SourceType))
	fmt.Fprintf(&b, "\n\nKeep the summary clear, concise, and informative for someone who will not read or watch the entire %s.\n\nContent to summarize:\n", noun)
	b.WriteString(text)
	return b.String()
}

// buildChatPrompt lays out the grounding context, prior turns, and the new question.
func buildChatPrompt(req ChatRequest, maxContext int) string {
	var b strings.Builder
	b.WriteString("DOCUMENT CONTEXT\n")
	if title := strings.TrimSpace(req.Title); title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	fmt.Fprintf(&b, "Source: %s\n", sourceNoun(req.SourceType))
	if summary := strings.TrimSpace(req.Summary); summary != "" {
		fmt.Fprintf(&b, "\nSummary:\n%s\n", summary)
	}
	if transcript := strings.TrimSpace(req.Transcript); transcript != "" {
		fmt.Fprintf(&b, "\nFull text:\n%s\n", truncateRunes(transcript, maxContext))
	}
	b.WriteString("END OF DOCUMENT CONTEXT\n")

	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nEarlier in this conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", strings.TrimSpace(turn.Question), strings.TrimSpace(turn.Answer))
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(req.Question))
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
