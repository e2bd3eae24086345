package summarize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/extract"
	"notesum-backend/internal/failure"
)

func TestChatGroundsPromptInDocument(t *testing.T) {
	f := &fakeCompleter{reply: " Silicon. "}
	s := New(f, 0, 0)

	answer, err := s.Chat(context.Background(), ChatRequest{
		Title:      "Solar 101",
		SourceType: extract.SourceYouTube,
		Transcript: "Panels use silicon cells.",
		Summary:    "A video about solar panels.",
		History:    []Turn{{Question: "What is it about?", Answer: "Solar panels."}},
		Question:   "What are the cells made of?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Silicon.", answer)

	require.Len(t, f.calls, 1)
	call := f.calls[0]
	assert.Contains(t, call.System, "Use only the document context")
	assert.Contains(t, call.System, NoAnswer)
	assert.Contains(t, call.User, "Panels use silicon cells.")
	assert.Contains(t, call.User, "A video about solar panels.")
	assert.Contains(t, call.User, "Q: What is it about?\nA: Solar panels.")
	assert.True(t, strings.HasSuffix(call.User, "Question: What are the cells made of?\n"))
}

func TestChatKeepsRecentHistoryOnly(t *testing.T) {
	var history []Turn
	for i := 0; i < maxHistoryTurns+3; i++ {
		history = append(history, Turn{Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}
	prompt := buildChatPrompt(ChatRequest{Transcript: "text", History: history, Question: "next"}, 100)
	assert.NotContains(t, prompt, "Q: q2\n")
	assert.Contains(t, prompt, "Q: q3\n")
	assert.Contains(t, prompt, fmt.Sprintf("Q: q%d\n", maxHistoryTurns+2))
}

func TestChatTruncatesLongTranscripts(t *testing.T) {
	prompt := buildChatPrompt(ChatRequest{Transcript: strings.Repeat("é", 50), Question: "q"}, 10)
	assert.Contains(t, prompt, strings.Repeat("é", 10)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("é", 11))
}

func TestChatValidation(t *testing.T) {
	f := &fakeCompleter{reply: "x"}
	s := New(f, 0, 0)

	_, err := s.Chat(context.Background(), ChatRequest{Transcript: "text", Question: "  "})
	assert.Equal(t, failure.InvalidInput, failure.KindOf(err))

	_, err = s.Chat(context.Background(), ChatRequest{Question: "why?"})
	assert.Equal(t, failure.InputTooShort, failure.KindOf(err))
	assert.Empty(t, f.calls)
}
