package generation

import (
	"strings"
	"testing"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "Which year is covered?"},
		{Role: domain.RoleAssistant, Content: "Fiscal 2023."},
		{Role: domain.RoleUser, Content: "   "},
	}

	prompt := BuildPrompt("  What was revenue? ", chunks(2), history)

	assert.True(t, strings.HasPrefix(prompt, SystemPrompt))
	assert.Contains(t, prompt, "Conversation so far:\nUser: Which year is covered?\nAssistant: Fiscal 2023.\n")
	assert.Contains(t, prompt, "Question:\nWhat was revenue?\n")
	assert.Contains(t, prompt, "[1] document=doc-1 section=uploaded_chunk_1 name=\"annual-report.pdf\"\nexcerpt A")
	assert.Contains(t, prompt, "[2] document=doc-1 section=uploaded_chunk_2 name=\"annual-report.pdf\"\nexcerpt B")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))

	// history comes before the question, the question before the excerpts
	assert.Less(t, strings.Index(prompt, "Conversation so far"), strings.Index(prompt, "Question:"))
	assert.Less(t, strings.Index(prompt, "Question:"), strings.Index(prompt, "Document excerpts:"))
}

func TestBuildPrompt_UnnamedDocument(t *testing.T) {
	prompt := BuildPrompt("q", []domain.Chunk{{DocumentID: "doc-9", Section: "uploaded_chunk_4", Content: "text"}}, nil)

	assert.NotContains(t, prompt, "Conversation so far")
	assert.Contains(t, prompt, "[1] document=doc-9 section=uploaded_chunk_4\ntext")
	assert.NotContains(t, prompt, "name=")
}
