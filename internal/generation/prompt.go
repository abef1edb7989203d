package generation

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// SystemPrompt frames every request.
const SystemPrompt = `You are a careful financial document analyst. Answer strictly from the document excerpts you are given.
- Use only information found in the excerpts; do not rely on outside knowledge.
- Never invent figures. If the excerpts do not contain the answer, say so.
- Quote numbers exactly as they appear and mention the excerpt they come from.
- Answer in plain text without markdown.`

// BuildPrompt assembles the grounding prompt: framing, optional history, the
// question, then each chunk labelled with its document id and section.
func BuildPrompt(question string, chunks []domain.Chunk, history []domain.ConversationTurn) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			content := strings.TrimSpace(turn.Content)
			if content == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker(turn.Role), content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Question:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nDocument excerpts:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "\n[%d] document=%s section=%s", i+1, c.DocumentID, c.Section)
		if c.DocumentName != "" {
			fmt.Fprintf(&b, " name=%q", c.DocumentName)
		}
		fmt.Fprintf(&b, "\n%s\n", c.Content)
	}
	b.WriteString("\nAnswer:")
	return b.String()
}

func speaker(role domain.ConversationRole) string {
	if role == domain.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
