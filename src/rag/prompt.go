package rag

import (
	"strings"

	"github.com/Protocol-Lattice/go-rag/src/history"
	"github.com/Protocol-Lattice/go-rag/src/index"
)

// PromptTemplateVersion names the prompt layout. Bump it when the relative
// ordering of context, history and question changes, since cached responses
// are keyed on the rendered prompt.
const PromptTemplateVersion = "rag-prompt/v1"

// ContextBlock concatenates retrieved documents in similarity-ranked order,
// highest first. Zero documents yield the empty string.
func ContextBlock(docs []index.ScoredDocument) string {
	if len(docs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Document.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt renders the final prompt: context first, then role-labeled
// history in chronological order, then the raw question. Identical inputs
// always produce identical output.
func BuildPrompt(contextBlock string, turns []history.Turn, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant.\n")
	sb.WriteString("Use the context below to answer accurately.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n")

	if len(turns) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, t := range turns {
			sb.WriteString(roleLabel(t.Role))
			sb.WriteString(": ")
			sb.WriteString(t.Text)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nUser Query:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

func roleLabel(r history.Role) string {
	switch r {
	case history.RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}
