package query

import (
	"fmt"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
)

const systemPromptBase = `You are a knowledge assistant answering questions from an organization's document library.
Answer only from the provided context. If the context is insufficient, say so directly instead of guessing.
When you use information from a source, cite it by putting its exact title in square brackets, e.g. [Quarterly Revenue Report].`

const emailCitationNote = `
Some sources are emails: cite those by their subject line in square brackets, e.g. [Re: Contract Renewal].`

// buildSystemPrompt varies the citation instructions when any included
// source is email-origin.
func buildSystemPrompt(sources []domain.Source) string {
	for _, s := range sources {
		if s.IsEmail() {
			return systemPromptBase + emailCitationNote
		}
	}
	return systemPromptBase
}

// buildUserPrompt combines the assembled context with the question. An
// empty context still flows through; the model answers "insufficient
// information" on its own.
func buildUserPrompt(queryText, contextText string) string {
	if contextText == "" {
		return fmt.Sprintf("No documents were available as context.\n\nQuestion:\n%s", queryText)
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, queryText)
}
