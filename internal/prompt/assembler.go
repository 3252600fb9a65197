// Package prompt assembles the generation context for one turn:
// persona framing, lore or scrying results, recent history, and the
// user's utterance.
package prompt

import (
	"fmt"
	"strings"

	"github.com/normanking/arcanus/internal/intent"
	"github.com/normanking/arcanus/internal/persona"
	"github.com/normanking/arcanus/internal/search"
	"github.com/normanking/arcanus/internal/session"
)

const (
	// historyWindow is the maximum number of trailing messages rendered.
	historyWindow = 8
	// maxRenderedResults caps how many search hits enter the prompt.
	maxRenderedResults = 3
)

// Assembler builds prompts for the generation client.
type Assembler struct {
	persona persona.Persona
}

// NewAssembler creates an assembler bound to a persona.
func NewAssembler(p persona.Persona) *Assembler {
	return &Assembler{persona: p}
}

// Assemble builds the full prompt for one turn. searchOutcome is nil
// unless the decision routed to search; a failed or empty search
// substitutes an explicit scrying-failed instruction. No length cap is
// applied here beyond the history window and result cap.
func (a *Assembler) Assemble(text string, history []session.Message, dec intent.Decision, searchOutcome *search.Outcome) string {
	blocks := []string{a.persona.SystemPrompt()}

	switch {
	case dec.Route == intent.RouteLore && dec.Topic != nil:
		blocks = append(blocks,
			fmt.Sprintf("\nANCIENT LORE (Use this as your primary source):\nTitle: %s\nContent: %s", dec.Topic.Title, dec.Topic.Body),
			"\nInstruction: Respond as "+a.persona.Name()+", using the provided ancient lore to answer the seeker's query.")
	case dec.Route == intent.RouteSearch && searchOutcome != nil && searchOutcome.OK() && len(searchOutcome.Results) > 0:
		blocks = append(blocks,
			"\nCURRENT SCRYING RESULTS (use this fresh information in your response):\n"+formatResults(searchOutcome),
			"\nInstruction: Respond as "+a.persona.Name()+", incorporating the current scrying results naturally into your mystical speech.")
	case dec.Route == intent.RouteSearch:
		blocks = append(blocks,
			"\nSCRYING ATTEMPT FAILED:\nThe scrying crystal grows dim - current information is not available at this moment.",
			"\nInstruction: Respond as "+a.persona.Name()+", explaining that your scrying powers have failed for current events, but you can still offer timeless wisdom.")
	default:
		blocks = append(blocks, "\nInstruction: Respond as "+a.persona.Name()+" based on your general knowledge.")
	}

	if len(history) > 0 {
		blocks = append(blocks, "\nConversation history:")
		recent := history
		if len(recent) > historyWindow {
			recent = recent[len(recent)-historyWindow:]
		}
		for _, msg := range recent {
			blocks = append(blocks, fmt.Sprintf("%s: %s", titleRole(msg.Role), msg.Content))
		}
	}

	blocks = append(blocks, "User: "+text)

	return strings.Join(blocks, "\n")
}

// formatResults renders the top search hits as numbered
// title/snippet/source triples.
func formatResults(o *search.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Web Search Results for '%s':\n\n", o.Query)
	for i, r := range o.Results {
		if i >= maxRenderedResults {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		fmt.Fprintf(&sb, "   Source: %s\n\n", r.Link)
	}
	return sb.String()
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
