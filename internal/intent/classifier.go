// Package intent routes a transcribed utterance to ancient lore, live
// web search, or plain generation using keyword heuristics.
package intent

import (
	"regexp"
	"strings"

	"github.com/normanking/arcanus/internal/lore"
)

// Route identifies how a turn should be answered.
type Route string

const (
	// RouteLore answers from the static knowledge base.
	RouteLore Route = "lore"
	// RouteSearch answers with live web search results.
	RouteSearch Route = "search"
	// RoutePlain answers from the model's general knowledge.
	RoutePlain Route = "plain"
)

// Decision is the outcome of classifying one utterance. It is computed
// fresh per turn; no state carries across turns.
type Decision struct {
	Route Route
	// Topic is set when Route is RouteLore.
	Topic *lore.Entry
	// Query is the extracted search query when Route is RouteSearch.
	Query string
}

// searchIndicators are phrase substrings that suggest the user wants
// current or real-time information.
var searchIndicators = []string{
	"latest", "recent", "current", "today", "now", "this week", "this month",
	"news", "weather", "price", "stock", "what's happening",
	"search for", "look up", "find information",
	"what is the current", "what's the latest", "breaking news",
	"how much does", "where can i", "when is the next",
	"who is", "what happened to", "is there any news about",
}

// fillerPhrases are conversational fragments stripped from search queries.
var fillerPhrases = []string{
	"please", "can you", "could you", "tell me", "search for", "look up",
	"find", "about",
	"what is", "what's", "who is", "who's", "where is", "where's",
	"when is", "when's", "how is", "how's",
}

const maxQueryWords = 10

// Classifier applies the lore-vs-search-vs-plain routing policy.
type Classifier struct {
	book            *lore.Book
	searchAvailable func() bool
}

// NewClassifier creates a classifier over the given lore book.
// searchAvailable reports whether the search client has a credential;
// when it returns false, temporal queries fall through to plain chat.
func NewClassifier(book *lore.Book, searchAvailable func() bool) *Classifier {
	if searchAvailable == nil {
		searchAvailable = func() bool { return false }
	}
	return &Classifier{book: book, searchAvailable: searchAvailable}
}

// Classify decides the route for one utterance. It never fails: every
// input yields exactly one of the three routes.
//
// Priority: a lore match without temporal language routes to lore; any
// temporal language routes to search when configured, even if a lore
// keyword also matched; everything else is plain chat.
func (c *Classifier) Classify(text string) Decision {
	topic := c.book.Lookup(text)
	needsSearch := wantsCurrentInfo(text)

	switch {
	case topic != nil && !needsSearch:
		return Decision{Route: RouteLore, Topic: topic}
	case needsSearch && c.searchAvailable():
		return Decision{Route: RouteSearch, Query: ExtractQuery(text)}
	default:
		return Decision{Route: RoutePlain}
	}
}

// wantsCurrentInfo reports whether the text contains temporal or
// current-event language.
func wantsCurrentInfo(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range searchIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// fillerPatterns matches each filler phrase case-insensitively. Rune
// lengths can change under case mapping, so matching runs on the
// original text rather than a lower-cased copy.
var fillerPatterns = compileFillers()

func compileFillers() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(fillerPhrases))
	for _, phrase := range fillerPhrases {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
	}
	return patterns
}

// ExtractQuery strips conversational filler from the text and caps the
// result at ten words. It always returns a string, possibly empty.
func ExtractQuery(text string) string {
	cleaned := text
	for _, pattern := range fillerPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	words := strings.Fields(cleaned)
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}
