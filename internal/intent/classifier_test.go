package intent

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/arcanus/internal/lore"
)

func newTestClassifier(t *testing.T, searchAvailable bool) *Classifier {
	t.Helper()
	book, err := lore.NewBook()
	require.NoError(t, err)
	return NewClassifier(book, func() bool { return searchAvailable })
}

func TestClassifyRoutes(t *testing.T) {
	c := newTestClassifier(t, true)

	tests := []struct {
		name string
		text string
		want Route
	}{
		{"lore keyword", "tell me about dragons", RouteLore},
		{"temporal language", "what's the latest news today", RouteSearch},
		{"plain chat", "how are you feeling, wise one", RoutePlain},
		{"empty input", "", RoutePlain},
		{"lore keyword with temporal language prefers search", "any recent news about dragons", RouteSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := c.Classify(tt.text)
			assert.Equal(t, tt.want, dec.Route)
			switch dec.Route {
			case RouteLore:
				assert.NotNil(t, dec.Topic)
			case RouteSearch:
				assert.NotEmpty(t, dec.Query)
			}
		})
	}
}

func TestClassifySearchUnavailable(t *testing.T) {
	c := newTestClassifier(t, false)

	// Temporal queries fall through to plain chat when search has no
	// credential.
	dec := c.Classify("what's the latest news today")
	assert.Equal(t, RoutePlain, dec.Route)

	// Lore still works without search.
	dec = c.Classify("tell me about the stars")
	assert.Equal(t, RouteLore, dec.Route)
	require.NotNil(t, dec.Topic)
	assert.Equal(t, "stars", dec.Topic.Key)
}

func TestExtractQuery(t *testing.T) {
	t.Run("strips conversational filler", func(t *testing.T) {
		got := ExtractQuery("Can you please tell me about the history of Rome")
		assert.Equal(t, "the history of Rome", got)
	})

	t.Run("caps at ten words", func(t *testing.T) {
		got := ExtractQuery("one two three four five six seven eight nine ten eleven twelve")
		assert.Equal(t, "one two three four five six seven eight nine ten", got)
	})

	t.Run("all filler yields empty query", func(t *testing.T) {
		assert.Equal(t, "", ExtractQuery("can you please"))
	})

	// Case mapping changes byte length for some runes (Ⱥ grows from 2
	// to 3 bytes when lowered, İ shrinks); extraction must stay
	// rune-safe around them.
	t.Run("multi-byte case-changing runes", func(t *testing.T) {
		got := ExtractQuery("ȺȺȺȺ please")
		assert.Equal(t, "ȺȺȺȺ", got)
		assert.True(t, utf8.ValidString(got))

		got = ExtractQuery("İİİİ please latest news")
		assert.Equal(t, "İİİİ latest news", got)
		assert.True(t, utf8.ValidString(got))
	})
}
