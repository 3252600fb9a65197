// Package lore holds the static knowledge base of ancient lore entries.
package lore

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lore.yaml
var loreYAML []byte

// Entry is a single canned reference text keyed by topic keyword.
type Entry struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

// Book is an ordered, immutable collection of lore entries. Lookup
// matches entries in declaration order, so earlier entries win ties.
type Book struct {
	entries []Entry
}

// NewBook loads the embedded lore entries. It is called once at startup.
func NewBook() (*Book, error) {
	var entries []Entry
	if err := yaml.Unmarshal(loreYAML, &entries); err != nil {
		return nil, fmt.Errorf("parse lore: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("lore book is empty")
	}
	for i, e := range entries {
		if e.Key == "" || e.Body == "" {
			return nil, fmt.Errorf("lore entry %d missing key or body", i)
		}
	}
	return &Book{entries: entries}, nil
}

// Lookup returns the first entry whose key is a substring of the
// lower-cased input, or nil when nothing matches.
func (b *Book) Lookup(text string) *Entry {
	lower := strings.ToLower(text)
	for i := range b.entries {
		if strings.Contains(lower, b.entries[i].Key) {
			e := b.entries[i]
			return &e
		}
	}
	return nil
}

// Entries returns a copy of all entries in declaration order.
func (b *Book) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *Book) Len() int { return len(b.entries) }
