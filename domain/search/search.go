// Package search parses the text typed in the message search box.
package search

import (
	"strings"
)

// Query is the structured form of a search input.
// Terms match any word, Phrases match exact sequences, Excluded drop messages containing them.
type Query struct {
	RawInput string
	Terms    string
	Phrases  []string
	Excluded []string
}

// NewSearchQuery splits the input into free terms, "quoted phrases" and -excluded words.
// Example: pizza "friday night" -pineapple
func NewSearchQuery(input string) Query {
	query := Query{RawInput: input}

	var textTerms []string
	rest := input
	for {
		start := strings.IndexByte(rest, '"')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], '"')
		if end < 0 {
			// Unbalanced quote, the remainder is read as plain words
			rest = rest[:start] + " " + rest[start+1:]
			break
		}
		if phrase := strings.TrimSpace(rest[start+1 : start+1+end]); phrase != "" {
			query.Phrases = append(query.Phrases, phrase)
		}
		rest = rest[:start] + " " + rest[start+end+2:]
	}

	for _, part := range strings.Fields(rest) {
		if strings.HasPrefix(part, "-") {
			if word := strings.TrimLeft(part, "-"); word != "" {
				query.Excluded = append(query.Excluded, word)
			}
			continue
		}
		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

// IsEmpty reports whether nothing positive is left to match.
func (q Query) IsEmpty() bool {
	return q.Terms == "" && len(q.Phrases) == 0
}
