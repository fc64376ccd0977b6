// Package moderation masks forbidden words in request and message contents.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// leet maps look-alike characters back to the letter they stand for.
var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

// Moderator finds dictionary words hidden in a content, whatever the case,
// the look-alike digits or the separators put between their letters.
type Moderator struct {
	automaton *goahocorasick.Machine
	mask      rune
	log       *slog.Logger
}

// NewModerator builds the automaton over the folded form of words.
// Entries that fold to nothing, like "...", are skipped.
func NewModerator(words []string, mask rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		folded := fold(word)
		if len(folded.letters) == 0 {
			log.Debug("Skipping censored word without letters", "word", word)
			continue
		}
		patterns = append(patterns, folded.letters)
	}

	automaton := new(goahocorasick.Machine)
	if err := automaton.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderator ready", "patterns", len(patterns))
	return &Moderator{automaton: automaton, mask: mask, log: log}, nil
}

// Censor masks every rune of content covered by a forbidden word, separators
// included, and leaves everything else untouched. It returns the masked content
// and the dictionary words found in order of appearance, nil when it is clean.
func (m *Moderator) Censor(content string) (string, []string) {
	folded := fold(content)
	if len(folded.letters) == 0 {
		return content, nil
	}
	hits := m.automaton.MultiPatternSearch(folded.letters, false)
	if len(hits) == 0 {
		return content, nil
	}

	runes := []rune(content)
	found := make([]string, 0, len(hits))
	for _, hit := range hits {
		first, last := hit.Pos, hit.Pos+len(hit.Word)-1
		if first < 0 || last >= len(folded.origin) {
			continue
		}
		for i := folded.origin[first]; i <= folded.origin[last]; i++ {
			runes[i] = m.mask
		}
		found = append(found, string(hit.Word))
	}
	return string(runes), found
}

// folded is a content reduced to its lower case letters.
// origin[i] is the index in the original runes of letters[i].
type folded struct {
	letters []rune
	origin  []int
}

func fold(input string) folded {
	runes := []rune(input)
	out := folded{letters: make([]rune, 0, len(runes)), origin: make([]int, 0, len(runes))}
	for i, r := range runes {
		if letter, ok := leet[r]; ok {
			r = letter
		}
		if isSeparator(r) {
			continue
		}
		out.letters = append(out.letters, unicode.ToLower(r))
		out.origin = append(out.origin, i)
	}
	return out
}

func isSeparator(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
