package story

import (
	"fmt"
	"regexp"
)

// Grammar selects which characters a word may contain.
type Grammar string

const (
	// GrammarLettersApostropheHyphen accepts ASCII letters plus ' and -.
	GrammarLettersApostropheHyphen Grammar = "letters-apostrophe-hyphen"
	// GrammarLettersOnly accepts ASCII letters only.
	GrammarLettersOnly Grammar = "letters-only"
)

var grammarPatterns = map[Grammar]*regexp.Regexp{
	GrammarLettersApostropheHyphen: regexp.MustCompile(`^[a-zA-Z'-]+$`),
	GrammarLettersOnly:             regexp.MustCompile(`^[a-zA-Z]+$`),
}

// ParseGrammar maps a configuration value onto a Grammar.
func ParseGrammar(s string) (Grammar, error) {
	g := Grammar(s)
	if _, ok := grammarPatterns[g]; !ok {
		return "", fmt.Errorf("unknown grammar %q", s)
	}
	return g, nil
}

// Match reports whether word is made only of characters the grammar allows.
func (g Grammar) Match(word string) bool {
	re, ok := grammarPatterns[g]
	if !ok {
		return false
	}
	return re.MatchString(word)
}

func (g Grammar) describe() string {
	if g == GrammarLettersOnly {
		return "letters only"
	}
	return "letters, apostrophes and hyphens"
}
