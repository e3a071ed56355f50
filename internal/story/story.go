// Package story holds the collaborative story state and the rules for
// growing it one word at a time.
package story

import "strings"

const (
	// DefaultMaxWords is the length at which a story is archived.
	DefaultMaxWords = 500
	// DefaultTopK is how many frequent words the statistics keep.
	DefaultTopK = 5
	// UnknownContributor stands in for submitters without an identity.
	UnknownContributor = "unknown"
)

// State is the currently active story.
type State struct {
	Words []string
}

// ParseState builds a state from persisted story text. Blank text yields an
// empty story.
func ParseState(text string) State {
	return State{Words: strings.Fields(text)}
}

// WordCount returns the number of accepted words.
func (s State) WordCount() int {
	return len(s.Words)
}

// LastWord returns the most recently accepted word.
func (s State) LastWord() (string, bool) {
	if len(s.Words) == 0 {
		return "", false
	}
	return s.Words[len(s.Words)-1], true
}

// Text renders the story as space-joined words.
func (s State) Text() string {
	return strings.Join(s.Words, " ")
}

func (s State) clone() State {
	words := make([]string, len(s.Words))
	copy(words, s.Words)
	return State{Words: words}
}

// WordCount pairs a word with how often it occurs.
type WordCount struct {
	Word  string
	Count int
}

// Statistics is derived from a State and never stored on its own.
type Statistics struct {
	WordCount       int
	TopWords        []WordCount
	LastContributor string
}

// Archive is a frozen copy of a finished story.
type Archive struct {
	Sequence int
	Words    []string
}

// Text renders the archived story as space-joined words.
func (a Archive) Text() string {
	return strings.Join(a.Words, " ")
}

// Outcome is everything a caller needs to persist after an accepted word.
type Outcome struct {
	Word        string
	Contributor string
	State       State
	Statistics  Statistics
	// Archived is set only when this submission completed the story.
	Archived *Archive
}
