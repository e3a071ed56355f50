package pos

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// minStemLength keeps suffix rules from firing on short words like "fish" or "tic".
const minStemLength = 3

type lexiconFile struct {
	Adjectives        []string `yaml:"adjectives"`
	Nouns             []string `yaml:"nouns"`
	Verbs             []string `yaml:"verbs"`
	Adverbs           []string `yaml:"adverbs"`
	AdjectiveSuffixes []string `yaml:"adjective_suffixes"`
}

// Lexicon tags words from an explicit word list, falling back to adjective
// suffix rules for words it has never seen.
type Lexicon struct {
	entries  map[string]Label
	suffixes []string
}

// DefaultLexicon returns the lexicon bundled with the binary.
func DefaultLexicon() (*Lexicon, error) {
	return parseLexicon(defaultLexicon)
}

// LoadLexiconFile reads a YAML lexicon from disk.
func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()
	return LoadLexicon(f)
}

// LoadLexicon reads a YAML lexicon.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return parseLexicon(data)
}

func parseLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}

	l := &Lexicon{entries: make(map[string]Label)}
	add := func(words []string, label Label) {
		for _, w := range words {
			w = normalize(w)
			if w == "" {
				continue
			}
			l.entries[w] = label
		}
	}
	add(file.Nouns, Noun)
	add(file.Verbs, Verb)
	add(file.Adverbs, Adverb)
	add(file.Adjectives, Adjective)

	for _, s := range file.AdjectiveSuffixes {
		if s = normalize(s); s != "" {
			l.suffixes = append(l.suffixes, s)
		}
	}
	return l, nil
}

// Tag implements Tagger.
func (l *Lexicon) Tag(ctx context.Context, word string) (Label, error) {
	if err := ctx.Err(); err != nil {
		return Unknown, err
	}
	if l == nil {
		return Unknown, ErrUnavailable
	}

	w := normalize(word)
	if label, ok := l.entries[w]; ok {
		return label, nil
	}
	for _, s := range l.suffixes {
		if strings.HasSuffix(w, s) && len(w)-len(s) >= minStemLength {
			return Adjective, nil
		}
	}
	return Unknown, nil
}

// Size reports how many explicit entries the lexicon holds.
func (l *Lexicon) Size() int {
	return len(l.entries)
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
