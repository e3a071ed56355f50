package pos

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDefaultLexicon(t *testing.T) {
	lex, err := DefaultLexicon()
	if err != nil {
		t.Fatalf("DefaultLexicon() error = %v", err)
	}
	if lex.Size() == 0 {
		t.Fatal("default lexicon is empty")
	}

	tests := []struct {
		word string
		want Label
	}{
		{"big", Adjective},
		{"Big", Adjective},
		{"  dark ", Adjective},
		{"cat", Noun},
		{"ran", Verb},
		{"quickly", Adverb},
		{"famous", Adjective},
		{"hopeful", Adjective},
		{"stylish", Adjective},
		{"fish", Noun},
		{"dish", Unknown},
		{"zebra", Unknown},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, err := lex.Tag(ctx, tt.word)
			if err != nil {
				t.Fatalf("Tag(%q) error = %v", tt.word, err)
			}
			if got != tt.want {
				t.Errorf("Tag(%q) = %s, want %s", tt.word, got, tt.want)
			}
		})
	}
}

func TestLoadLexicon(t *testing.T) {
	src := `
adjectives: [shiny]
nouns: [shiny-thing, famous]
adjective_suffixes: [y]
`
	lex, err := LoadLexicon(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadLexicon() error = %v", err)
	}

	ctx := context.Background()
	if got, _ := lex.Tag(ctx, "shiny"); got != Adjective {
		t.Errorf("Tag(shiny) = %s, want adjective", got)
	}
	// Explicit noun entry beats the suffix table.
	if got, _ := lex.Tag(ctx, "famous"); got != Noun {
		t.Errorf("Tag(famous) = %s, want noun", got)
	}
	if got, _ := lex.Tag(ctx, "grumpy"); got != Adjective {
		t.Errorf("Tag(grumpy) = %s, want adjective", got)
	}
}

func TestLoadLexiconInvalid(t *testing.T) {
	if _, err := LoadLexicon(strings.NewReader("adjectives: {")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTagCancelledContext(t *testing.T) {
	lex, err := DefaultLexicon()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := lex.Tag(ctx, "big"); !errors.Is(err, context.Canceled) {
		t.Errorf("Tag() error = %v, want context.Canceled", err)
	}
}

func TestNilLexiconUnavailable(t *testing.T) {
	var lex *Lexicon
	if _, err := lex.Tag(context.Background(), "big"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Tag() error = %v, want ErrUnavailable", err)
	}
}
