// Package pos provides part-of-speech tagging for submitted story words.
package pos

import (
	"context"
	"errors"
)

// Label is a coarse part-of-speech classification.
type Label string

const (
	Unknown   Label = "unknown"
	Adjective Label = "adjective"
	Noun      Label = "noun"
	Verb      Label = "verb"
	Adverb    Label = "adverb"
)

// ErrUnavailable is returned by taggers that cannot classify words right now.
var ErrUnavailable = errors.New("part-of-speech tagger unavailable")

// Tagger classifies a single word.
type Tagger interface {
	Tag(ctx context.Context, word string) (Label, error)
}

// TaggerFunc adapts a plain function to the Tagger interface.
type TaggerFunc func(ctx context.Context, word string) (Label, error)

func (f TaggerFunc) Tag(ctx context.Context, word string) (Label, error) {
	return f(ctx, word)
}
