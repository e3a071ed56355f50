package story

import (
	"errors"
	"fmt"
)

// Kind identifies why a candidate word was rejected.
type Kind string

const (
	KindEmptyWord         Kind = "empty_word"
	KindMultiWord         Kind = "multi_word"
	KindInvalidCharacters Kind = "invalid_characters"
	KindRepeatedAdjective Kind = "repeated_adjective"
)

var (
	ErrEmptyWord         = errors.New("word is empty")
	ErrMultiWord         = errors.New("only single words allowed")
	ErrInvalidCharacters = errors.New("word contains invalid characters")
	ErrRepeatedAdjective = errors.New("two adjectives in a row")
)

var kindErrors = map[Kind]error{
	KindEmptyWord:         ErrEmptyWord,
	KindMultiWord:         ErrMultiWord,
	KindInvalidCharacters: ErrInvalidCharacters,
	KindRepeatedAdjective: ErrRepeatedAdjective,
}

// ValidationError reports a rejected candidate word. Rejections are final for
// the submission that caused them.
type ValidationError struct {
	Kind      Kind
	Candidate string
	Reason    string
}

func newValidationError(kind Kind, candidate, reason string) *ValidationError {
	return &ValidationError{Kind: kind, Candidate: candidate, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rejected word %q: %s", e.Candidate, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return kindErrors[e.Kind]
}

// IsRejection reports whether err is a word rejection rather than a failure.
func IsRejection(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// RejectionReason returns the human readable reason carried by a rejection.
func RejectionReason(err error) (string, bool) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return "", false
	}
	return verr.Reason, true
}
