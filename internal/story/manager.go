package story

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotcommander/storytime/internal/pos"
)

// Policy holds the deployment choices that shape how a story grows.
type Policy struct {
	// MaxWords is the length at which the story is archived and reset.
	MaxWords int
	// TopK bounds the ranked word list in the statistics.
	TopK int
	// Grammar decides which characters a word may contain.
	Grammar Grammar
	// ResetStarter, when set, becomes the first word of the next story
	// after an archive. Empty means the next story starts blank.
	ResetStarter string
	// RejectRepeatedAdjectives refuses an adjective directly after another.
	// It only applies when the manager has a tagger.
	RejectRepeatedAdjectives bool
}

// DefaultPolicy mirrors the behaviour the project has always had.
func DefaultPolicy() Policy {
	return Policy{
		MaxWords: DefaultMaxWords,
		TopK:     DefaultTopK,
		Grammar:  GrammarLettersApostropheHyphen,
	}
}

// Manager validates submissions and computes the next story state. It keeps
// no state of its own and never touches disk or network.
type Manager struct {
	policy Policy
	tagger pos.Tagger
	logger *slog.Logger
}

type Option func(*Manager)

// WithTagger enables the repeated adjective rule.
func WithTagger(t pos.Tagger) Option {
	return func(m *Manager) {
		m.tagger = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager checks the policy and builds a Manager.
func NewManager(policy Policy, opts ...Option) (*Manager, error) {
	if policy.MaxWords < 1 {
		return nil, fmt.Errorf("max words must be positive, got %d", policy.MaxWords)
	}
	if policy.Grammar == "" {
		policy.Grammar = GrammarLettersApostropheHyphen
	}
	if _, err := ParseGrammar(string(policy.Grammar)); err != nil {
		return nil, err
	}
	if policy.ResetStarter != "" && !policy.Grammar.Match(policy.ResetStarter) {
		return nil, fmt.Errorf("reset starter %q does not satisfy grammar %s", policy.ResetStarter, policy.Grammar)
	}

	m := &Manager{
		policy: policy,
		logger: slog.Default().With("component", "story_manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Policy returns the policy the manager was built with.
func (m *Manager) Policy() Policy {
	return m.policy
}

// ValidateWord checks a raw candidate against the story rules. lastWord is
// the most recently accepted word, or "" for an empty story.
func (m *Manager) ValidateWord(ctx context.Context, candidate, lastWord string) error {
	word := strings.TrimSpace(candidate)
	if word == "" {
		return newValidationError(KindEmptyWord, candidate, "Word is empty")
	}
	if len(strings.Fields(word)) > 1 {
		return newValidationError(KindMultiWord, word, "Only single words allowed")
	}
	if !m.policy.Grammar.Match(word) {
		return newValidationError(KindInvalidCharacters, word,
			fmt.Sprintf("Word contains invalid characters (allowed: %s)", m.policy.Grammar.describe()))
	}
	if lastWord != "" && m.repeatsAdjective(ctx, lastWord, word) {
		return newValidationError(KindRepeatedAdjective, word,
			fmt.Sprintf("Two adjectives in a row (%q follows %q)", word, lastWord))
	}
	return nil
}

// repeatsAdjective fails open: any tagging problem lets the word through.
func (m *Manager) repeatsAdjective(ctx context.Context, lastWord, word string) bool {
	if !m.policy.RejectRepeatedAdjectives || m.tagger == nil {
		return false
	}

	prev, err := m.tagger.Tag(ctx, lastWord)
	if err != nil {
		m.logger.Debug("skipping adjective check", "word", lastWord, "error", err)
		return false
	}
	if prev != pos.Adjective {
		return false
	}

	next, err := m.tagger.Tag(ctx, word)
	if err != nil {
		m.logger.Debug("skipping adjective check", "word", word, "error", err)
		return false
	}
	return next == pos.Adjective
}

// SubmitWord appends an accepted word to a copy of state. archiveCount is the
// number of stories archived so far and numbers the next archive. Rejections
// leave state untouched.
func (m *Manager) SubmitWord(ctx context.Context, state State, candidate, contributor string, archiveCount int) (Outcome, error) {
	last, _ := state.LastWord()
	if err := m.ValidateWord(ctx, candidate, last); err != nil {
		return Outcome{}, err
	}

	word := strings.TrimSpace(candidate)
	if contributor = strings.TrimSpace(contributor); contributor == "" {
		contributor = UnknownContributor
	}

	next := state.clone()
	next.Words = append(next.Words, word)

	outcome := Outcome{
		Word:        word,
		Contributor: contributor,
		State:       next,
		Statistics:  ComputeStatistics(next.Words, contributor, m.policy.TopK),
	}

	if next.WordCount() >= m.policy.MaxWords {
		if archiveCount < 0 {
			archiveCount = 0
		}
		outcome.Archived = &Archive{
			Sequence: archiveCount + 1,
			Words:    next.Words,
		}
		outcome.State = m.freshState()

		m.logger.Info("story complete, archiving",
			"sequence", outcome.Archived.Sequence,
			"word_count", len(outcome.Archived.Words))
	}

	return outcome, nil
}

func (m *Manager) freshState() State {
	if m.policy.ResetStarter == "" {
		return State{Words: []string{}}
	}
	return State{Words: []string{m.policy.ResetStarter}}
}
