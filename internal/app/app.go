// Package app wires the story manager to its collaborators: the files in the
// repository, git and the issue tracker.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dotcommander/storytime/internal/config"
	"github.com/dotcommander/storytime/internal/github"
	"github.com/dotcommander/storytime/internal/pos"
	"github.com/dotcommander/storytime/internal/readme"
	"github.com/dotcommander/storytime/internal/storage"
	"github.com/dotcommander/storytime/internal/story"
	"github.com/dotcommander/storytime/internal/vcs"
)

// Publisher records the written files in version control.
type Publisher interface {
	Publish(ctx context.Context, opts vcs.PublishOptions) (string, error)
}

// IssueClient reports back on the issue a word came from.
type IssueClient interface {
	Comment(ctx context.Context, number int, body string) error
	Close(ctx context.Context, number int, reason string) error
}

// Submission is one contributor's word.
type Submission struct {
	Word        string
	Author      string
	IssueNumber int
}

// Result describes what Submit did.
type Result struct {
	// Rejection is the reason the word was refused; empty when accepted.
	Rejection string
	Outcome   story.Outcome
	// ArchivePath is set when the word completed a story.
	ArchivePath string
	Commit      string
	// PublishErr is a git failure after the files were written.
	PublishErr error
}

func (r Result) Accepted() bool {
	return r.Rejection == ""
}

type App struct {
	cfg       *config.Config
	manager   *story.Manager
	repo      *storage.Repository
	renderer  *readme.Renderer
	publisher Publisher
	issues    IssueClient
	out       io.Writer
	runID     string
	logger    *slog.Logger
}

type Option func(*App)

func WithPublisher(p Publisher) Option {
	return func(a *App) {
		a.publisher = p
	}
}

func WithIssueClient(c IssueClient) Option {
	return func(a *App) {
		a.issues = c
	}
}

// WithOutput sets where user-facing messages are printed.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.out = w
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

func WithRunID(id string) Option {
	return func(a *App) {
		a.runID = id
	}
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	// A run ID passed in with WithRunID is expected to be on the logger already.
	if a.runID == "" {
		a.runID = uuid.NewString()
		a.logger = a.logger.With("run_id", a.runID)
	}
	base := a.logger
	a.logger = base.With("component", "app")

	managerOpts := []story.Option{story.WithLogger(base.With("component", "story_manager"))}
	if cfg.Story.RejectRepeatedAdjectives {
		tagger, err := loadTagger(cfg.Story.Lexicon)
		if err != nil {
			return nil, err
		}
		managerOpts = append(managerOpts, story.WithTagger(tagger))
	}
	manager, err := story.NewManager(cfg.Policy(), managerOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating story manager: %w", err)
	}
	a.manager = manager

	a.repo = storage.NewRepository(storage.NewFileSystem(cfg.Paths.Root), cfg.Layout(), base)

	renderer, err := readme.NewRenderer(readme.Options{
		ServerURL:  cfg.Repo.ServerURL,
		Repository: cfg.Repo.Slug,
		IssueTitle: cfg.Repo.IssueTitle,
		MaxWords:   cfg.Story.MaxWords,
		Locale:     cfg.Repo.Locale,
	})
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	a.renderer = renderer

	return a, nil
}

func loadTagger(path string) (pos.Tagger, error) {
	if path == "" {
		return pos.DefaultLexicon()
	}
	lex, err := pos.LoadLexiconFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	return lex, nil
}

func (a *App) RunID() string {
	return a.runID
}

// Submit validates and appends a word, writes every derived file, commits
// and reports back on the issue. A rejected word is not an error: it is
// printed, reported on the issue and leaves the files untouched.
func (a *App) Submit(ctx context.Context, sub Submission) (Result, error) {
	state, err := a.repo.LoadState(ctx)
	if err != nil {
		return Result{}, err
	}
	archived, err := a.repo.ArchiveCount(ctx)
	if err != nil {
		return Result{}, err
	}

	outcome, err := a.manager.SubmitWord(ctx, state, sub.Word, sub.Author, archived)
	if reason, ok := story.RejectionReason(err); ok {
		word := strings.TrimSpace(sub.Word)
		fmt.Fprintf(a.out, "Rejected word '%s': %s\n", word, reason)
		a.logger.Info("word rejected", "word", word, "reason", reason, "issue", sub.IssueNumber)
		a.feedback(ctx, sub.IssueNumber, rejectionComment(word, reason), github.ReasonNotPlanned)
		return Result{Rejection: reason}, nil
	}
	if err != nil {
		return Result{}, err
	}

	if outcome.Archived != nil {
		archived = outcome.Archived.Sequence
	}
	cs, err := a.changeset(ctx, outcome, archived)
	if err != nil {
		return Result{}, err
	}
	if err := a.repo.Persist(ctx, cs); err != nil {
		return Result{}, err
	}

	res := Result{Outcome: outcome}
	if outcome.Archived != nil {
		res.ArchivePath = a.repo.Layout().ArchivePath(outcome.Archived.Sequence)
	}
	a.logger.Info("word added",
		"word", outcome.Word,
		"contributor", outcome.Contributor,
		"word_count", outcome.Statistics.WordCount,
		"archived", res.ArchivePath != "")

	res.Commit, res.PublishErr = a.publish(ctx, outcome.Word)
	if res.PublishErr != nil {
		// The issue stays open so the word can be resubmitted.
		a.comment(ctx, sub.IssueNumber, publishFailedComment(outcome.Word))
		return res, nil
	}

	a.feedback(ctx, sub.IssueNumber, acceptedComment(outcome), github.ReasonCompleted)
	return res, nil
}

// changeset renders every file an accepted word touches from one outcome.
func (a *App) changeset(ctx context.Context, outcome story.Outcome, archived int) (storage.Changeset, error) {
	stats, err := a.renderer.StatsFile(outcome.Statistics)
	if err != nil {
		return storage.Changeset{}, fmt.Errorf("rendering stats: %w", err)
	}
	cs := storage.Changeset{
		Story: outcome.State.Text(),
		Stats: stats,
	}

	doc, ok, err := a.repo.LoadReadme(ctx)
	if err != nil {
		return storage.Changeset{}, err
	}
	if ok {
		updated, err := a.renderer.Readme(doc, outcome.State, outcome.Statistics, archived)
		switch {
		case errors.Is(err, readme.ErrMarkersNotFound):
			a.logger.Warn("readme has no story markers, leaving it unchanged")
		case errors.Is(err, readme.ErrNoRepository):
			a.logger.Warn("no repository configured, leaving readme unchanged")
		case err != nil:
			return storage.Changeset{}, fmt.Errorf("rendering readme: %w", err)
		default:
			cs.Readme = &updated
		}
	} else {
		a.logger.Warn("readme not found, skipping", "path", a.repo.Layout().ReadmeFile)
	}

	if outcome.Archived != nil {
		cs.Archive = &storage.ArchiveFile{
			Sequence: outcome.Archived.Sequence,
			Text:     outcome.Archived.Text(),
		}
	}
	return cs, nil
}

func (a *App) publish(ctx context.Context, word string) (string, error) {
	if a.publisher == nil {
		return "", nil
	}
	hash, err := a.publisher.Publish(ctx, vcs.PublishOptions{
		Message: fmt.Sprintf(a.cfg.Git.CommitMessage, word),
		Identity: vcs.Identity{
			Name:  a.cfg.Git.UserName,
			Email: a.cfg.Git.UserEmail,
		},
		Push:   a.cfg.Git.Push,
		Remote: a.cfg.Git.Remote,
	})
	switch {
	case errors.Is(err, vcs.ErrNothingToCommit):
		a.logger.Info("nothing to commit")
		return "", nil
	case err != nil:
		a.logger.Error("publishing story failed", "commit", hash, "error", err)
		return hash, err
	}
	return hash, nil
}

// feedback comments on and closes the originating issue. Failures are logged
// only; the story files are already written.
func (a *App) feedback(ctx context.Context, issue int, body, reason string) {
	if !a.comment(ctx, issue, body) || !a.cfg.GitHub.CloseIssues {
		return
	}
	if err := a.issues.Close(ctx, issue, reason); err != nil {
		a.logger.Error("closing issue failed", "issue", issue, "error", err)
	}
}

// comment posts body on the issue and reports whether there was an issue to
// report on.
func (a *App) comment(ctx context.Context, issue int, body string) bool {
	if a.issues == nil || issue <= 0 {
		return false
	}
	if err := a.issues.Comment(ctx, issue, body); err != nil {
		a.logger.Error("commenting on issue failed", "issue", issue, "error", err)
	}
	return true
}

func acceptedComment(o story.Outcome) string {
	if o.Archived != nil {
		return fmt.Sprintf("Added **%s**. That completes story #%d (%s), which is now archived. A new story begins!",
			o.Word, o.Archived.Sequence, pluralWords(len(o.Archived.Words)))
	}
	return fmt.Sprintf("Added **%s**. The story now has %s.", o.Word, pluralWords(o.State.WordCount()))
}

func publishFailedComment(word string) string {
	return fmt.Sprintf("**%s** was accepted but could not be saved to the repository. Please try again later.", word)
}

func pluralWords(n int) string {
	if n == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", n)
}

func rejectionComment(word, reason string) string {
	return fmt.Sprintf("Sorry, %q could not be added: %s.", word, reason)
}

// Check reports why word would be rejected right now, or "" if it would be
// accepted. Nothing is written.
func (a *App) Check(ctx context.Context, word string) (string, error) {
	state, err := a.repo.LoadState(ctx)
	if err != nil {
		return "", err
	}
	last, _ := state.LastWord()
	err = a.manager.ValidateWord(ctx, word, last)
	if reason, ok := story.RejectionReason(err); ok {
		return reason, nil
	}
	return "", err
}

// Stats computes statistics for the persisted story. The contributor is
// recovered from the stats file, if there is one.
func (a *App) Stats(ctx context.Context) (story.Statistics, int, error) {
	state, err := a.repo.LoadState(ctx)
	if err != nil {
		return story.Statistics{}, 0, err
	}
	archived, err := a.repo.ArchiveCount(ctx)
	if err != nil {
		return story.Statistics{}, 0, err
	}
	statsText, err := a.repo.LoadStats(ctx)
	if err != nil {
		return story.Statistics{}, 0, err
	}
	contributor := readme.ParseContributor(statsText)
	if contributor == "" {
		contributor = story.UnknownContributor
	}
	return story.ComputeStatistics(state.Words, contributor, a.manager.Policy().TopK), archived, nil
}

// Render rewrites the stats file and README from the persisted story.
func (a *App) Render(ctx context.Context) error {
	state, err := a.repo.LoadState(ctx)
	if err != nil {
		return err
	}
	stats, archived, err := a.Stats(ctx)
	if err != nil {
		return err
	}
	cs, err := a.changeset(ctx, story.Outcome{State: state, Statistics: stats}, archived)
	if err != nil {
		return err
	}
	if err := a.repo.Persist(ctx, cs); err != nil {
		return err
	}
	a.logger.Info("rendered story files", "word_count", stats.WordCount, "readme", cs.Readme != nil)
	return nil
}

// RenderStats formats statistics the way the stats file stores them.
func (a *App) RenderStats(stats story.Statistics) (string, error) {
	return a.renderer.StatsFile(stats)
}
