package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/storytime/internal/story"
)

// Layout names the files that make up a story repository.
type Layout struct {
	StoryFile  string
	StatsFile  string
	ReadmeFile string
	StoriesDir string
}

// DefaultLayout matches the files the project has always used.
func DefaultLayout() Layout {
	return Layout{
		StoryFile:  "current_story.md",
		StatsFile:  "story_stats.md",
		ReadmeFile: "README.md",
		StoriesDir: "stories",
	}
}

// ArchivePath returns where the archive with the given sequence lives.
func (l Layout) ArchivePath(sequence int) string {
	return path.Join(l.StoriesDir, "story_"+strconv.Itoa(sequence)+".md")
}

func (l Layout) archivePattern() string {
	return path.Join(l.StoriesDir, "story_*.md")
}

// Changeset is every file one accepted word produces. All of it is rendered
// from a single story.Outcome before anything is written.
type Changeset struct {
	Story  string
	Stats  string
	Readme *string
	// Archive is set when the story was completed by this word.
	Archive *ArchiveFile
}

type ArchiveFile struct {
	Sequence int
	Text     string
}

// Repository reads and writes story files through a Storage.
type Repository struct {
	store  Storage
	layout Layout
	logger *slog.Logger
}

func NewRepository(store Storage, layout Layout, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  store,
		layout: layout,
		logger: logger.With("component", "story_repository"),
	}
}

func (r *Repository) Layout() Layout {
	return r.layout
}

// LoadState reads the active story. A missing story file is an empty story.
func (r *Repository) LoadState(ctx context.Context) (story.State, error) {
	data, err := r.loadOptional(ctx, r.layout.StoryFile)
	if err != nil {
		return story.State{}, fmt.Errorf("loading story: %w", err)
	}
	return story.ParseState(string(data)), nil
}

// LoadStats reads the stats file. A missing file reads as "".
func (r *Repository) LoadStats(ctx context.Context) (string, error) {
	data, err := r.loadOptional(ctx, r.layout.StatsFile)
	if err != nil {
		return "", fmt.Errorf("loading stats: %w", err)
	}
	return string(data), nil
}

// LoadReadme returns the README contents and whether the file exists.
func (r *Repository) LoadReadme(ctx context.Context) (string, bool, error) {
	if !r.store.Exists(ctx, r.layout.ReadmeFile) {
		return "", false, nil
	}
	data, err := r.store.Load(ctx, r.layout.ReadmeFile)
	if err != nil {
		return "", false, fmt.Errorf("loading readme: %w", err)
	}
	return string(data), true, nil
}

// ArchiveCount returns how many finished stories have been archived.
func (r *Repository) ArchiveCount(ctx context.Context) (int, error) {
	matches, err := r.store.List(ctx, r.layout.archivePattern())
	if err != nil {
		return 0, fmt.Errorf("counting archives: %w", err)
	}
	return len(matches), nil
}

// Persist writes a changeset. A finished story is archived first, so a failed
// archive write leaves the full story file in place. The remaining files are
// independent and written concurrently; the first failure is returned.
func (r *Repository) Persist(ctx context.Context, cs Changeset) error {
	if cs.Archive != nil {
		name := r.layout.ArchivePath(cs.Archive.Sequence)
		if err := r.save(ctx, name, cs.Archive.Text); err != nil {
			r.logger.Error("archiving story failed", "path", name, "error", err)
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	write := func(name, content string) {
		g.Go(func() error {
			return r.save(gctx, name, content)
		})
	}

	write(r.layout.StoryFile, cs.Story)
	write(r.layout.StatsFile, cs.Stats)
	if cs.Readme != nil {
		write(r.layout.ReadmeFile, *cs.Readme)
	}

	if err := g.Wait(); err != nil {
		r.logger.Error("persisting story failed", "error", err)
		return err
	}
	return nil
}

func (r *Repository) save(ctx context.Context, name, content string) error {
	if err := r.store.Save(ctx, name, []byte(content)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	r.logger.Debug("wrote file", "path", name, "bytes", len(content))
	return nil
}

func (r *Repository) loadOptional(ctx context.Context, name string) ([]byte, error) {
	data, err := r.store.Load(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
