// Package readme renders the story and its statistics for the repository
// README and the stats file. Everything here is pure string formatting.
package readme

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dotcommander/storytime/internal/story"
)

//go:embed templates/*
var templates embed.FS

const (
	StoryStart = "<!-- STORY-START -->"
	StoryEnd   = "<!-- STORY-END -->"
	StatsStart = "<!-- STATS-START -->"
	StatsEnd   = "<!-- STATS-END -->"
)

var (
	// ErrMarkersNotFound means a document has none of the regions we manage.
	ErrMarkersNotFound = errors.New("readme markers not found")
	// ErrNoRepository means the submit link cannot be built.
	ErrNoRepository = errors.New("no repository configured")
)

// Options configures a Renderer.
type Options struct {
	// ServerURL is the web root of the code host, e.g. https://github.com.
	ServerURL string
	// Repository is the owner/name slug issues are opened against.
	Repository string
	// IssueTitle pre-fills the title of the issue a visitor opens.
	IssueTitle string
	// MaxWords is shown as the story target.
	MaxWords int
	// Locale controls number formatting, e.g. "en" or "de".
	Locale string
}

// Renderer turns story data into markdown.
type Renderer struct {
	opts Options
	tmpl *template.Template
}

func NewRenderer(opts Options) (*Renderer, error) {
	if opts.ServerURL == "" {
		opts.ServerURL = "https://github.com"
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = story.DefaultMaxWords
	}
	tag := language.English
	if opts.Locale != "" {
		parsed, err := language.Parse(opts.Locale)
		if err != nil {
			return nil, fmt.Errorf("parsing locale %q: %w", opts.Locale, err)
		}
		tag = parsed
	}
	printer := message.NewPrinter(tag)

	funcs := template.FuncMap{
		"num": func(n int) string {
			return printer.Sprint(number.Decimal(n))
		},
		"percent": func(n, total int) string {
			if total <= 0 {
				return printer.Sprint(number.Percent(0))
			}
			return printer.Sprint(number.Percent(float64(n) / float64(total)))
		},
	}
	tmpl, err := template.New("readme").Funcs(funcs).ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Renderer{opts: opts, tmpl: tmpl}, nil
}

// SubmitLink is the "write the next word" call to action: a new-issue URL on
// the story repository.
func (r *Renderer) SubmitLink() string {
	base := strings.TrimRight(r.opts.ServerURL, "/")
	return base + "/" + r.opts.Repository + "/issues/new?title=" + url.QueryEscape(r.opts.IssueTitle)
}

// StoryRegion renders the story text followed by the submit link.
func (r *Renderer) StoryRegion(state story.State) (string, error) {
	if r.opts.Repository == "" {
		return "", ErrNoRepository
	}
	return r.execute("story.md.tmpl", struct {
		Story string
		Link  string
	}{state.Text(), r.SubmitLink()})
}

// StatsFile renders the contents of the stats file.
func (r *Renderer) StatsFile(stats story.Statistics) (string, error) {
	return r.execute("stats.md.tmpl", stats)
}

// StatsRegion renders the statistics block shown in the README.
func (r *Renderer) StatsRegion(stats story.Statistics, archived int) (string, error) {
	return r.execute("stats_region.md.tmpl", struct {
		story.Statistics
		MaxWords int
		Archived int
	}{stats, r.opts.MaxWords, archived})
}

// Readme replaces the story and statistics regions of doc. Either region may
// be absent, but not both.
func (r *Renderer) Readme(doc string, state story.State, stats story.Statistics, archived int) (string, error) {
	storyBody, err := r.StoryRegion(state)
	if err != nil {
		return "", err
	}
	statsBody, err := r.StatsRegion(stats, archived)
	if err != nil {
		return "", err
	}

	out, storyErr := ReplaceRegion(doc, StoryStart, StoryEnd, storyBody)
	if storyErr != nil {
		out = doc
	}
	withStats, statsErr := ReplaceRegion(out, StatsStart, StatsEnd, statsBody)
	switch {
	case statsErr == nil:
		return withStats, nil
	case storyErr == nil:
		return out, nil
	default:
		return "", ErrMarkersNotFound
	}
}

// ReplaceRegion swaps everything between the first start marker and the next
// end marker for body. The markers themselves are kept.
func ReplaceRegion(doc, start, end, body string) (string, error) {
	i := strings.Index(doc, start)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrMarkersNotFound, start)
	}
	rest := doc[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return "", fmt.Errorf("%w: %s", ErrMarkersNotFound, end)
	}

	var b strings.Builder
	b.Grow(len(doc) + len(body))
	b.WriteString(doc[:i])
	b.WriteString(start)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n")
	b.WriteString(rest[j:])
	return b.String(), nil
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// ParseContributor extracts the contributor line from a stats file, or ""
// when there is none.
func ParseContributor(stats string) string {
	const prefix = "Most recent contributor:"
	for _, line := range strings.Split(stats, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
