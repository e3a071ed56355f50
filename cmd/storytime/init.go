package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/dotcommander/storytime/internal/config"
	"github.com/dotcommander/storytime/internal/readme"
	"github.com/dotcommander/storytime/internal/story"
)

//go:embed templates/*
var templates embed.FS

const packagePath = "github.com/dotcommander/storytime/cmd/storytime"

type scaffoldData struct {
	Title      string
	MaxWords   int
	StoriesDir string
	Package    string
	ConfigFile string
}

func initCmd() *cobra.Command {
	var (
		repo  string
		title string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Set up a repository for a new story",
		Long: `Write storytime.yaml, a README with the story and statistics markers, and a
GitHub Actions workflow that submits the title of every new issue as a word.
Existing files are left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if repo == "" {
				repo = os.Getenv("GITHUB_REPOSITORY")
			}

			cfg := config.Default()
			cfg.Repo.Slug = repo
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Repo.Slug == "" {
				return errors.New("--repo is required (owner/name)")
			}

			s := &scaffolder{dir: dir, force: force, out: cmd.OutOrStdout()}
			return s.run(&cfg, title)
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository slug owner/name (default $GITHUB_REPOSITORY)")
	cmd.Flags().StringVar(&title, "title", "Storytime", "README title")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}

type scaffolder struct {
	dir   string
	force bool
	out   io.Writer
}

func (s *scaffolder) run(cfg *config.Config, title string) error {
	data := scaffoldData{
		Title:      title,
		MaxWords:   cfg.Story.MaxWords,
		StoriesDir: cfg.Paths.StoriesDir,
		Package:    packagePath,
		ConfigFile: config.DefaultFile,
	}

	if s.skip(config.DefaultFile) {
		fmt.Fprintf(s.out, "Skipped %s (exists)\n", config.DefaultFile)
	} else {
		if err := config.Save(cfg, filepath.Join(s.dir, config.DefaultFile)); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Created %s\n", config.DefaultFile)
	}

	doc, err := execute("templates/README.md.tmpl", data)
	if err != nil {
		return err
	}
	renderer, err := readme.NewRenderer(readme.Options{
		ServerURL:  cfg.Repo.ServerURL,
		Repository: cfg.Repo.Slug,
		IssueTitle: cfg.Repo.IssueTitle,
		MaxWords:   cfg.Story.MaxWords,
		Locale:     cfg.Repo.Locale,
	})
	if err != nil {
		return err
	}
	doc, err = renderer.Readme(doc, story.State{}, story.ComputeStatistics(nil, story.UnknownContributor, cfg.Story.TopK), 0)
	if err != nil {
		return err
	}
	if err := s.write(cfg.Paths.ReadmeFile, doc); err != nil {
		return err
	}

	workflow, err := execute("templates/workflow.yml.tmpl", data)
	if err != nil {
		return err
	}
	return s.write(filepath.Join(".github", "workflows", "storytime.yml"), workflow)
}

func (s *scaffolder) skip(name string) bool {
	if s.force {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	return !errors.Is(err, fs.ErrNotExist)
}

func (s *scaffolder) write(name, content string) error {
	if s.skip(name) {
		fmt.Fprintf(s.out, "Skipped %s (exists)\n", name)
		return nil
	}
	target := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	fmt.Fprintf(s.out, "Created %s\n", name)
	return nil
}

// execute renders a scaffold template. The templates use [[ ]] delimiters so
// that GitHub Actions expressions pass through untouched.
func execute(name string, data scaffoldData) (string, error) {
	tmpl, err := template.New(path.Base(name)).Delims("[[", "]]").ParseFS(templates, name)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.String(), nil
}
