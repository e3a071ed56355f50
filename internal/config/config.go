package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/storytime/internal/storage"
	"github.com/dotcommander/storytime/internal/story"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "storytime.yaml"

type Config struct {
	Story  StoryConfig  `yaml:"story" validate:"required"`
	Paths  PathsConfig  `yaml:"paths" validate:"required"`
	Repo   RepoConfig   `yaml:"repo" validate:"required"`
	Git    GitConfig    `yaml:"git"`
	GitHub GitHubConfig `yaml:"github"`
}

type StoryConfig struct {
	MaxWords                 int    `yaml:"max_words" validate:"required,min=1,max=100000"`
	TopK                     int    `yaml:"top_k" validate:"required,min=1,max=50"`
	Grammar                  string `yaml:"grammar" validate:"required,oneof=letters-apostrophe-hyphen letters-only"`
	ResetStarter             string `yaml:"reset_starter"`
	RejectRepeatedAdjectives bool   `yaml:"reject_repeated_adjectives"`
	// Lexicon is a YAML word list for the adjective rule. Empty uses the
	// built-in one.
	Lexicon string `yaml:"lexicon"`
}

type PathsConfig struct {
	Root       string `yaml:"root" validate:"required"`
	StoryFile  string `yaml:"story_file" validate:"required,relpath"`
	StatsFile  string `yaml:"stats_file" validate:"required,relpath"`
	ReadmeFile string `yaml:"readme_file" validate:"required,relpath"`
	StoriesDir string `yaml:"stories_dir" validate:"required,relpath"`
}

type RepoConfig struct {
	Slug       string `yaml:"slug" validate:"omitempty,repo"`
	ServerURL  string `yaml:"server_url" validate:"required,url"`
	IssueTitle string `yaml:"issue_title"`
	Locale     string `yaml:"locale" validate:"omitempty,bcp47_language_tag"`
}

type GitConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Push          bool   `yaml:"push"`
	Remote        string `yaml:"remote"`
	UserName      string `yaml:"user_name" validate:"required_with=UserEmail"`
	UserEmail     string `yaml:"user_email" validate:"required_with=UserName"`
	CommitMessage string `yaml:"commit_message" validate:"required,contains=%s"`
}

type GitHubConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIURL      string `yaml:"api_url" validate:"required,url"`
	CloseIssues bool   `yaml:"close_issues"`
	Limits      Limits `yaml:"limits" validate:"required"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	layout := storage.DefaultLayout()
	return Config{
		Story: StoryConfig{
			MaxWords: story.DefaultMaxWords,
			TopK:     story.DefaultTopK,
			Grammar:  string(story.GrammarLettersApostropheHyphen),
		},
		Paths: PathsConfig{
			Root:       ".",
			StoryFile:  layout.StoryFile,
			StatsFile:  layout.StatsFile,
			ReadmeFile: layout.ReadmeFile,
			StoriesDir: layout.StoriesDir,
		},
		Repo: RepoConfig{
			ServerURL: "https://github.com",
			Locale:    "en",
		},
		Git: GitConfig{
			Enabled:       true,
			Push:          true,
			UserName:      "github-actions[bot]",
			UserEmail:     "41898282+github-actions[bot]@users.noreply.github.com",
			CommitMessage: "Add word: %s",
		},
		GitHub: GitHubConfig{
			Enabled:     true,
			APIURL:      "https://api.github.com",
			CloseIssues: true,
			Limits:      DefaultLimits(),
		},
	}
}

// Load reads .env, the YAML config and the GitHub Actions environment, then
// validates the result. path may be empty to use the default lookup.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	configPath, explicit := getConfigPath(path)
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file; defaults plus environment.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	environ, err := ParseEnv()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvironment(environ)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func getConfigPath(flagPath string) (string, bool) {
	if flagPath != "" {
		return expandTilde(flagPath), true
	}
	if path := os.Getenv("STORYTIME_CONFIG"); path != "" {
		return expandTilde(path), true
	}
	return DefaultFile, false
}

// expandTilde expands a tilde (~) at the beginning of a path to the user's home directory
func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ApplyEnvironment fills repository settings the config file left blank
// from the values GitHub Actions exports.
func (c *Config) ApplyEnvironment(e Environment) {
	if c.Repo.Slug == "" {
		c.Repo.Slug = e.Repository
	}
	if e.ServerURL != "" && c.Repo.ServerURL == Default().Repo.ServerURL {
		c.Repo.ServerURL = e.ServerURL
	}
	if e.APIURL != "" && c.GitHub.APIURL == Default().GitHub.APIURL {
		c.GitHub.APIURL = e.APIURL
	}
}

// Validate checks a configuration built in code rather than loaded.
func (c *Config) Validate() error {
	return c.validate()
}

var repoSlugPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

func (c *Config) validate() error {
	c.Paths.Root = expandTilde(c.Paths.Root)
	c.Story.Lexicon = expandTilde(c.Story.Lexicon)

	validate := validator.New()

	validate.RegisterValidation("repo", func(fl validator.FieldLevel) bool {
		return repoSlugPattern.MatchString(fl.Field().String())
	})

	// Story files must stay inside the repository root.
	validate.RegisterValidation("relpath", func(fl validator.FieldLevel) bool {
		p := filepath.Clean(fl.Field().String())
		return !filepath.IsAbs(p) && p != ".." && !strings.HasPrefix(p, ".."+string(filepath.Separator))
	})

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		sc := sl.Current().Interface().(StoryConfig)
		if sc.ResetStarter == "" {
			return
		}
		if !story.Grammar(sc.Grammar).Match(sc.ResetStarter) {
			sl.ReportError(sc.ResetStarter, "ResetStarter", "reset_starter", "storyword", sc.Grammar)
		}
	}, StoryConfig{})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Policy converts the story section into the manager's policy.
func (c *Config) Policy() story.Policy {
	return story.Policy{
		MaxWords:                 c.Story.MaxWords,
		TopK:                     c.Story.TopK,
		Grammar:                  story.Grammar(c.Story.Grammar),
		ResetStarter:             c.Story.ResetStarter,
		RejectRepeatedAdjectives: c.Story.RejectRepeatedAdjectives,
	}
}

// Layout converts the paths section into a storage layout.
func (c *Config) Layout() storage.Layout {
	return storage.Layout{
		StoryFile:  c.Paths.StoryFile,
		StatsFile:  c.Paths.StatsFile,
		ReadmeFile: c.Paths.ReadmeFile,
		StoriesDir: c.Paths.StoriesDir,
	}
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
