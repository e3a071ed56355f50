package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dotcommander/storytime/internal/story"
)

func validConfig() Config {
	cfg := Default()
	cfg.Repo.Slug = "VectorSophie/Storytime"
	return cfg
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults with repository",
			mutate: func(*Config) {},
		},
		{
			name:   "repository may be empty",
			mutate: func(c *Config) { c.Repo.Slug = "" },
		},
		{
			name:    "malformed repository",
			mutate:  func(c *Config) { c.Repo.Slug = "no-slash" },
			wantErr: true,
			errMsg:  "Slug",
		},
		{
			name:    "zero max words",
			mutate:  func(c *Config) { c.Story.MaxWords = 0 },
			wantErr: true,
			errMsg:  "MaxWords",
		},
		{
			name:    "unknown grammar",
			mutate:  func(c *Config) { c.Story.Grammar = "anything-goes" },
			wantErr: true,
			errMsg:  "Grammar",
		},
		{
			name:   "valid reset starter",
			mutate: func(c *Config) { c.Story.ResetStarter = "Once" },
		},
		{
			name: "reset starter outside letters-only grammar",
			mutate: func(c *Config) {
				c.Story.Grammar = string(story.GrammarLettersOnly)
				c.Story.ResetStarter = "don't"
			},
			wantErr: true,
			errMsg:  "ResetStarter",
		},
		{
			name:    "story file escaping root",
			mutate:  func(c *Config) { c.Paths.StoryFile = "../story.md" },
			wantErr: true,
			errMsg:  "StoryFile",
		},
		{
			name:    "absolute stories dir",
			mutate:  func(c *Config) { c.Paths.StoriesDir = "/tmp/stories" },
			wantErr: true,
			errMsg:  "StoriesDir",
		},
		{
			name:    "commit message without placeholder",
			mutate:  func(c *Config) { c.Git.CommitMessage = "Add word" },
			wantErr: true,
			errMsg:  "CommitMessage",
		},
		{
			name:    "invalid api url",
			mutate:  func(c *Config) { c.GitHub.APIURL = "not-a-url" },
			wantErr: true,
			errMsg:  "APIURL",
		},
		{
			name:    "timeout too high",
			mutate:  func(c *Config) { c.GitHub.Limits.Timeout = time.Hour },
			wantErr: true,
			errMsg:  "Timeout",
		},
		{
			name:    "retries too high",
			mutate:  func(c *Config) { c.GitHub.Limits.MaxRetries = 50 },
			wantErr: true,
			errMsg:  "MaxRetries",
		},
		{
			name:    "bad locale",
			mutate:  func(c *Config) { c.Repo.Locale = "not a locale" },
			wantErr: true,
			errMsg:  "Locale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validate() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestDefaultLimits(t *testing.T) {
	cfg := validConfig()
	cfg.GitHub.Limits = DefaultLimits()

	if err := cfg.validate(); err != nil {
		t.Errorf("DefaultLimits() should produce valid config, got error: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "storytime.yaml")
	data := `story:
  max_words: 100
  top_k: 10
  reset_starter: Once
repo:
  slug: octo/tales
git:
  push: false
github:
  limits:
    timeout: 10s
    max_retries: 1
    rate_limit:
      requests_per_minute: 30
      burst_size: 2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Story.MaxWords != 100 || cfg.Story.TopK != 10 || cfg.Story.ResetStarter != "Once" {
		t.Errorf("story section = %+v", cfg.Story)
	}
	if cfg.Story.Grammar != string(story.GrammarLettersApostropheHyphen) {
		t.Errorf("grammar default lost: %q", cfg.Story.Grammar)
	}
	if cfg.Repo.Slug != "octo/tales" {
		t.Errorf("slug = %q", cfg.Repo.Slug)
	}
	if !cfg.Git.Enabled || cfg.Git.Push {
		t.Errorf("git section = %+v", cfg.Git)
	}
	if cfg.GitHub.Limits.Timeout != 10*time.Second || cfg.GitHub.Limits.MaxRetries != 1 {
		t.Errorf("limits = %+v", cfg.GitHub.Limits)
	}
	if cfg.Paths.StoryFile != "current_story.md" {
		t.Errorf("story file default lost: %q", cfg.Paths.StoryFile)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	t.Setenv("STORYTIME_CONFIG", "")
	t.Setenv("GITHUB_REPOSITORY", "octo/tales")
	t.Setenv("GITHUB_SERVER_URL", "https://ghe.example.com")
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Repo.Slug != "octo/tales" {
		t.Errorf("slug = %q", cfg.Repo.Slug)
	}
	if cfg.Repo.ServerURL != "https://ghe.example.com" {
		t.Errorf("server url = %q", cfg.Repo.ServerURL)
	}
	if cfg.GitHub.APIURL != "https://ghe.example.com/api/v3" {
		t.Errorf("api url = %q", cfg.GitHub.APIURL)
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("WORD", "dragon")
	t.Setenv("ISSUE_NUMBER", "12")

	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if e.Word != "dragon" || e.IssueNumber != 12 {
		t.Errorf("ParseEnv() = %+v", e)
	}
	if os.Getenv("AUTHOR") == "" && e.Author != story.UnknownContributor {
		t.Errorf("Author = %q, want %q", e.Author, story.UnknownContributor)
	}
}

func TestParseEnvBadIssueNumber(t *testing.T) {
	t.Setenv("ISSUE_NUMBER", "twelve")
	if _, err := ParseEnv(); err == nil {
		t.Fatal("expected error for non-numeric ISSUE_NUMBER")
	}
}

func TestPolicyAndLayout(t *testing.T) {
	cfg := validConfig()
	cfg.Story.ResetStarter = "Once"
	cfg.Paths.StoriesDir = "archive"

	p := cfg.Policy()
	if p.MaxWords != story.DefaultMaxWords || p.TopK != story.DefaultTopK || p.ResetStarter != "Once" {
		t.Errorf("Policy() = %+v", p)
	}
	if got := cfg.Layout().ArchivePath(3); got != "archive/story_3.md" {
		t.Errorf("ArchivePath(3) = %q", got)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "")
	cfg := validConfig()
	cfg.Story.MaxWords = 42
	path := filepath.Join(t.TempDir(), "nested", "storytime.yaml")

	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Story.MaxWords != 42 || loaded.Repo.Slug != cfg.Repo.Slug {
		t.Errorf("loaded = %+v", loaded.Story)
	}
}
