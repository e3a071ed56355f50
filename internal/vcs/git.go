// Package vcs commits and pushes story updates with the git command line.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrNothingToCommit is returned by Publish when the working tree is clean.
var ErrNothingToCommit = errors.New("nothing to commit")

// BotIdentity is the author GitHub Actions commits as.
var BotIdentity = Identity{
	Name:  "github-actions[bot]",
	Email: "41898282+github-actions[bot]@users.noreply.github.com",
}

type Identity struct {
	Name  string
	Email string
}

// CommandError carries the output of a failed git invocation.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Output))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Git runs git commands inside one working tree.
type Git struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{
		dir:    dir,
		logger: logger.With("component", "git"),
	}
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), &CommandError{Args: args, Output: string(output), Err: err}
	}
	return string(output), nil
}

// IsRepo reports whether the directory is inside a git work tree.
func (g *Git) IsRepo(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// ConfigureIdentity sets the local commit author.
func (g *Git) ConfigureIdentity(ctx context.Context, id Identity) error {
	if _, err := g.run(ctx, "config", "user.name", id.Name); err != nil {
		return err
	}
	if _, err := g.run(ctx, "config", "user.email", id.Email); err != nil {
		return err
	}
	return nil
}

// AddAll stages every change in the work tree.
func (g *Git) AddAll(ctx context.Context) error {
	_, err := g.run(ctx, "add", "--all")
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (g *Git) HasStagedChanges(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Commit records the staged changes and returns the short commit hash.
func (g *Git) Commit(ctx context.Context, message string) (string, error) {
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	hash, err := g.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(hash), nil
}

// Push sends the current branch to remote. An empty remote means git's default.
func (g *Git) Push(ctx context.Context, remote string) error {
	args := []string{"push"}
	if remote != "" {
		args = append(args, remote, "HEAD")
	}
	_, err := g.run(ctx, args...)
	return err
}

// PublishOptions controls a Publish call.
type PublishOptions struct {
	Message  string
	Identity Identity
	Push     bool
	Remote   string
}

// Publish stages everything, commits and optionally pushes. It returns the
// commit hash, or ErrNothingToCommit when there was nothing to record.
func (g *Git) Publish(ctx context.Context, opts PublishOptions) (string, error) {
	if !g.IsRepo(ctx) {
		return "", fmt.Errorf("%s is not a git repository", g.dir)
	}
	if opts.Identity.Name != "" {
		if err := g.ConfigureIdentity(ctx, opts.Identity); err != nil {
			return "", fmt.Errorf("configuring identity: %w", err)
		}
	}
	if err := g.AddAll(ctx); err != nil {
		return "", fmt.Errorf("staging changes: %w", err)
	}

	changed, err := g.HasStagedChanges(ctx)
	if err != nil {
		return "", fmt.Errorf("checking staged changes: %w", err)
	}
	if !changed {
		return "", ErrNothingToCommit
	}

	hash, err := g.Commit(ctx, opts.Message)
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	g.logger.Info("committed story update", "commit", hash, "message", opts.Message)

	if !opts.Push {
		return hash, nil
	}
	if err := g.Push(ctx, opts.Remote); err != nil {
		return hash, fmt.Errorf("pushing: %w", err)
	}
	g.logger.Info("pushed story update", "commit", hash, "remote", opts.Remote)
	return hash, nil
}
