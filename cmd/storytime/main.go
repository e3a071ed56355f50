// Command storytime adds one word at a time to a story kept in a git
// repository. It is meant to run from a GitHub Actions workflow triggered by
// new issues, with the issue title as the word.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dotcommander/storytime/internal/app"
	"github.com/dotcommander/storytime/internal/config"
	"github.com/dotcommander/storytime/internal/github"
	"github.com/dotcommander/storytime/internal/vcs"
)

const Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	runID      string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           "storytime",
		Short:         "Grow a collaborative story one word at a time",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), flags.logLevel, flags.logFormat)
			if err != nil {
				return err
			}
			flags.runID = uuid.NewString()
			slog.SetDefault(logger.With("run_id", flags.runID))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML, default ./storytime.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		submitCmd(&flags),
		checkCmd(&flags),
		renderCmd(&flags),
		statsCmd(&flags),
		initCmd(),
	)
	return cmd
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// buildApp loads configuration and wires the collaborators it enables.
// Git and the issue tracker are only attached when publish is set.
func buildApp(cmd *cobra.Command, flags *globalFlags, environ config.Environment, publish bool) (*app.App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithRunID(flags.runID),
		app.WithOutput(cmd.OutOrStdout()),
	}
	if publish {
		opts = append(opts, collaborators(cfg, environ, logger)...)
	}
	return app.New(cfg, opts...)
}

func collaborators(cfg *config.Config, environ config.Environment, logger *slog.Logger) []app.Option {
	var opts []app.Option

	if cfg.Git.Enabled {
		opts = append(opts, app.WithPublisher(vcs.New(cfg.Paths.Root, logger)))
	}

	switch {
	case !cfg.GitHub.Enabled:
	case environ.Token == "" || cfg.Repo.Slug == "":
		logger.Debug("issue feedback disabled: GITHUB_TOKEN or repository not set")
	default:
		limits := cfg.GitHub.Limits
		client := github.NewClient(environ.Token, cfg.Repo.Slug,
			github.WithBaseURL(cfg.GitHub.APIURL),
			github.WithTimeout(limits.Timeout),
			github.WithRetry(limits.MaxRetries),
			github.WithBackoff(limits.Backoff),
			github.WithRateLimit(limits.RateLimit.RequestsPerMinute, limits.RateLimit.BurstSize),
			github.WithLogger(logger.With("component", "github_client")))
		opts = append(opts, app.WithIssueClient(client))
	}

	return opts
}
