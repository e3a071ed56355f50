package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/storytime/internal/app"
	"github.com/dotcommander/storytime/internal/config"
)

func submitCmd(flags *globalFlags) *cobra.Command {
	var (
		word   string
		author string
		issue  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Add a word to the story",
		Long: `Add one word to the current story, update the stats file and README,
archive the story once it is long enough, then commit, push and report back on
the issue the word came from.

The word, author and issue default to the WORD, AUTHOR and ISSUE_NUMBER
environment variables. A rejected word is printed and exits successfully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			environ, err := config.ParseEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("word") {
				environ.Word = word
			}
			if cmd.Flags().Changed("author") {
				environ.Author = author
			}
			if cmd.Flags().Changed("issue") {
				environ.IssueNumber = issue
			}

			a, err := buildApp(cmd, flags, environ, !dryRun)
			if err != nil {
				return err
			}

			res, err := a.Submit(cmd.Context(), app.Submission{
				Word:        environ.Word,
				Author:      environ.Author,
				IssueNumber: environ.IssueNumber,
			})
			if err != nil {
				return err
			}
			if !res.Accepted() {
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added word '%s' (%d words)\n", res.Outcome.Word, res.Outcome.Statistics.WordCount)
			if res.ArchivePath != "" {
				fmt.Fprintf(out, "Story complete, archived to %s\n", res.ArchivePath)
			}
			if res.PublishErr != nil {
				return fmt.Errorf("files updated but not published: %w", res.PublishErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&word, "word", "w", "", "Word to add (default $WORD)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Contributor name (default $AUTHOR)")
	cmd.Flags().IntVar(&issue, "issue", 0, "Issue to comment on and close (default $ISSUE_NUMBER)")
	cmd.Flags().BoolVar(&dryRun, "no-publish", false, "Write files only; skip git and issue feedback")
	return cmd
}

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <word>",
		Short: "Report whether a word would be accepted, without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, flags, config.Environment{}, false)
			if err != nil {
				return err
			}

			reason, err := a.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if reason != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected word '%s': %s\n", args[0], reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted word '%s'\n", args[0])
			return nil
		},
	}
}

func renderCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Rewrite the stats file and README from the current story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, flags, config.Environment{}, false)
			if err != nil {
				return err
			}
			return a.Render(cmd.Context())
		},
	}
}

func statsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for the current story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd, flags, config.Environment{}, false)
			if err != nil {
				return err
			}

			stats, archived, err := a.Stats(cmd.Context())
			if err != nil {
				return err
			}
			text, err := a.RenderStats(stats)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			fmt.Fprintf(cmd.OutOrStdout(), "Finished stories: %d\n", archived)
			return nil
		},
	}
}
