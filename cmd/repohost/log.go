package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/repohost"
)

func newLogCommand(a *app) *cobra.Command {
	var (
		ref string
		q   repohost.CommitQuery
	)

	cmd := &cobra.Command{
		Use:   "log PROJECT REPOSITORY",
		Short: "Show first-parent history of a branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			commits, err := a.engine.ListCommits(cmd.Context(), args[0], args[1], ref, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range commits {
				subject, _, _ := strings.Cut(c.Message, "\n")
				when := time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%s %s %s %s\n", c.Commit[:12], when, c.Author, subject)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&ref, "ref", "master", "branch, tag or commit to start from")
	f.StringVar(&q.StartRev, "start", "", "list ancestors of this commit, excluding it")
	f.StringVar(&q.Path, "path", "", "only commits touching this path")
	f.IntVar(&q.Limit, "limit", repohost.DefaultCommitLimit, "maximum number of commits")
	return cmd
}
