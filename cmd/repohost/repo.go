package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRepoCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
	}

	var owner, readmeFile string
	create := &cobra.Command{
		Use:   "create PROJECT NAME",
		Short: "Create a bare repository seeded with a README",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var readme string
			if readmeFile != "" {
				data, err := os.ReadFile(readmeFile)
				if err != nil {
					return fmt.Errorf("failed to read readme: %w", err)
				}
				readme = string(data)
			}
			return a.engine.CreateRepository(cmd.Context(), args[0], args[1], owner, readme)
		},
	}
	create.Flags().StringVar(&owner, "owner", "", "tenant owning the repository")
	create.Flags().StringVar(&readmeFile, "readme", "", "file whose content seeds README")
	_ = create.MarkFlagRequired("owner")

	list := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List the repositories of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := a.engine.GetRepositories(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, r := range repos {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
