package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	var owner string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project directory owned by a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.CreateProject(cmd.Context(), args[0], owner)
		},
	}
	create.Flags().StringVar(&owner, "owner", "", "tenant owning the project")
	_ = create.MarkFlagRequired("owner")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := a.engine.GetProjects(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
