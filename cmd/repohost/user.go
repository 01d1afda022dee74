package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage tenant accounts",
	}

	var keyFile string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tenant account with one authorized SSH key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("failed to read key: %w", err)
			}
			return a.engine.AddUser(cmd.Context(), args[0], string(key))
		},
	}
	add.Flags().StringVar(&keyFile, "key", "", "public key file in authorized_keys format")
	_ = add.MarkFlagRequired("key")

	remove := &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a tenant account and its home directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.RemoveUser(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
