package main

import (
	"github.com/spf13/cobra"

	"github.com/contractiq/coherence/internal/rules"
)

func newProfilesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect weight profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the current version of every profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.close()

			registry := a.service.Registry()
			names := registry.Names()
			profiles := make([]any, 0, len(names))
			for _, name := range names {
				p, err := registry.GetProfile(name)
				if err != nil {
					return err
				}
				profiles = append(profiles, p)
			}
			return writeJSON(cmd.OutOrStdout(), profiles)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Show the current version of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.service.Registry().GetProfile(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "history NAME",
		Short: "Show every version of a profile, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.close()

			return writeJSON(cmd.OutOrStdout(), a.service.Registry().GetHistory(args[0]))
		},
	})

	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the rule catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), rules.GetCatalog())
		},
	}
}
