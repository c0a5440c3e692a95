package cli

import (
	"github.com/spf13/cobra"

	"github.com/panda19/prisonscore/internal/api/response"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile inspection commands",
	}

	cmd.AddCommand(newProfileGetCmd())
	cmd.AddCommand(newProfileListCmd())

	return cmd
}

func newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a profile, online or stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Profile

			if err := client.Get(cmd.Context(), "/api/v1/profiles/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List online profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ProfileList

			if err := client.Get(cmd.Context(), "/api/v1/profiles", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
