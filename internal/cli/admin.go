package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/panda19/prisonscore/internal/api/request"
	"github.com/panda19/prisonscore/internal/api/response"
	"github.com/panda19/prisonscore/internal/services/auth"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (require --token)",
	}

	cmd.AddCommand(newAdminReloadCmd())
	cmd.AddCommand(newAdminSaveCmd())
	cmd.AddCommand(newAdminDeleteCmd())
	cmd.AddCommand(newAdminGrantCmd())
	cmd.AddCommand(newAdminTokenCmd())

	return cmd
}

func newAdminReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload policy files and re-check online players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.ReloadResponse

			if err := client.Post(cmd.Context(), "/api/v1/admin/reload", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newAdminSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Queue a save of every online profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SaveResponse

			if err := client.Post(cmd.Context(), "/api/v1/admin/save", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newAdminDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Evict a profile and delete its stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/admin/profiles/"+args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Deleted: " + args[0])
			return nil
		},
	}
}

func newAdminGrantCmd() *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "grant <id>",
		Short: "Give an online player experience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}

			req := request.GrantRequest{Amount: amount}
			var result response.GrantResponse

			if err := client.Post(cmd.Context(), "/api/v1/admin/profiles/"+args[0]+"/experience", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "Experience to grant (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "new-token",
		Short: "Generate an admin token and the hash to configure on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.GenerateToken()
			if err != nil {
				return err
			}
			hash, err := auth.HashToken(token, bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			if save {
				if err := cfg.SaveToken(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(TokenResult{Token: token, Hash: hash})
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write the token to the token file")

	return cmd
}
