package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/panda19/prisonscore/internal/api/request"
	"github.com/panda19/prisonscore/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Player session commands",
	}

	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionLeaveCmd())

	return cmd
}

func newSessionJoinCmd() *cobra.Command {
	var id, name string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Signal that a player joined",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if id == "" {
				id = uuid.NewString()
			}

			req := request.JoinRequest{ID: id, DisplayName: name}
			var result response.Profile

			if err := client.Post(cmd.Context(), "/api/v1/sessions", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Player UUID (generated if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSessionLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Signal that a player left",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/sessions/"+args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Left: " + args[0])
			return nil
		},
	}
}

func newYieldCmd() *cobra.Command {
	var resource, location string

	cmd := &cobra.Command{
		Use:   "yield <id>",
		Short: "Signal that a player broke a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if resource == "" {
				return fmt.Errorf("--resource is required")
			}

			req := request.YieldRequest{Resource: resource, Location: location}
			var result response.YieldResponse

			if err := client.Post(cmd.Context(), "/api/v1/profiles/"+args[0]+"/yield", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Resource kind, e.g. DIAMOND_ORE (required)")
	cmd.Flags().StringVar(&location, "location", "", "Where it was broken")
	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func newDeathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "death <id>",
		Short: "Signal that a player died",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.DeathResponse

			if err := client.Post(cmd.Context(), "/api/v1/profiles/"+args[0]+"/death", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
