package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/panda19/prisonscore/internal/api/response"
)

const healthPollInterval = 100 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check server health. With --wait the check is retried until the server
answers or the duration runs out, which is handy right after starting it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			deadline := time.Now().Add(wait)
			for {
				err := client.Get(cmd.Context(), "/api/v1/health", &result)
				if err == nil {
					break
				}
				if time.Now().After(deadline) {
					if wait > 0 {
						return fmt.Errorf("server not healthy after %s: %w", wait, err)
					}
					return err
				}
				time.Sleep(healthPollInterval)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for this long until the server answers")
	return cmd
}
