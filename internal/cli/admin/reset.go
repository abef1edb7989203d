package admin

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func ResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every indexed chunk",
		Long:  "Delete every indexed chunk. Chunk ids keep increasing after a reset.",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
	cmd.Flags().Bool("yes", false, "Confirm the reset")
	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return errors.New("refusing to reset without --yes")
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), env.cfg, env.logger, appOptions{requireDatabase: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.documents.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Store reset")
	return nil
}
