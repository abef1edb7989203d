package admin

import (
	"fmt"

	"github.com/spf13/cobra"
)

func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove a document's chunks",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), env.cfg, env.logger, appOptions{requireDatabase: true})
	if err != nil {
		return err
	}
	defer a.Close()

	removed := a.documents.Delete(cmd.Context(), args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d chunks of %s\n", removed, args[0])
	return nil
}
