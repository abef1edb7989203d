package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/docqa/internal/cli"
	"github.com/cloo-solutions/docqa/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docqad",
		Short: "docqa server and local pipeline commands",
		Long: `docqad runs the docqa API server and operates directly on the configured store.

Configuration is read from DOCQA_* environment variables and an optional .env file.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().AddFlagSet(admin.GlobalFlags())
	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.AskCmd())
	rootCmd.AddCommand(admin.DeleteCmd())
	rootCmd.AddCommand(admin.ResetCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if done, err := cli.WriteHelpJSON(rootCmd, os.Args[1:], os.Stdout); done {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
