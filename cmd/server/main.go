package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const programName = "suarawarga"

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Civic report verification service",
		// 不带子命令时直接启动服务
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file (default ./config.yaml)")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the key/value table (postgres and sqlite drivers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateRun()
		},
	}
}
