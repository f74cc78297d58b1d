package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenhost/lumen/internal/interfaces/cli/migrate"
	"github.com/lumenhost/lumen/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lumen",
		Short: "Lumen - hosted application lifecycle engine",
		Long:  `Lumen manages subscriptions, instances, provisioning and billing for hosted applications.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
