package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/config"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and resolved configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Printf("opsdesk %s\n", Version)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		fmt.Printf("  Model: %s\n", cfg.QualifiedModel())
		fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
		fmt.Printf("  Max tokens: %d\n", cfg.MaxTokens)
		fmt.Printf("  Server: %s\n", cfg.ServerAddr)
		fmt.Printf("  Postgres: %s@%s:%d/%s\n",
			cfg.PostgresUser, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
