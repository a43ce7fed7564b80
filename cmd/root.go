// Package cmd wires the opsdesk commands: serve, migrate and version.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opsdesk",
	Short: "OpsDesk - conversational SQL assistant for field-service data",
	Long: `OpsDesk fronts a field-service database (customers, jobs, bookings)
with a conversational assistant. Natural-language questions are translated
into PostgreSQL, executed, and narrated back as plain answers over a JSON
HTTP API.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
