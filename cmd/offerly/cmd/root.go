package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "offerly",
	Short: "Offerly - template definition service",
	Long: `Offerly serves the template definition subsystem: versioned form-field
content, business-key enrichment per category, and tenant-unique slugs.

Examples:
  # Run the API server
  offerly serve

  # Run the API server on a specific port
  offerly serve --port 9000

  # Apply database migrations and exit
  offerly migrate`,
}

func Execute() error {
	return rootCmd.Execute()
}
