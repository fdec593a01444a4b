// Package main provides the entry point for the version_audit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "version_audit",
	Short: "Audit client driver versions against the vendor's recommended versions",
	Long: `version_audit scrapes the vendor's recommended client versions table, compares it with
the client identifiers recorded in session history, and emails every user running an
out-of-date client.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
