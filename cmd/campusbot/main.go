package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("campusbot: %v", err)
	}
}

var dbFile string

var rootCmd = &cobra.Command{
	Use:   "campusbot",
	Short: "Campus presence bot",
	Long: `campusbot tracks who is on campus, answers chat commands and alerts
members once a day when the peer they watch shows up.

Run 'campusbot' without a subcommand to serve.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "", "SQLite database file (overrides DATABASE_FILE)")

	rootCmd.AddCommand(serveCmd, migrateCmd, resetNotifiedCmd)
}
