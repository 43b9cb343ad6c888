package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
)

var databaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the post service schema migrations",
	Long: `migrate applies the embedded post service migrations directly against the
database, the same ones the post service applies at start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			return fmt.Errorf("--database-url or $DATABASE_URL is required")
		}
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx, cancel := newContext()
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := postRepo.ApplyMigrations(db, "postgres"); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&databaseURL, "database-url", envOr("DATABASE_URL", ""), "Postgres url of the post service database")
	rootCmd.AddCommand(migrateCmd)
}
