package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"examly/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "examly",
	Short: "AI-generated tests with rubric grading",
	Long:  "Examly generates topic tests through an LLM backend, grades submissions against a strict rubric, and tracks per-student mastery over time.",
}

func Execute() error {
	// Local .env is optional; real env vars always win.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides EXAMLY_DB env var)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then EXAMLY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
