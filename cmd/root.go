package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dreamclass/examengine/internal/api"
	"github.com/dreamclass/examengine/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "examengine",
	Short: "Exam and quiz delivery engine",
	Long:  "Examengine runs timed multi-section exams and practice quizzes from a local question bank or a remote quiz server.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadEnvFile)

	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides EXAMENGINE_DB env var)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then EXAMENGINE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadEnvFile loads .env from the working directory when present, so
// server credentials don't have to live in the shell profile.
func loadEnvFile() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: load .env: %v\n", err)
	}
}

// apiClientFromEnv builds a quiz server client from EXAMENGINE_API_URL
// and EXAMENGINE_API_TOKEN. Returns nil when no server is configured.
func apiClientFromEnv() *api.Client {
	base := os.Getenv("EXAMENGINE_API_URL")
	if base == "" {
		return nil
	}
	return api.NewClient(base, os.Getenv("EXAMENGINE_API_TOKEN"), nil)
}
