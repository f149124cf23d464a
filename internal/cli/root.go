package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GlobalOptions holds flags shared across all commands
type GlobalOptions struct {
	Host   string
	Port   int
	LogDir string
}

var globalOpts = &GlobalOptions{}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shellherd",
	Short: "Supervisor for a single shell command with an HTTP control API",
	Long: `shellherd runs one shell command at a time under supervision and
exposes its lifecycle over a small HTTP API: start, status, kill,
restart, and timestamped log retrieval.

The "serve" command runs the API server; "tui" opens a terminal
dashboard that drives the same API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags override config file and environment values
	rootCmd.PersistentFlags().StringVar(&globalOpts.Host, "host", "", "Bind address (or set SHELLHERD_HOST)")
	rootCmd.PersistentFlags().IntVar(&globalOpts.Port, "port", 0, "Listen port (or set SHELLHERD_PORT)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogDir, "log-dir", "", "Directory for process log files (or set SHELLHERD_LOG_DIR)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTUICmd())
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
