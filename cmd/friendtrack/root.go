package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands.
// Running it bare performs a tracking run, matching how the tool is used from
// cron.
var rootCmd = &cobra.Command{
	Use:   "friendtrack",
	Short: "Track changes in a Roblox friend list over time",
	Long: `Friendtrack fetches the friend list of the authenticated Roblox account,
compares it against the last saved snapshot, and records who was added and
who unfriended since the previous run.

Snapshots are flat files next to each other in the output directory:
  <username>_friends.csv          latest snapshot (spreadsheet friendly)
  <username>_friends.json         latest snapshot (full records)
  <username>_activity_log.txt     append-only change history

Credentials are stored in the system keychain when available, otherwise in an
encrypted file. Never share your session cookie!`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	RunE:    runTrack,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .friendtrack.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and changes")

	rootCmd.SetVersionTemplate(`friendtrack {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
