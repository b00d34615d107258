package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"friendtrack/pkg/auth"
	"friendtrack/pkg/config"
	"friendtrack/pkg/logger"
	"friendtrack/pkg/tracker"
	"friendtrack/pkg/ui"
)

var (
	outputDir         string
	requestsPerMinute int
	maxRetries        int
)

// trackCmd runs one tracking cycle explicitly; the bare root command does the
// same thing
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Fetch the friend list and report changes since the last run",
	Example: `  # Track with stored credentials
  friendtrack

  # Track into a specific directory
  friendtrack track --output ~/roblox-history

  # One-off run with a cookie from the environment
  FRIENDTRACK_COOKIE=... friendtrack track`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	for _, cmd := range []*cobra.Command{rootCmd, trackCmd} {
		cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for snapshots and the activity log")
		cmd.Flags().IntVar(&requestsPerMinute, "requests-per-minute", 0, "API request budget per minute")
		cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "retries per request after a rate-limit response")
	}
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	term := ui.NewTerminal(quiet, noColor)

	if cfg.Roblox.Cookie == "" {
		cookie, err := resolveCookie(term)
		if err != nil {
			return err
		}
		cfg.Roblox.Cookie = cookie
	}

	t, err := tracker.New(cfg, term, log)
	if err != nil {
		return err
	}

	result, err := t.Run()
	if err != nil {
		term.Error("Tracking failed: %v", err)
		return err
	}

	if result.FirstRun {
		log.InfoWithFields("baseline snapshot created", map[string]interface{}{
			"username": result.Username,
			"friends":  result.Total,
		})
	}

	return nil
}

// loadConfig assembles configuration from defaults, files, environment, and
// flags
func loadConfig() (*config.Config, error) {
	flags := map[string]interface{}{
		"output":              outputDir,
		"requests-per-minute": requestsPerMinute,
		"max-retries":         maxRetries,
		"log-level":           logLevel,
	}
	return config.Load(configFile, flags)
}

// resolveCookie finds a session cookie: stored credentials first, then an
// interactive prompt. The prompted cookie is only persisted with consent.
func resolveCookie(term *ui.Terminal) (string, error) {
	manager, err := auth.NewManager()
	if err == nil {
		if account, err := manager.RetrieveDefault(); err == nil {
			return account.Cookie, nil
		}
	}

	if !isInteractive() {
		return "", fmt.Errorf("no session cookie found: run 'friendtrack auth login' or set FRIENDTRACK_COOKIE")
	}

	term.Info("No stored session found.")
	fmt.Print("Paste your .ROBLOSECURITY cookie (input is hidden): ")
	cookie, err := readPassword()
	if err != nil {
		return "", fmt.Errorf("failed to read cookie: %w", err)
	}
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return "", fmt.Errorf("a session cookie is required")
	}

	fmt.Print("Save this cookie for future runs? (y/N): ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
		if manager == nil {
			term.Warning("Credential storage unavailable, continuing without saving.")
		} else if err := manager.Store(&auth.Account{Username: "default", Cookie: cookie}); err != nil {
			term.Warning("Could not save cookie: %v", err)
		} else {
			term.Success("Cookie saved.")
		}
	}

	return cookie, nil
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
