package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"friendtrack/pkg/auth"
	"friendtrack/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Roblox session credentials",
	Long: `Manage stored Roblox session credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Plain cookie file (only with explicit consent)
  - FRIENDTRACK_COOKIE environment variable (read only)

Never share your session cookie or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a Roblox session cookie securely",
	Long: `Store a Roblox session cookie in the system keychain or encrypted file.

To get the cookie value:
1. Log into Roblox in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://www.roblox.com
4. Copy the .ROBLOSECURITY value`,
	Example: `  # Interactive login
  friendtrack auth login

  # Login labeled with a username
  friendtrack auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Example: `  # Remove the only stored account
  friendtrack auth logout

  # Remove a specific account
  friendtrack auth logout myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List all stored accounts with the cookie value masked.`,
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	out := ui.NewTerminal(quiet, noColor)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Roblox username (label for the stored cookie): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Account '%s' already exists. Update the cookie? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print(".ROBLOSECURITY cookie value (input is hidden): ")
	cookie, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read cookie: %w", err)
	}
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return fmt.Errorf("a session cookie is required")
	}

	fmt.Print("User Agent (press Enter for default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Username:     username,
		Cookie:       cookie,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	out.Success("Credentials stored for %s", username)
	out.Info("Run 'friendtrack' to take the first snapshot.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	out := ui.NewTerminal(quiet, noColor)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		out.Success("Account removed: %s", args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		out.Warning("No stored accounts found.")
		return nil
	}

	if len(accounts) == 1 {
		account := accounts[0]
		reader := bufio.NewReader(os.Stdin)
		fmt.Printf("Remove account '%s'? (y/N): ", account.Username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
		if err := manager.Delete(account.Username); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		out.Success("Account removed: %s", account.Username)
		return nil
	}

	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Username)
	}
	fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
	fmt.Println("  0. Cancel")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL accounts? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return nil
		}
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove all accounts: %w", err)
		}
		out.Success("All accounts removed")
	case choice > 0 && choice <= len(accounts):
		account := accounts[choice-1]
		if err := manager.Delete(account.Username); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		out.Success("Account removed: %s", account.Username)
	default:
		return fmt.Errorf("invalid choice")
	}

	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	out := ui.NewTerminal(quiet, noColor)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		out.Info("No stored accounts. Use 'friendtrack auth login' to add one.")
		return nil
	}

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Cookie: %s\n", sanitized.Cookie)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}

	return nil
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
