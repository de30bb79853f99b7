package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jikecli/pkg/auth"
	"jikecli/pkg/logger"
	"jikecli/pkg/qr"
	"jikecli/pkg/ui"
)

var (
	loginQRFile string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Jike credentials",
	Long: `Manage stored Jike credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (JIKECLI_ACCESS_TOKEN / JIKECLI_REFRESH_TOKEN)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [alias]",
	Short: "Log in by scanning a QR code with the Jike app",
	Long: `Log in to Jike through the QR-code handshake.

A QR code is printed to the terminal. Scan it with the Jike mobile app and
confirm; the resulting token pair is stored under the given alias
(default: "default").`,
	Example: `  # Log in and store under the default alias
  jikecli auth login

  # Log in under a named alias
  jikecli auth login work

  # Also write the QR code to a PNG for remote terminals
  jikecli auth login --qr-file login.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// tokenCmd represents the auth token command
var tokenCmd = &cobra.Command{
	Use:   "token [alias]",
	Short: "Store a token pair entered by hand",
	Long: `Store an access/refresh token pair without the QR handshake.

Useful when the tokens were captured elsewhere (browser dev tools, another
machine). Input is not echoed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runToken,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [alias]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Jike accounts with sanitized credential information.`,
	RunE:  runAuthList,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials would be used",
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(tokenCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringVar(&loginQRFile, "qr-file", "", "also save the QR code as a PNG at this path")
}

func runLogin(cmd *cobra.Command, args []string) error {
	alias := "default"
	if len(args) > 0 {
		alias = args[0]
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	handshake := auth.NewHandshake(&cfg.API, &cfg.Auth, logger.GetLogger())

	pair, err := handshake.Authenticate(context.Background(), func(payload string) {
		if err := qr.PrintTerminal(os.Stdout, payload); err != nil {
			ui.PrintWarning("Could not render QR code", err.Error())
			ui.PrintInfo("QR payload", payload)
		}
		if loginQRFile != "" {
			if err := qr.SavePNG(payload, loginQRFile); err != nil {
				ui.PrintWarning("Could not save QR code", err.Error())
			} else {
				ui.PrintInfo("QR code saved", loginQRFile)
			}
		}
		ui.PrintHighlight("Scan the QR code with the Jike app and confirm the login.")
	})
	if err != nil {
		return err
	}

	account := &auth.Account{Alias: alias, Tokens: pair}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Logged in, credentials stored as: " + alias)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	alias := "default"
	if len(args) > 0 {
		alias = args[0]
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	fmt.Print("Access token: ")
	access, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}

	fmt.Print("Refresh token: ")
	refresh, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read refresh token: %w", err)
	}

	account := &auth.Account{
		Alias: alias,
		Tokens: auth.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
		},
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Credentials stored as: " + alias)
	return nil
}

// readSecret reads a line from stdin without echoing when attached to a
// terminal
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "nothing to remove")
		return nil
	}

	if err := manager.DeleteAll(); err != nil {
		return fmt.Errorf("failed to remove accounts: %w", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Removed %d account(s)", len(accounts)))
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'jikecli auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Alias: %s\n", i+1, sanitized.Alias)
		fmt.Printf("   Access Token: %s\n", sanitized.Tokens.AccessToken)
		fmt.Printf("   Refresh Token: %s\n", sanitized.Tokens.RefreshToken)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}

	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	tokens, alias, err := resolveTokens()
	if err != nil {
		ui.PrintWarning("Not logged in", err.Error())
		return nil
	}

	source := "stored account"
	switch {
	case accessToken != "":
		source = "command-line flags"
	case auth.NewEnvironmentStore().Exists(""):
		source = "environment variables"
	}

	masked := tokens.Sanitized()
	ui.PrintInfo("Credential source", source)
	if alias != "" {
		ui.PrintInfo("Alias", alias)
	}
	ui.PrintInfo("Access Token", masked.AccessToken)
	ui.PrintInfo("Refresh Token", masked.RefreshToken)
	return nil
}
