package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"jikecli/pkg/auth"
	"jikecli/pkg/config"
	"jikecli/pkg/errors"
	"jikecli/pkg/jike"
	"jikecli/pkg/logger"
	"jikecli/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	quiet        bool
	accountAlias string
	accessToken  string
	refreshToken string

	// Loaded once per invocation by the root PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jikecli",
	Short: "A command-line client for the Jike social network",
	Long: `jikecli is a command-line client for the Jike social network.

It logs in through the QR-code handshake the web client uses, keeps the
access/refresh token pair in the system keychain or an encrypted file, and
refreshes expired tokens transparently mid-command.

Commands cover the timeline, posting, commenting, search, profiles,
followers, notifications, and a full-history markdown export.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if quiet {
			ui.SetQuietMode(true)
		}

		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}

		flags := make(map[string]interface{})
		if logLevel != "" {
			flags["log-level"] = logLevel
		}

		loaded, err := config.Load(configFile, flags)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		if quiet {
			cfg.Logging.Level = "error"
		}
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.jikecli.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and results")
	rootCmd.PersistentFlags().StringVar(&accountAlias, "account", "", "stored account to use")
	rootCmd.PersistentFlags().StringVar(&accessToken, "access-token", "", "access token (bypasses stored credentials)")
	rootCmd.PersistentFlags().StringVar(&refreshToken, "refresh-token", "", "refresh token (bypasses stored credentials)")

	rootCmd.SetVersionTemplate(`jikecli {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// resolveTokens finds a credential pair: explicit flags first, then the
// credential stores (which include the environment variables). It returns
// the alias under which a rotated pair should be persisted; empty means the
// pair is not persistable.
func resolveTokens() (auth.TokenPair, string, error) {
	if accessToken != "" && refreshToken != "" {
		return auth.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, "", nil
	}
	if accessToken != "" || refreshToken != "" {
		return auth.TokenPair{}, "", fmt.Errorf("--access-token and --refresh-token must be provided together")
	}

	manager, err := auth.NewManager()
	if err != nil {
		return auth.TokenPair{}, "", fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountAlias != "" {
		account, err = manager.Retrieve(accountAlias)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return auth.TokenPair{}, "", fmt.Errorf("no credentials available: %w (run 'jikecli auth login' first)", err)
	}

	return account.Tokens, account.Alias, nil
}

// runWithClient builds an authenticated client, runs fn, and persists the
// credential pair back to the store when a refresh rotated it mid-command
func runWithClient(fn func(ctx context.Context, client *jike.Client) error) error {
	tokens, alias, err := resolveTokens()
	if err != nil {
		return err
	}

	client := jike.NewClient(cfg, tokens, logger.GetLogger())
	ctx := context.Background()

	runErr := fn(ctx, client)

	if alias != "" {
		if rotated := client.Session().Tokens(); rotated != tokens {
			if manager, err := auth.NewManager(); err == nil {
				if err := manager.Store(&auth.Account{Alias: alias, Tokens: rotated}); err != nil {
					logger.WithError(err).Warn("failed to persist refreshed tokens")
				} else {
					logger.GetLogger().Debug("refreshed tokens persisted")
				}
			}
		}
	}

	if runErr != nil && errors.IsAuthExpired(runErr) {
		ui.PrintWarning("Session expired", "run 'jikecli auth login' to re-authenticate")
	}

	return runErr
}

// printJSON writes a value as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// runPages drains up to maxPages pages from the iterator, printing every
// record. maxPages <= 0 means the whole listing.
func runPages(pages *jike.Pages, maxPages int) error {
	var records []json.RawMessage
	for pages.Next() {
		records = append(records, pages.Page().Data...)
		if maxPages > 0 && pages.Calls() >= maxPages {
			break
		}
	}
	if err := pages.Err(); err != nil {
		return err
	}
	return printJSON(records)
}
