package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"jikecli/pkg/jike"
	"jikecli/pkg/ratelimit"
)

var (
	searchLimit int
	searchPages int

	userPostsLimit int
	userPostsPages int

	relationPages int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <keywords>...",
	Short: "Search posts",
	Example: `  jikecli search coffee
  jikecli search coffee roast --pages 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keywords := strings.Join(args, " ")
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			pacer := ratelimit.NewPacer(cfg.RateLimit.PageDelay)
			return runPages(client.SearchPages(ctx, keywords, searchLimit, pacer), searchPages)
		})
	},
}

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Show a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			profile, err := client.Profile(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(profile)
		})
	},
}

// userPostsCmd represents the user-posts command
var userPostsCmd = &cobra.Command{
	Use:   "user-posts <username>",
	Short: "List a user's posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			pacer := ratelimit.NewPacer(cfg.RateLimit.PageDelay)
			return runPages(client.UserPostsPages(ctx, args[0], userPostsLimit, pacer), userPostsPages)
		})
	},
}

// followersCmd represents the followers command
var followersCmd = &cobra.Command{
	Use:   "followers <user-id>",
	Short: "List a user's followers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			pacer := ratelimit.NewPacer(cfg.RateLimit.PageDelay)
			return runPages(client.FollowerPages(ctx, args[0], pacer), relationPages)
		})
	},
}

// followingCmd represents the following command
var followingCmd = &cobra.Command{
	Use:   "following <user-id>",
	Short: "List the users a user follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			pacer := ratelimit.NewPacer(cfg.RateLimit.PageDelay)
			return runPages(client.FollowingPages(ctx, args[0], pacer), relationPages)
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(userPostsCmd)
	rootCmd.AddCommand(followersCmd)
	rootCmd.AddCommand(followingCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", jike.DefaultPageSize, "results per page")
	searchCmd.Flags().IntVar(&searchPages, "pages", 1, "number of pages to fetch (0 = all)")

	userPostsCmd.Flags().IntVar(&userPostsLimit, "limit", jike.DefaultPageSize, "posts per page")
	userPostsCmd.Flags().IntVar(&userPostsPages, "pages", 1, "number of pages to fetch (0 = all)")

	for _, cmd := range []*cobra.Command{followersCmd, followingCmd} {
		cmd.Flags().IntVar(&relationPages, "pages", 1, "number of pages to fetch (0 = all)")
	}
}
