package main

import (
	"context"

	"github.com/spf13/cobra"

	"jikecli/pkg/jike"
	"jikecli/pkg/ratelimit"
)

var (
	feedLimit int
	feedPages int
)

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the following-updates timeline",
	Long: `Fetch posts from the timeline of accounts you follow.

Output is the raw post records as JSON, one page per --pages.`,
	Example: `  # First page of the timeline
  jikecli feed

  # Three pages of 10 posts each
  jikecli feed --limit 10 --pages 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			pacer := ratelimit.NewPacer(cfg.RateLimit.PageDelay)
			return runPages(client.FeedPages(ctx, feedLimit, pacer), feedPages)
		})
	},
}

var notificationsPages int

// notificationsCmd represents the notifications command
var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show notifications",
	Long:  `Fetch the notification list, plus the unread counter with --unread.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unread, _ := cmd.Flags().GetBool("unread")
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			if unread {
				count, err := client.UnreadNotificationCount(ctx)
				if err != nil {
					return err
				}
				return printJSON(count)
			}
			pacer := ratelimit.NewPacer(cfg.RateLimit.PageDelay)
			return runPages(client.NotificationPages(ctx, pacer), notificationsPages)
		})
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(notificationsCmd)

	feedCmd.Flags().IntVar(&feedLimit, "limit", jike.DefaultPageSize, "posts per page")
	feedCmd.Flags().IntVar(&feedPages, "pages", 1, "number of pages to fetch (0 = all)")

	notificationsCmd.Flags().Bool("unread", false, "show the unread counter instead of the list")
	notificationsCmd.Flags().IntVar(&notificationsPages, "pages", 1, "number of pages to fetch (0 = all)")
}
