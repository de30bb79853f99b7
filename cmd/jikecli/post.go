package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"jikecli/pkg/jike"
	"jikecli/pkg/ui"
)

// postCmd represents the post command group
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Create, inspect, and delete posts",
}

// postGetCmd fetches a single post by id
var postGetCmd = &cobra.Command{
	Use:   "get <post-id>",
	Short: "Fetch a single post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			post, err := client.GetPost(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(post)
		})
	},
}

// postCreateCmd publishes a new original post
var postCreateCmd = &cobra.Command{
	Use:     "create <content>...",
	Short:   "Publish a new post",
	Example: `  jikecli post create "hello from the command line"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args, " ")
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			created, err := client.CreatePost(ctx, content)
			if err != nil {
				return err
			}
			ui.PrintSuccess("Post published")
			return printJSON(created)
		})
	},
}

// postDeleteCmd removes one of the session user's posts
var postDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			if err := client.DeletePost(ctx, args[0]); err != nil {
				return err
			}
			ui.PrintSuccess("Post deleted: " + args[0])
			return nil
		})
	},
}

// commentCmd represents the comment command group
var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Add and delete comments",
}

// commentAddCmd attaches a comment to a post
var commentAddCmd = &cobra.Command{
	Use:   "add <post-id> <content>...",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID := args[0]
		content := strings.Join(args[1:], " ")
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			created, err := client.AddComment(ctx, postID, content)
			if err != nil {
				return err
			}
			ui.PrintSuccess("Comment added")
			return printJSON(created)
		})
	},
}

// commentDeleteCmd removes one of the session user's comments
var commentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			if err := client.DeleteComment(ctx, args[0]); err != nil {
				return err
			}
			ui.PrintSuccess("Comment deleted: " + args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)

	postCmd.AddCommand(postGetCmd)
	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postDeleteCmd)

	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentDeleteCmd)
}
