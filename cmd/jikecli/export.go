package main

import (
	"context"

	"github.com/spf13/cobra"

	"jikecli/pkg/export"
	"jikecli/pkg/jike"
	"jikecli/pkg/logger"
)

var (
	exportOutput         string
	exportDownloadImages bool
	exportImagesDir      string
	exportConcurrency    int
	exportJSONDump       bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <username>",
	Short: "Export a user's complete post history to Markdown",
	Long: `Export every post of a user to a single Markdown document.

The full history is paginated automatically with a delay between pages.
Posts appear oldest first; reposts include the quoted content, and images
are linked inline or downloaded locally with --download-images.`,
	Example: `  # Export to <username>_jike_export.md
  jikecli export someuser

  # Export to stdout
  jikecli export someuser -o -

  # Download images next to the document and keep the raw JSON
  jikecli export someuser --download-images --json-dump`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		return runWithClient(func(ctx context.Context, client *jike.Client) error {
			opts := export.Options{
				OutputPath:     exportOutput,
				DownloadImages: exportDownloadImages || cfg.Export.DownloadImages,
				ImagesDir:      exportImagesDir,
				Concurrency:    exportConcurrency,
				JSONDump:       exportJSONDump || cfg.Export.JSONDump,
				PageDelay:      cfg.RateLimit.PageDelay,
			}
			if opts.ImagesDir == "" {
				opts.ImagesDir = cfg.Export.ImagesDirectory
			}
			if opts.Concurrency <= 0 {
				opts.Concurrency = cfg.Export.ConcurrentDownloads
			}

			exporter := export.New(client, opts, logger.GetLogger())
			return exporter.Run(ctx, username)
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output markdown file (default: <username>_jike_export.md, '-' for stdout)")
	exportCmd.Flags().BoolVar(&exportDownloadImages, "download-images", false, "download images locally instead of linking URLs")
	exportCmd.Flags().StringVar(&exportImagesDir, "images-dir", "", "directory for downloaded images (default: <username>_images)")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrent", 0, "parallel image downloads")
	exportCmd.Flags().BoolVar(&exportJSONDump, "json-dump", false, "also save the raw JSON records")
}
