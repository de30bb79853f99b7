package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"jikecli/internal/downloader"
	"jikecli/pkg/jike"
	"jikecli/pkg/logger"
	"jikecli/pkg/ratelimit"
)

// API is the slice of the Jike client the exporter needs
type API interface {
	Profile(ctx context.Context, username string) (*jike.ProfileResponse, error)
	UserPosts(ctx context.Context, username string, limit int, cursor json.RawMessage) (*jike.ListPage, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Options control one export run
type Options struct {
	// OutputPath is the markdown file to write; "-" means stdout. Empty
	// defaults to <username>_jike_export.md.
	OutputPath string
	// DownloadImages stores post images locally and links the local copies
	DownloadImages bool
	// ImagesDir is where downloaded images go; empty defaults to
	// <username>_images
	ImagesDir string
	// Concurrency is the number of parallel image downloads
	Concurrency int
	// JSONDump also writes the raw post records next to the markdown
	JSONDump bool
	// PageDelay is the pause between page fetches
	PageDelay time.Duration
	// PageSize is the record count requested per page
	PageSize int
}

// Exporter walks a user's complete post history and renders it as a
// markdown document, oldest post first
type Exporter struct {
	api    API
	opts   Options
	logger logger.Logger
}

// New creates an exporter
func New(api API, opts Options, log logger.Logger) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.PageSize <= 0 {
		opts.PageSize = jike.DefaultPageSize
	}
	return &Exporter{api: api, opts: opts, logger: log}
}

// Run exports every post of username. It fetches the full history page by
// page, reverses the server's newest-first order, optionally downloads the
// images, and writes the markdown document.
func (e *Exporter) Run(ctx context.Context, username string) error {
	outputPath := e.opts.OutputPath
	if outputPath == "" {
		outputPath = username + "_jike_export.md"
	}

	profile, err := e.api.Profile(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	e.logger.InfoWithFields("exporting posts", map[string]interface{}{
		"username":    username,
		"screen_name": profile.User.ScreenName,
	})

	raw, posts, err := e.fetchAllPosts(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to fetch posts: %w", err)
	}
	if len(posts) == 0 {
		e.logger.Info("no posts found")
		return nil
	}

	// The server lists newest first; the document reads oldest first
	reverse(raw)
	reverse(posts)

	records := make([]Record, len(posts))
	for i, post := range posts {
		rec := NewRecord(post)
		rec.Index = i + 1
		records[i] = rec
	}

	if e.opts.JSONDump {
		if err := e.writeJSONDump(raw, outputPath); err != nil {
			return err
		}
	}

	if e.opts.DownloadImages {
		imagesDir := e.opts.ImagesDir
		if imagesDir == "" {
			imagesDir = username + "_images"
		}
		if err := e.localizeImages(ctx, records, imagesDir); err != nil {
			return err
		}
	}

	document := renderDocument(records, profile.User, time.Now())

	if outputPath == "-" {
		_, err := os.Stdout.WriteString(document)
		return err
	}
	if err := os.WriteFile(outputPath, []byte(document), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	e.logger.InfoWithFields("export written", map[string]interface{}{
		"output": outputPath,
		"posts":  len(records),
	})

	return nil
}

// fetchAllPosts drains the user's post history, returning both the raw
// records (for the JSON dump) and the decoded posts, in server page order
func (e *Exporter) fetchAllPosts(ctx context.Context, username string) ([]json.RawMessage, []*jike.Post, error) {
	pages := jike.NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*jike.ListPage, error) {
		return e.api.UserPosts(ctx, username, e.opts.PageSize, cursor)
	}, ratelimit.NewPacer(e.opts.PageDelay))

	var raw []json.RawMessage
	var posts []*jike.Post

	for pages.Next() {
		page := pages.Page()
		decoded, err := page.Posts()
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, page.Data...)
		posts = append(posts, decoded...)

		e.logger.DebugWithFields("page fetched", map[string]interface{}{
			"page":  pages.Calls(),
			"posts": len(page.Data),
			"total": len(posts),
		})
	}
	if err := pages.Err(); err != nil {
		return nil, nil, err
	}

	return raw, posts, nil
}

// localizeImages downloads every image referenced by the records and
// rewrites the record URLs to the local relative paths. Failed downloads
// keep their remote URL.
func (e *Exporter) localizeImages(ctx context.Context, records []Record, imagesDir string) error {
	store, err := NewImageStore(imagesDir)
	if err != nil {
		return err
	}

	type slot struct {
		urls  []string
		index int
	}

	// filename -> where the local path must be written back
	targets := make(map[string]slot)
	var jobs []downloader.Job

	for i := range records {
		rec := &records[i]
		for j, url := range rec.Pictures {
			name := imageFilename(url, rec.Index, j)
			targets[name] = slot{urls: rec.Pictures, index: j}
			jobs = append(jobs, downloader.Job{URL: url, Filename: name})
		}
		if rec.Repost != nil {
			// Repost images share the record index, offset to avoid clashes
			for j, url := range rec.Repost.Pictures {
				name := imageFilename(url, rec.Index, 100+j)
				targets[name] = slot{urls: rec.Repost.Pictures, index: j}
				jobs = append(jobs, downloader.Job{URL: url, Filename: name})
			}
		}
	}

	if len(jobs) == 0 {
		return nil
	}

	pool := downloader.NewPool(e.opts.Concurrency, fetcherFunc(e.api.Download), store, nil, e.logger)
	pool.Start()

	go func() {
		for _, job := range jobs {
			_ = pool.Submit(job)
		}
		pool.Stop()
	}()

	for result := range pool.Results() {
		if !result.Success {
			e.logger.WarnWithFields("image download failed, keeping remote URL", map[string]interface{}{
				"url":   result.Job.URL,
				"error": result.Error.Error(),
			})
			continue
		}
		if target, ok := targets[result.Job.Filename]; ok {
			target.urls[target.index] = store.RelPath(result.Job.Filename)
		}
	}

	return nil
}

// writeJSONDump saves the raw post records next to the markdown output
func (e *Exporter) writeJSONDump(raw []json.RawMessage, outputPath string) error {
	jsonPath := strings.TrimSuffix(outputPath, ".md") + ".json"
	if outputPath == "-" {
		jsonPath = "export.json"
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON dump: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON dump: %w", err)
	}

	e.logger.InfoWithFields("raw JSON saved", map[string]interface{}{
		"path": jsonPath,
	})

	return nil
}

// fetcherFunc adapts a download function to the downloader.Fetcher interface
type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Download(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
