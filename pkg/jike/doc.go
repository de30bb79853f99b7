// Package jike provides a client for the Jike web API.
//
// This package includes:
//   - An authenticated HTTP client with automatic token rotation
//   - Type-safe models for posts, users, and paginated listings
//   - Opaque-cursor pagination over any listing endpoint
//   - Built-in error types for better error handling
//
// Every authenticated call retries exactly once after a 401: the stale
// access token is rotated through the refresh endpoint and the original
// request is replayed with an identical body. Concurrent callers hitting
// a 401 at the same time share a single refresh.
//
// Example usage:
//
//	client, err := jike.NewClient(cfg, tokens, logger.GetLogger())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Fetch the home feed
//	page, err := client.Feed(ctx, 20, nil)
//	if err != nil {
//	    if errors.IsAuthExpired(err) {
//	        // Both tokens are stale; re-run the QR handshake
//	    }
//	}
//
//	// Walk a user's full post history
//	pages := client.UserPostsPages(ctx, "username", 20, ratelimit.NewPacer(500*time.Millisecond))
//	for pages.Next() {
//	    posts, _ := pages.Page().Posts()
//	    // ...
//	}
//	if err := pages.Err(); err != nil {
//	    // Handle partial walk
//	}
package jike
