// Package export renders a user's complete post history as a single
// markdown document.
//
// The exporter walks the history page by page with a fixed delay between
// fetches, reverses the server's newest-first order so the document reads
// chronologically, and renders each post with its topic, images, link
// card, and quoted repost. Images can optionally be downloaded through a
// worker pool and linked locally; failed downloads keep their remote URL.
package export
