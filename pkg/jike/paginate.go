package jike

import (
	"context"
	"encoding/json"

	"jikecli/pkg/ratelimit"
)

// FetchPage fetches one page of a listing given the previous page's cursor.
// A nil cursor means the first page.
type FetchPage func(ctx context.Context, cursor json.RawMessage) (*ListPage, error)

// Pages walks a paginated listing lazily: each Next call fetches exactly one
// page, echoing back the cursor from the previous response. The walk ends
// when the server stops returning a cursor, or defensively when a page comes
// back empty. A Pages is single-use and cannot be restarted.
type Pages struct {
	ctx     context.Context
	fetch   FetchPage
	pacer   ratelimit.Limiter
	cursor  json.RawMessage
	page    *ListPage
	err     error
	calls   int
	started bool
	done    bool
}

// NewPages creates an iterator over a paginated listing. pacer, when
// non-nil, is consulted before every fetch after the first to space out
// requests.
func NewPages(ctx context.Context, fetch FetchPage, pacer ratelimit.Limiter) *Pages {
	return &Pages{
		ctx:   ctx,
		fetch: fetch,
		pacer: pacer,
	}
}

// Next fetches the next page, reporting whether one was retrieved. After it
// returns false, check Err to distinguish exhaustion from failure.
func (p *Pages) Next() bool {
	if p.done || p.err != nil {
		return false
	}

	if p.started && p.pacer != nil {
		p.pacer.Wait()
	}

	page, err := p.fetch(p.ctx, p.cursor)
	p.calls++
	p.started = true

	if err != nil {
		p.err = err
		p.done = true
		return false
	}

	p.page = page
	p.cursor = page.LoadMoreKey

	// An empty page means the listing is exhausted even when the server
	// still hands out a cursor
	if !page.HasMore() || len(page.Data) == 0 {
		p.done = true
	}

	return true
}

// Page returns the page retrieved by the latest successful Next call
func (p *Pages) Page() *ListPage {
	return p.page
}

// Err returns the error that stopped the walk, if any
func (p *Pages) Err() error {
	return p.err
}

// Calls returns how many page fetches have been issued
func (p *Pages) Calls() int {
	return p.calls
}

// Collect drains the iterator and returns every record in page order
func (p *Pages) Collect() ([]json.RawMessage, error) {
	var records []json.RawMessage
	for p.Next() {
		records = append(records, p.Page().Data...)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// FeedPages walks the following-updates timeline
func (c *Client) FeedPages(ctx context.Context, limit int, pacer ratelimit.Limiter) *Pages {
	return NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return c.Feed(ctx, limit, cursor)
	}, pacer)
}

// UserPostsPages walks a user's complete post history
func (c *Client) UserPostsPages(ctx context.Context, username string, limit int, pacer ratelimit.Limiter) *Pages {
	return NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return c.UserPosts(ctx, username, limit, cursor)
	}, pacer)
}

// SearchPages walks post search results for the given keyword
func (c *Client) SearchPages(ctx context.Context, keyword string, limit int, pacer ratelimit.Limiter) *Pages {
	return NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return c.Search(ctx, keyword, limit, cursor)
	}, pacer)
}

// FollowerPages walks the followers of userID
func (c *Client) FollowerPages(ctx context.Context, userID string, pacer ratelimit.Limiter) *Pages {
	return NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return c.Followers(ctx, userID, cursor)
	}, pacer)
}

// FollowingPages walks the users userID follows
func (c *Client) FollowingPages(ctx context.Context, userID string, pacer ratelimit.Limiter) *Pages {
	return NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return c.Followings(ctx, userID, cursor)
	}, pacer)
}

// NotificationPages walks the notification list
func (c *Client) NotificationPages(ctx context.Context, pacer ratelimit.Limiter) *Pages {
	return NewPages(ctx, func(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
		return c.Notifications(ctx, cursor)
	}, pacer)
}
