package jike

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"jikecli/pkg/auth"
	"jikecli/pkg/config"
	"jikecli/pkg/errors"
	"jikecli/pkg/logger"
	"jikecli/pkg/ratelimit"
)

// Client talks to the Jike API on behalf of one authenticated session. It
// owns the retry-on-401 flow: a request that comes back unauthorized
// triggers exactly one refresh and one replay, never more.
type Client struct {
	httpClient *http.Client
	origin     string
	headers    map[string]string
	session    *Session
	refresher  Refresher
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client seeded with the given credential pair
func NewClient(cfg *config.Config, tokens auth.TokenPair, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		origin:     cfg.API.Origin,
		headers:    auth.BaseHeaders(cfg.API.UserAgent),
		session:    NewSession(tokens),
		refresher:  auth.NewHandshake(&cfg.API, &cfg.Auth, log),
		limiter:    ratelimit.NewSlidingWindow(cfg.RateLimit.RequestsPerMinute, time.Minute),
		logger:     log,
	}
}

// Session exposes the credential slot so callers can persist a rotated pair
// after a run
func (c *Client) Session() *Session {
	return c.session
}

// Do issues one authenticated API call. The request body is marshalled once
// so a 401 replay reuses identical bytes. Response bodies are decoded into
// out when it is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewProtocol("request body cannot be encoded")
		}
		payload = data
	}

	if c.limiter != nil {
		c.limiter.Wait()
	}

	tokens := c.session.Tokens()
	resp, err := c.send(ctx, method, path, payload, tokens.AccessToken)
	if err != nil {
		return errors.NewNetwork(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		c.logger.DebugWithFields("access token rejected, refreshing", map[string]interface{}{
			"path": path,
		})

		rotated, err := c.session.Rotate(ctx, tokens, c.refresher)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, payload, rotated.AccessToken)
		if err != nil {
			return errors.NewNetwork(err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return errors.NewAuthExpired("request rejected after refresh; run the QR login again")
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewRemote(resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetwork(err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewProtocol("response body is not the expected JSON shape")
	}

	return nil
}

// DoRaw issues one authenticated call and returns the raw response body
func (c *Client) DoRaw(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// send issues a single HTTP request carrying the fixed header bundle and
// the given access token
func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, body)
	if err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set(auth.HeaderAccessToken, accessToken)
	}

	return c.httpClient.Do(req)
}

// drain discards and closes a response body so the connection can be reused
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// Feed fetches one page of the following-updates timeline
func (c *Client) Feed(ctx context.Context, limit int, cursor json.RawMessage) (*ListPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var page ListPage
	err := c.Do(ctx, http.MethodPost, PathFeed, feedRequest{Limit: limit, LoadMoreKey: cursor}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost fetches a single post by id
func (c *Client) GetPost(ctx context.Context, id string) (json.RawMessage, error) {
	path := PathGetPost + "?id=" + url.QueryEscape(id)
	return c.DoRaw(ctx, http.MethodGet, path, nil)
}

// CreatePost publishes a new original post and returns the server's record
func (c *Client) CreatePost(ctx context.Context, content string, pictureKeys ...string) (json.RawMessage, error) {
	if pictureKeys == nil {
		pictureKeys = []string{}
	}
	body := createPostRequest{Content: content, PictureKeys: pictureKeys}
	return c.DoRaw(ctx, http.MethodPost, PathCreatePost, body)
}

// DeletePost removes one of the session user's posts
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodPost, PathRemovePost, removePostRequest{ID: id}, nil)
}

// AddComment attaches a comment to a post
func (c *Client) AddComment(ctx context.Context, postID, content string) (json.RawMessage, error) {
	body := addCommentRequest{
		TargetID:    postID,
		TargetType:  targetTypePost,
		Content:     content,
		PictureKeys: []string{},
	}
	return c.DoRaw(ctx, http.MethodPost, PathAddComment, body)
}

// DeleteComment removes one of the session user's comments
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	body := removeCommentRequest{ID: commentID, TargetType: targetTypePost}
	return c.Do(ctx, http.MethodPost, PathRemoveComment, body, nil)
}

// Search fetches one page of post search results for the given keyword
func (c *Client) Search(ctx context.Context, keyword string, limit int, cursor json.RawMessage) (*ListPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	body := searchRequest{Keyword: keyword, Limit: limit, LoadMoreKey: cursor}
	var page ListPage
	if err := c.Do(ctx, http.MethodPost, PathSearch, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Profile fetches a user's profile by username
func (c *Client) Profile(ctx context.Context, username string) (*ProfileResponse, error) {
	path := PathProfile + "?username=" + url.QueryEscape(username)
	var profile ProfileResponse
	if err := c.Do(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UserPosts fetches one page of a user's own posts
func (c *Client) UserPosts(ctx context.Context, username string, limit int, cursor json.RawMessage) (*ListPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	body := userPostsRequest{Username: username, Limit: limit, LoadMoreKey: cursor}
	var page ListPage
	if err := c.Do(ctx, http.MethodPost, PathUserPosts, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Followers fetches one page of the users following userID
func (c *Client) Followers(ctx context.Context, userID string, cursor json.RawMessage) (*ListPage, error) {
	return c.relationPage(ctx, PathFollowerList, userID, cursor)
}

// Followings fetches one page of the users userID follows
func (c *Client) Followings(ctx context.Context, userID string, cursor json.RawMessage) (*ListPage, error) {
	return c.relationPage(ctx, PathFollowingList, userID, cursor)
}

func (c *Client) relationPage(ctx context.Context, path, userID string, cursor json.RawMessage) (*ListPage, error) {
	body := relationRequest{UserID: userID, LoadMoreKey: cursor}
	var page ListPage
	if err := c.Do(ctx, http.MethodPost, path, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UnreadNotificationCount fetches the unread notification counter
func (c *Client) UnreadNotificationCount(ctx context.Context) (json.RawMessage, error) {
	return c.DoRaw(ctx, http.MethodGet, PathUnreadNotifications, nil)
}

// Notifications fetches one page of the notification list
func (c *Client) Notifications(ctx context.Context, cursor json.RawMessage) (*ListPage, error) {
	var page ListPage
	err := c.Do(ctx, http.MethodPost, PathNotifications, notificationsRequest{LoadMoreKey: cursor}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Download fetches an arbitrary URL (image CDN content) without credentials
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewNetwork(err)
	}
	req.Header.Set("User-Agent", c.headers["User-Agent"])

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewRemote(resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(err)
	}
	return data, nil
}
