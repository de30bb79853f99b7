package jike

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jikecli/pkg/auth"
	"jikecli/pkg/errors"
	"jikecli/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// Helper function to create a response
func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// mockRefresher counts refresh calls and hands out sequential pairs
type mockRefresher struct {
	mu    sync.Mutex
	calls int
	pair  auth.TokenPair
	err   error
}

func (m *mockRefresher) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return auth.TokenPair{}, m.err
	}
	return m.pair, nil
}

func (m *mockRefresher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestClient(handler func(req *http.Request) (*http.Response, error), refresher Refresher) *Client {
	return &Client{
		httpClient: &http.Client{Transport: &mockRoundTripper{handler: handler}},
		origin:     "https://api.test",
		headers:    auth.BaseHeaders(""),
		session:    NewSession(auth.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"}),
		refresher:  refresher,
		logger:     logger.NewTestLogger(),
	}
}

func TestClientDoSuccess(t *testing.T) {
	var got *http.Request
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		got = req
		return newResponse(http.StatusOK, `{"data":[{"id":"p1"}],"loadMoreKey":"cursor-1"}`), nil
	}, &mockRefresher{})

	var page ListPage
	err := client.Do(context.Background(), http.MethodPost, PathFeed, feedRequest{Limit: 20}, &page)
	require.NoError(t, err)

	assert.Len(t, page.Data, 1)
	assert.Equal(t, `"cursor-1"`, string(page.LoadMoreKey))

	require.NotNil(t, got)
	assert.Equal(t, "https://web.okjike.com", got.Header.Get("Origin"))
	assert.Equal(t, "at-1", got.Header.Get(auth.HeaderAccessToken))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json, text/plain, */*", got.Header.Get("Accept"))
	assert.Equal(t, "1", got.Header.Get("DNT"))
}

func TestClientDoRefreshesOnceOn401(t *testing.T) {
	refresher := &mockRefresher{pair: auth.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"}}

	var tokensSeen []string
	var bodiesSeen []string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		tokensSeen = append(tokensSeen, req.Header.Get(auth.HeaderAccessToken))
		body, _ := io.ReadAll(req.Body)
		bodiesSeen = append(bodiesSeen, string(body))
		if req.Header.Get(auth.HeaderAccessToken) == "at-1" {
			return newResponse(http.StatusUnauthorized, ""), nil
		}
		return newResponse(http.StatusOK, `{"data":[]}`), nil
	}, refresher)

	var page ListPage
	err := client.Do(context.Background(), http.MethodPost, PathFeed, feedRequest{Limit: 20}, &page)
	require.NoError(t, err)

	assert.Equal(t, 1, refresher.callCount())
	assert.Equal(t, []string{"at-1", "at-2"}, tokensSeen)

	// The replay must carry byte-identical request content
	require.Len(t, bodiesSeen, 2)
	assert.Equal(t, bodiesSeen[0], bodiesSeen[1])

	// The rotated pair is visible to later calls
	assert.Equal(t, "at-2", client.Session().Tokens().AccessToken)
}

func TestClientDoSecond401IsAuthExpired(t *testing.T) {
	refresher := &mockRefresher{pair: auth.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"}}

	requests := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		requests++
		return newResponse(http.StatusUnauthorized, ""), nil
	}, refresher)

	err := client.Do(context.Background(), http.MethodPost, PathFeed, feedRequest{Limit: 20}, nil)
	require.Error(t, err)

	assert.True(t, errors.IsAuthExpired(err))
	assert.Equal(t, 1, refresher.callCount(), "exactly one refresh, never a second")
	assert.Equal(t, 2, requests, "exactly one replay, never a third attempt")
}

func TestClientDoRefreshFailureSurfaces(t *testing.T) {
	refresher := &mockRefresher{err: errors.NewAuthExpired("refresh token rejected")}

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusUnauthorized, ""), nil
	}, refresher)

	err := client.Do(context.Background(), http.MethodGet, PathProfile, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsAuthExpired(err))
}

func TestClientDoRemoteError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil
	}, &mockRefresher{})

	err := client.Do(context.Background(), http.MethodPost, PathSearch, searchRequest{Keyword: "x"}, nil)
	require.Error(t, err)

	assert.Equal(t, errors.ErrorTypeRemote, errors.TypeOf(err))

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
	assert.Equal(t, PathSearch, apiErr.Path)
}

func TestClientDoProtocolError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, "<html>not json</html>"), nil
	}, &mockRefresher{})

	var page ListPage
	err := client.Do(context.Background(), http.MethodPost, PathFeed, nil, &page)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeProtocol, errors.TypeOf(err))
}

func TestClientDoNetworkError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	}, &mockRefresher{})

	err := client.Do(context.Background(), http.MethodGet, PathProfile, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}

func TestClientRequestBodies(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) error
		path   string
		want   map[string]interface{}
		absent []string
	}{
		{
			name: "feed omits absent cursor",
			call: func(c *Client) error {
				_, err := c.Feed(context.Background(), 10, nil)
				return err
			},
			path: PathFeed,
			want: map[string]interface{}{"limit": float64(10)},
		},
		{
			name: "user posts echo object cursor verbatim",
			call: func(c *Client) error {
				_, err := c.UserPosts(context.Background(), "alice", 20, json.RawMessage(`{"lastId":"abc"}`))
				return err
			},
			path: PathUserPosts,
			want: map[string]interface{}{
				"username":    "alice",
				"limit":       float64(20),
				"loadMoreKey": map[string]interface{}{"lastId": "abc"},
			},
		},
		{
			name: "comment add targets original posts",
			call: func(c *Client) error {
				_, err := c.AddComment(context.Background(), "p1", "nice")
				return err
			},
			path: PathAddComment,
			want: map[string]interface{}{
				"targetId":              "p1",
				"targetType":            "ORIGINAL_POST",
				"content":               "nice",
				"syncToPersonalUpdates": false,
				"pictureKeys":           []interface{}{},
				"force":                 false,
			},
		},
		{
			name: "search sends a singular keyword",
			call: func(c *Client) error {
				_, err := c.Search(context.Background(), "coffee", 20, nil)
				return err
			},
			path: PathSearch,
			want: map[string]interface{}{
				"keyword": "coffee",
				"limit":   float64(20),
			},
			absent: []string{"keywords", "type", "onlyUserPost", "highlightEnabled", "loadMoreKey"},
		},
		{
			name: "follower list keys on userId",
			call: func(c *Client) error {
				_, err := c.Followers(context.Background(), "uid-1", json.RawMessage(`"k1"`))
				return err
			},
			path: PathFollowerList,
			want: map[string]interface{}{
				"userId":      "uid-1",
				"loadMoreKey": "k1",
			},
			absent: []string{"username", "limit"},
		},
		{
			name: "create post always carries pictureKeys",
			call: func(c *Client) error {
				_, err := c.CreatePost(context.Background(), "hello")
				return err
			},
			path: PathCreatePost,
			want: map[string]interface{}{
				"content":     "hello",
				"pictureKeys": []interface{}{},
			},
			absent: []string{"syncToPersonalUpdates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			var gotBody []byte
			client := newTestClient(func(req *http.Request) (*http.Response, error) {
				gotPath = req.URL.Path
				gotBody, _ = io.ReadAll(req.Body)
				return newResponse(http.StatusOK, `{"data":[]}`), nil
			}, &mockRefresher{})

			require.NoError(t, tt.call(client))
			assert.Equal(t, tt.path, gotPath)

			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(gotBody, &decoded))
			for key, want := range tt.want {
				assert.Equal(t, want, decoded[key], "field %s", key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, decoded, key, "field %s must not be sent", key)
			}
		})
	}
}

func TestClientProfileQuery(t *testing.T) {
	var gotURL string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return newResponse(http.StatusOK, `{"user":{"username":"alice","screenName":"Alice"}}`), nil
	}, &mockRefresher{})

	profile, err := client.Profile(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "https://api.test/1.0/users/profile?username=alice", gotURL)
	assert.Equal(t, "Alice", profile.User.ScreenName)
}
