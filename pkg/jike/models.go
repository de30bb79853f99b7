package jike

import (
	"encoding/json"

	"jikecli/pkg/errors"
)

// ListPage is one page of a paginated listing. Records are kept as raw JSON
// so unknown post shapes survive a round trip; LoadMoreKey is an opaque
// cursor the server defines (sometimes a string, sometimes an object) and is
// echoed back verbatim on the next request.
type ListPage struct {
	Data        []json.RawMessage `json:"data"`
	LoadMoreKey json.RawMessage   `json:"loadMoreKey,omitempty"`
}

// HasMore reports whether the page carries a cursor for a following page
func (p *ListPage) HasMore() bool {
	return HasCursor(p.LoadMoreKey)
}

// Posts decodes the page records into typed posts
func (p *ListPage) Posts() ([]*Post, error) {
	posts := make([]*Post, 0, len(p.Data))
	for _, raw := range p.Data {
		post, err := DecodePost(raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// HasCursor reports whether a loadMoreKey value points at another page.
// Absent keys and JSON null both mean the listing is exhausted.
func HasCursor(key json.RawMessage) bool {
	if len(key) == 0 {
		return false
	}
	return string(key) != "null"
}

// User is a Jike account profile
type User struct {
	ID         string `json:"id,omitempty"`
	Username   string `json:"username"`
	ScreenName string `json:"screenName"`
	Bio        string `json:"bio,omitempty"`
}

// DisplayName prefers the screen name, falling back to the username
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.ScreenName != "" {
		return u.ScreenName
	}
	return u.Username
}

// Topic is the topic a post was filed under
type Topic struct {
	Content string `json:"content"`
}

// Picture is one image attached to a post, available in several resolutions
type Picture struct {
	PicURL       string `json:"picUrl,omitempty"`
	MiddlePicURL string `json:"middlePicUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// BestURL returns the highest-resolution URL the server provided
func (p Picture) BestURL() string {
	switch {
	case p.PicURL != "":
		return p.PicURL
	case p.MiddlePicURL != "":
		return p.MiddlePicURL
	default:
		return p.ThumbnailURL
	}
}

// LinkInfo is an external link card attached to a post
type LinkInfo struct {
	Title   string `json:"title,omitempty"`
	LinkURL string `json:"linkUrl,omitempty"`
}

// Post is the subset of a post record the client works with. Reposts carry
// the reposted post under Target.
type Post struct {
	ID        string    `json:"id"`
	Type      string    `json:"type,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt string    `json:"createdAt,omitempty"`
	User      *User     `json:"user,omitempty"`
	Topic     *Topic    `json:"topic,omitempty"`
	Pictures  []Picture `json:"pictures,omitempty"`
	LinkInfo  *LinkInfo `json:"linkInfo,omitempty"`
	Target    *Post     `json:"target,omitempty"`
}

// IsRepost reports whether the post quotes another post
func (p *Post) IsRepost() bool {
	return p.Type == "REPOST" || p.Target != nil
}

// DecodePost parses one raw record into a typed post
func DecodePost(raw json.RawMessage) (*Post, error) {
	var post Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, errors.NewProtocol("post record is not valid JSON")
	}
	return &post, nil
}

// ProfileResponse wraps the user object returned by the profile endpoint
type ProfileResponse struct {
	User User `json:"user"`
}
