package jike

import "encoding/json"

// API endpoint paths relative to the origin.
const (
	PathFeed                = "/1.0/personalUpdate/followingUpdates"
	PathGetPost             = "/1.0/originalPosts/get"
	PathCreatePost          = "/1.0/originalPosts/create"
	PathRemovePost          = "/1.0/originalPosts/remove"
	PathAddComment          = "/1.0/comments/add"
	PathRemoveComment       = "/1.0/comments/remove"
	PathSearch              = "/1.0/search/integrate"
	PathProfile             = "/1.0/users/profile"
	PathUserPosts           = "/1.0/personalUpdate/single"
	PathFollowerList        = "/1.0/userRelation/getFollowerList"
	PathFollowingList       = "/1.0/userRelation/getFollowingList"
	PathUnreadNotifications = "/1.0/notifications/unread"
	PathNotifications       = "/1.0/notifications/list"
)

// targetTypePost marks comment operations as targeting an original post
const targetTypePost = "ORIGINAL_POST"

// DefaultPageSize is the record count requested per page when the caller
// does not choose one
const DefaultPageSize = 20

// feedRequest asks for a page of the following-updates timeline
type feedRequest struct {
	Limit       int             `json:"limit"`
	LoadMoreKey json.RawMessage `json:"loadMoreKey,omitempty"`
}

// userPostsRequest asks for a page of one user's posts
type userPostsRequest struct {
	Username    string          `json:"username"`
	Limit       int             `json:"limit"`
	LoadMoreKey json.RawMessage `json:"loadMoreKey,omitempty"`
}

// relationRequest asks for a page of a user's followers or followings.
// Relation listings key on the user id and take no page size.
type relationRequest struct {
	UserID      string          `json:"userId"`
	LoadMoreKey json.RawMessage `json:"loadMoreKey,omitempty"`
}

// searchRequest asks for a page of post search results
type searchRequest struct {
	Keyword     string          `json:"keyword"`
	Limit       int             `json:"limit"`
	LoadMoreKey json.RawMessage `json:"loadMoreKey,omitempty"`
}

// createPostRequest publishes a new original post. pictureKeys is always
// present, empty when the post carries no images.
type createPostRequest struct {
	Content     string   `json:"content"`
	PictureKeys []string `json:"pictureKeys"`
}

// removePostRequest deletes one original post by id
type removePostRequest struct {
	ID string `json:"id"`
}

// addCommentRequest attaches a comment to a post
type addCommentRequest struct {
	TargetID    string   `json:"targetId"`
	TargetType  string   `json:"targetType"`
	Content     string   `json:"content"`
	SyncToFeed  bool     `json:"syncToPersonalUpdates"`
	PictureKeys []string `json:"pictureKeys"`
	Force       bool     `json:"force"`
}

// removeCommentRequest deletes one comment by id
type removeCommentRequest struct {
	ID         string `json:"id"`
	TargetType string `json:"targetType"`
}

// notificationsRequest asks for a page of notifications
type notificationsRequest struct {
	LoadMoreKey json.RawMessage `json:"loadMoreKey,omitempty"`
}
