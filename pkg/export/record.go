package export

import (
	"time"

	"jikecli/pkg/jike"
)

// Link is an external link card carried by a post
type Link struct {
	Title string
	URL   string
}

// Repost is the quoted post inside a repost record
type Repost struct {
	Author   string
	Content  string
	Pictures []string
	Link     *Link
}

// Record is one post flattened into the fields the markdown document needs.
// Index is 1-based and assigned after ordering, oldest post first.
type Record struct {
	Index     int
	ID        string
	Type      string
	Timestamp string
	Content   string
	Topic     string
	Pictures  []string
	Link      *Link
	Repost    *Repost
}

// NewRecord flattens one post into a record. The caller assigns Index once
// the full set is ordered.
func NewRecord(post *jike.Post) Record {
	rec := Record{
		ID:        post.ID,
		Type:      post.Type,
		Timestamp: formatTimestamp(post.CreatedAt),
		Content:   post.Content,
		Pictures:  extractPictures(post.Pictures),
		Link:      extractLink(post.LinkInfo),
	}
	if rec.Type == "" {
		rec.Type = "ORIGINAL_POST"
	}

	if post.Topic != nil {
		rec.Topic = post.Topic.Content
	}

	if target := post.Target; target != nil {
		author := target.User.DisplayName()
		if author == "" {
			author = "unknown"
		}
		rec.Repost = &Repost{
			Author:   author,
			Content:  target.Content,
			Pictures: extractPictures(target.Pictures),
			Link:     extractLink(target.LinkInfo),
		}
	}

	return rec
}

// extractPictures resolves each picture to its best available URL
func extractPictures(pictures []jike.Picture) []string {
	var urls []string
	for _, pic := range pictures {
		if u := pic.BestURL(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func extractLink(info *jike.LinkInfo) *Link {
	if info == nil {
		return nil
	}
	return &Link{Title: info.Title, URL: info.LinkURL}
}

// formatTimestamp renders an ISO timestamp as a readable local-style string,
// falling back to the raw value when it does not parse
func formatTimestamp(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("2006-01-02 15:04:05")
}
