package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jikecli/pkg/jike"
)

func TestNewRecord(t *testing.T) {
	t.Run("flattens a plain post", func(t *testing.T) {
		post := &jike.Post{
			ID:        "p1",
			Content:   "hello world",
			CreatedAt: "2024-03-15T08:30:00.000Z",
			Topic:     &jike.Topic{Content: "daily"},
			Pictures: []jike.Picture{
				{PicURL: "https://cdn.test/full.jpg", ThumbnailURL: "https://cdn.test/thumb.jpg"},
				{ThumbnailURL: "https://cdn.test/thumb2.png"},
			},
			LinkInfo: &jike.LinkInfo{Title: "An article", LinkURL: "https://example.com/a"},
		}

		rec := NewRecord(post)

		assert.Equal(t, "p1", rec.ID)
		assert.Equal(t, "ORIGINAL_POST", rec.Type, "missing type defaults to original post")
		assert.Equal(t, "2024-03-15 08:30:00", rec.Timestamp)
		assert.Equal(t, "hello world", rec.Content)
		assert.Equal(t, "daily", rec.Topic)

		// Highest resolution wins
		assert.Equal(t, []string{"https://cdn.test/full.jpg", "https://cdn.test/thumb2.png"}, rec.Pictures)

		require.NotNil(t, rec.Link)
		assert.Equal(t, "An article", rec.Link.Title)
		assert.Nil(t, rec.Repost)
	})

	t.Run("flattens a repost with its quoted post", func(t *testing.T) {
		post := &jike.Post{
			ID:      "p2",
			Type:    "REPOST",
			Content: "check this out",
			Target: &jike.Post{
				Content:  "the original take",
				User:     &jike.User{Username: "bob", ScreenName: "Bob"},
				Pictures: []jike.Picture{{MiddlePicURL: "https://cdn.test/mid.jpg"}},
			},
		}

		rec := NewRecord(post)

		require.NotNil(t, rec.Repost)
		assert.Equal(t, "Bob", rec.Repost.Author)
		assert.Equal(t, "the original take", rec.Repost.Content)
		assert.Equal(t, []string{"https://cdn.test/mid.jpg"}, rec.Repost.Pictures)
	})

	t.Run("unknown author falls back", func(t *testing.T) {
		post := &jike.Post{
			ID:     "p3",
			Type:   "REPOST",
			Target: &jike.Post{Content: "orphaned"},
		}

		rec := NewRecord(post)
		require.NotNil(t, rec.Repost)
		assert.Equal(t, "unknown", rec.Repost.Author)
	})
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"rfc3339 with millis", "2024-03-15T08:30:45.123Z", "2024-03-15 08:30:45"},
		{"rfc3339 with offset", "2024-03-15T16:30:45+08:00", "2024-03-15 16:30:45"},
		{"unparseable stays raw", "yesterday", "yesterday"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimestamp(tt.input))
		})
	}
}
