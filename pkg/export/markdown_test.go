package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jikecli/pkg/jike"
)

func TestRenderDocumentHeader(t *testing.T) {
	user := jike.User{Username: "alice", ScreenName: "Alice", Bio: "hello"}
	exportedAt := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	doc := renderDocument([]Record{{Index: 1, ID: "p1", Type: "ORIGINAL_POST"}}, user, exportedAt)

	assert.True(t, strings.HasPrefix(doc, "# Alice (@alice) - Jike Posts Export\n\n"))
	assert.Contains(t, doc, "**Bio**: hello\n")
	assert.Contains(t, doc, "**Total posts**: 1\n")
	assert.Contains(t, doc, "**Exported at**: 2024-03-15 10:00:00\n")
}

func TestRenderRecord(t *testing.T) {
	t.Run("full original post", func(t *testing.T) {
		rec := Record{
			Index:     3,
			ID:        "p3",
			Type:      "ORIGINAL_POST",
			Timestamp: "2024-03-15 08:30:00",
			Content:   "a thought",
			Topic:     "daily",
			Pictures:  []string{"alice_images/post_0003_img_0.jpg"},
			Link:      &Link{Title: "An article", URL: "https://example.com/a"},
		}

		out := renderRecord(rec)

		assert.Contains(t, out, "### 3. 2024-03-15 08:30:00\n")
		assert.Contains(t, out, "> Topic: **daily**\n")
		assert.Contains(t, out, "a thought\n")
		assert.Contains(t, out, "![img](alice_images/post_0003_img_0.jpg)\n")
		assert.Contains(t, out, "[An article](https://example.com/a)\n")
		assert.Contains(t, out, "<sub>ID: p3</sub>\n")
		assert.True(t, strings.HasSuffix(out, "---\n\n"), "records end with a rule")

		assert.NotContains(t, out, "Repost from")
	})

	t.Run("repost quotes the original", func(t *testing.T) {
		rec := Record{
			Index:     1,
			ID:        "p1",
			Type:      "REPOST",
			Timestamp: "2024-03-15 08:30:00",
			Content:   "worth reading",
			Repost: &Repost{
				Author:   "Bob",
				Content:  "line one\nline two",
				Pictures: []string{"https://cdn.test/mid.jpg"},
				Link:     &Link{URL: "https://example.com/b"},
			},
		}

		out := renderRecord(rec)

		assert.Contains(t, out, "*Repost from @Bob*\n")
		assert.Contains(t, out, "> **@Bob**:\n")
		assert.Contains(t, out, "> line one\n> line two\n")
		assert.Contains(t, out, "> ![img](https://cdn.test/mid.jpg)\n")

		// A link without a title uses the URL as its text
		assert.Contains(t, out, "> [https://example.com/b](https://example.com/b)\n")
	})

	t.Run("empty sections leave no trace", func(t *testing.T) {
		rec := Record{Index: 1, ID: "p1", Type: "ORIGINAL_POST", Timestamp: "2024-03-15 08:30:00"}

		out := renderRecord(rec)

		assert.NotContains(t, out, "Topic:")
		assert.NotContains(t, out, "![img]")
		assert.NotContains(t, out, "> ")
	})
}
