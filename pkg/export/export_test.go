package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jikecli/pkg/jike"
	"jikecli/pkg/logger"
)

// fakeAPI serves a canned post history, newest first, split into pages
type fakeAPI struct {
	mu        sync.Mutex
	user      jike.User
	pages     map[string]*jike.ListPage
	downloads map[string][]byte
	fetched   []string
}

func (f *fakeAPI) Profile(ctx context.Context, username string) (*jike.ProfileResponse, error) {
	return &jike.ProfileResponse{User: f.user}, nil
}

func (f *fakeAPI) UserPosts(ctx context.Context, username string, limit int, cursor json.RawMessage) (*jike.ListPage, error) {
	page, ok := f.pages[string(cursor)]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", string(cursor))
	}
	return page, nil
}

func (f *fakeAPI) Download(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	data, ok := f.downloads[url]
	if !ok {
		return nil, fmt.Errorf("no such image: %s", url)
	}
	return data, nil
}

func rawPost(id, content string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":"%s","content":"%s","createdAt":"2024-03-15T08:30:00.000Z"}`, id, content))
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user: jike.User{Username: "alice", ScreenName: "Alice", Bio: "hello"},
		pages: map[string]*jike.ListPage{
			"": {
				Data:        []json.RawMessage{rawPost("p3", "newest"), rawPost("p2", "middle")},
				LoadMoreKey: json.RawMessage(`"k1"`),
			},
			`"k1"`: {
				Data: []json.RawMessage{rawPost("p1", "oldest")},
			},
		},
		downloads: make(map[string][]byte),
	}
}

func TestExporterRun(t *testing.T) {
	t.Run("writes the history oldest first", func(t *testing.T) {
		api := newFakeAPI()
		output := filepath.Join(t.TempDir(), "export.md")

		exporter := New(api, Options{OutputPath: output}, logger.NewTestLogger())
		require.NoError(t, exporter.Run(context.Background(), "alice"))

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		doc := string(data)

		assert.Contains(t, doc, "# Alice (@alice) - Jike Posts Export")
		assert.Contains(t, doc, "**Total posts**: 3")

		// Server order p3,p2,p1 becomes document order p1,p2,p3
		first := strings.Index(doc, "### 1.")
		require.NotEqual(t, -1, first)
		assert.Contains(t, doc[first:], "oldest")
		oldest := strings.Index(doc, "oldest")
		newest := strings.Index(doc, "newest")
		assert.Less(t, oldest, newest)
		assert.Contains(t, doc, "<sub>ID: p1</sub>")
	})

	t.Run("json dump lands next to the document", func(t *testing.T) {
		api := newFakeAPI()
		output := filepath.Join(t.TempDir(), "export.md")

		exporter := New(api, Options{OutputPath: output, JSONDump: true}, logger.NewTestLogger())
		require.NoError(t, exporter.Run(context.Background(), "alice"))

		data, err := os.ReadFile(filepath.Join(filepath.Dir(output), "export.json"))
		require.NoError(t, err)

		var records []json.RawMessage
		require.NoError(t, json.Unmarshal(data, &records))
		assert.Len(t, records, 3)

		// The dump is reversed alongside the rendered records
		var first struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(records[0], &first))
		assert.Equal(t, "p1", first.ID)
	})

	t.Run("downloads images and rewrites their links", func(t *testing.T) {
		api := newFakeAPI()
		api.pages[`"k1"`].Data = []json.RawMessage{json.RawMessage(
			`{"id":"p1","content":"oldest","pictures":[{"picUrl":"https://cdn.test/a.png"}]}`,
		)}
		api.downloads["https://cdn.test/a.png"] = []byte("png-bytes")

		dir := t.TempDir()
		output := filepath.Join(dir, "export.md")
		imagesDir := filepath.Join(dir, "alice_images")

		exporter := New(api, Options{
			OutputPath:     output,
			DownloadImages: true,
			ImagesDir:      imagesDir,
		}, logger.NewTestLogger())
		require.NoError(t, exporter.Run(context.Background(), "alice"))

		saved, err := os.ReadFile(filepath.Join(imagesDir, "post_0001_img_0.png"))
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(saved))

		doc, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(doc), "![img](alice_images/post_0001_img_0.png)")
		assert.NotContains(t, string(doc), "https://cdn.test/a.png")
	})

	t.Run("failed downloads keep the remote link", func(t *testing.T) {
		api := newFakeAPI()
		api.pages[`"k1"`].Data = []json.RawMessage{json.RawMessage(
			`{"id":"p1","content":"oldest","pictures":[{"picUrl":"https://cdn.test/missing.png"}]}`,
		)}

		dir := t.TempDir()
		output := filepath.Join(dir, "export.md")

		exporter := New(api, Options{
			OutputPath:     output,
			DownloadImages: true,
			ImagesDir:      filepath.Join(dir, "alice_images"),
		}, logger.NewTestLogger())
		require.NoError(t, exporter.Run(context.Background(), "alice"))

		doc, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(doc), "![img](https://cdn.test/missing.png)")
	})

	t.Run("no posts means no output file", func(t *testing.T) {
		api := newFakeAPI()
		api.pages[""] = &jike.ListPage{}

		output := filepath.Join(t.TempDir(), "export.md")
		exporter := New(api, Options{OutputPath: output}, logger.NewTestLogger())
		require.NoError(t, exporter.Run(context.Background(), "alice"))

		_, err := os.Stat(output)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestImageFilename(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		recordIndex int
		imageIndex  int
		want        string
	}{
		{"png extension", "https://cdn.test/photos/a.png", 3, 0, "post_0003_img_0.png"},
		{"extension with query", "https://cdn.test/a.jpeg?sign=abc", 12, 1, "post_0012_img_1.jpeg"},
		{"no extension defaults to jpg", "https://cdn.test/a", 1, 0, "post_0001_img_0.jpg"},
		{"repost offset", "https://cdn.test/b.gif", 7, 100, "post_0007_img_100.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imageFilename(tt.url, tt.recordIndex, tt.imageIndex))
		})
	}
}

func TestImageStore(t *testing.T) {
	t.Run("saves and indexes images", func(t *testing.T) {
		store, err := NewImageStore(filepath.Join(t.TempDir(), "images"))
		require.NoError(t, err)

		assert.False(t, store.Has("post_0001_img_0.jpg"))
		require.NoError(t, store.Save(strings.NewReader("bytes"), "post_0001_img_0.jpg"))
		assert.True(t, store.Has("post_0001_img_0.jpg"))
		assert.Equal(t, 1, store.Count())
	})

	t.Run("indexes files already on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "images")
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "post_0001_img_0.jpg"), []byte("old"), 0644))

		store, err := NewImageStore(dir)
		require.NoError(t, err)
		assert.True(t, store.Has("post_0001_img_0.jpg"))
	})

	t.Run("relative paths use the directory basename", func(t *testing.T) {
		store, err := NewImageStore(filepath.Join(t.TempDir(), "alice_images"))
		require.NoError(t, err)

		assert.Equal(t, "alice_images/post_0001_img_0.jpg", store.RelPath("post_0001_img_0.jpg"))
	})
}
