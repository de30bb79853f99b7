package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "jikecli/pkg/errors"
	"jikecli/pkg/logger"
)

// fakeFetcher serves canned bytes per URL and counts calls
type fakeFetcher struct {
	mu      sync.Mutex
	data    map[string][]byte
	errs    map[string]error
	calls   map[string]int
	failFor map[string]int // fail the first N calls for a URL
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:    make(map[string][]byte),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		failFor: make(map[string]int),
	}
}

func (f *fakeFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[url]++
	if f.failFor[url] >= f.calls[url] {
		return nil, errs.NewNetwork(errors.New("connection reset"))
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return f.data[url], nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// fakeStore keeps saved files in memory
type fakeStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (s *fakeStore) Has(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[filename]
	return ok
}

func (s *fakeStore) Save(r io.Reader, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[filename] = data
	return nil
}

func collectResults(pool *Pool) map[string]Result {
	results := make(map[string]Result)
	for result := range pool.Results() {
		results[result.Job.Filename] = result
	}
	return results
}

func TestPoolDownloadsAllJobs(t *testing.T) {
	fetcher := newFakeFetcher()
	store := newFakeStore()

	const jobs = 10
	for i := 0; i < jobs; i++ {
		fetcher.data[fmt.Sprintf("https://img.test/%d.jpg", i)] = []byte{byte(i), 0xFF}
	}

	pool := NewPool(3, fetcher, store, nil, logger.NewTestLogger())
	pool.Start()

	go func() {
		for i := 0; i < jobs; i++ {
			_ = pool.Submit(Job{
				URL:      fmt.Sprintf("https://img.test/%d.jpg", i),
				Filename: fmt.Sprintf("post_%04d_img_0.jpg", i+1),
			})
		}
		pool.Stop()
	}()

	results := collectResults(pool)

	require.Len(t, results, jobs)
	for filename, result := range results {
		assert.True(t, result.Success, "job %s failed: %v", filename, result.Error)
		assert.Equal(t, 2, result.Size)
		assert.True(t, store.Has(filename))
	}
}

func TestPoolSkipsAlreadyStoredFiles(t *testing.T) {
	fetcher := newFakeFetcher()
	store := newFakeStore()
	store.files["post_0001_img_0.jpg"] = []byte("existing")

	pool := NewPool(1, fetcher, store, nil, logger.NewTestLogger())
	pool.Start()

	go func() {
		_ = pool.Submit(Job{URL: "https://img.test/1.jpg", Filename: "post_0001_img_0.jpg"})
		pool.Stop()
	}()

	results := collectResults(pool)

	require.Len(t, results, 1)
	assert.True(t, results["post_0001_img_0.jpg"].Success)
	assert.Equal(t, 0, fetcher.callCount("https://img.test/1.jpg"), "existing file must not be refetched")
}

func TestPoolRetriesTransientFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["https://img.test/1.jpg"] = []byte("payload")
	fetcher.failFor["https://img.test/1.jpg"] = 2

	store := newFakeStore()

	pool := NewPool(1, fetcher, store, nil, logger.NewTestLogger())
	pool.Start()

	go func() {
		_ = pool.Submit(Job{URL: "https://img.test/1.jpg", Filename: "post_0001_img_0.jpg"})
		pool.Stop()
	}()

	results := collectResults(pool)

	require.Len(t, results, 1)
	assert.True(t, results["post_0001_img_0.jpg"].Success)
	assert.Equal(t, 3, fetcher.callCount("https://img.test/1.jpg"))
}

func TestPoolReportsPermanentFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs["https://img.test/1.jpg"] = errs.NewRemote(404, "/1.jpg")

	store := newFakeStore()

	pool := NewPool(1, fetcher, store, nil, logger.NewTestLogger())
	pool.Start()

	go func() {
		_ = pool.Submit(Job{URL: "https://img.test/1.jpg", Filename: "post_0001_img_0.jpg"})
		pool.Stop()
	}()

	results := collectResults(pool)

	require.Len(t, results, 1)
	result := results["post_0001_img_0.jpg"]
	assert.False(t, result.Success)
	require.Error(t, result.Error)
	assert.False(t, store.Has("post_0001_img_0.jpg"))

	// Remote errors are not retried
	assert.Equal(t, 1, fetcher.callCount("https://img.test/1.jpg"))
}

func TestPoolReportsSaveFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.data["https://img.test/1.jpg"] = []byte("payload")

	store := newFakeStore()
	store.saveErr = errors.New("disk full")

	pool := NewPool(1, fetcher, store, nil, logger.NewTestLogger())
	pool.Start()

	go func() {
		_ = pool.Submit(Job{URL: "https://img.test/1.jpg", Filename: "post_0001_img_0.jpg"})
		pool.Stop()
	}()

	results := collectResults(pool)

	result := results["post_0001_img_0.jpg"]
	assert.False(t, result.Success)
	assert.Contains(t, result.Error.Error(), "save failed")
}
