package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"jikecli/pkg/logger"
	"jikecli/pkg/ratelimit"
	"jikecli/pkg/retry"
)

// Job is a single image download task. Filename is the final name the image
// is stored under, already carrying the post and image indices.
type Job struct {
	URL      string
	Filename string
}

// Result is the outcome of one download job
type Result struct {
	Job      Job
	Success  bool
	Error    error
	Duration time.Duration
	Size     int
}

// Fetcher downloads raw bytes from a URL
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Store persists downloaded images and answers duplicate checks
type Store interface {
	Has(filename string) bool
	Save(r io.Reader, filename string) error
}

// Pool runs image downloads across a fixed set of workers
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     Fetcher
	store       Store
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewPool creates a download pool. rateLimiter may be nil when the caller
// does not need to gate download volume.
func NewPool(numWorkers int, fetcher Fetcher, store Store, rateLimiter ratelimit.Limiter, log logger.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		store:       store,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches all workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("starting download pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, waits for the workers to drain it, and closes
// the result queue
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Debug("download pool stopped")
}

// Submit adds a download job to the queue
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("download pool is shutting down")
	}
}

// Results returns the channel delivering download outcomes
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// processJob downloads one image, retrying transient failures, and stores it
func (p *Pool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if p.store.Has(job.Filename) {
		p.logger.DebugWithFields("image already downloaded", map[string]interface{}{
			"worker_id": workerID,
			"filename":  job.Filename,
		})
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	if p.rateLimiter != nil && !p.rateLimiter.Allow() {
		p.rateLimiter.Wait()
	}

	data, err := retry.DoWithResult(func() ([]byte, error) {
		return p.fetcher.Download(p.ctx, job.URL)
	}, &retry.Config{
		MaxAttempts: 3,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: p.ctx,
		Logger:  p.logger,
	})
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		p.logger.ErrorWithFields("image download failed", map[string]interface{}{
			"worker_id": workerID,
			"filename":  job.Filename,
			"error":     err.Error(),
		})

		return result
	}

	result.Size = len(data)

	if err := p.store.Save(bytes.NewReader(data), job.Filename); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		p.logger.ErrorWithFields("image save failed", map[string]interface{}{
			"worker_id": workerID,
			"filename":  job.Filename,
			"error":     err.Error(),
		})

		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	p.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"worker_id": workerID,
		"filename":  job.Filename,
		"size":      result.Size,
	})

	return result
}
