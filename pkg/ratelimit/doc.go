// Package ratelimit provides rate limiting for outbound Jike API traffic.
//
// Two implementations cover the client's needs:
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Gates the raw request volume the client sends to the API
//
// Pacer:
//   - Enforces a minimum interval between consecutive calls
//   - Spaces out page fetches during history exports; the first call
//     never blocks
//
// Both implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Sliding window: 60 requests per minute
//	limiter := ratelimit.NewSlidingWindow(60, time.Minute)
//	limiter.Wait()
//
//	// Pacer: at least 500ms between page fetches
//	pacer := ratelimit.NewPacer(500 * time.Millisecond)
//	pacer.Wait()
package ratelimit
