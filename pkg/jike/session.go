package jike

import (
	"context"
	"sync"

	"jikecli/pkg/auth"
	"jikecli/pkg/errors"
)

// Refresher exchanges a refresh token for a new credential pair
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
}

// Session is the mutable slot holding the current credential pair. Pairs
// themselves are immutable values; a refresh swaps the slot's contents
// atomically so every subsequent reader sees the new pair.
type Session struct {
	mu     sync.Mutex
	tokens auth.TokenPair
}

// NewSession creates a session seeded with the given pair
func NewSession(tokens auth.TokenPair) *Session {
	return &Session{tokens: tokens}
}

// Tokens returns a snapshot of the current credential pair
func (s *Session) Tokens() auth.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Set replaces the slot's contents unconditionally
func (s *Session) Set(tokens auth.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

// Rotate refreshes the credential pair, but only if the slot still holds
// stale. When several callers observe the same 401 concurrently, the first
// one performs the refresh and the rest reuse its result instead of burning
// additional refresh calls.
func (s *Session) Rotate(ctx context.Context, stale auth.TokenPair, r Refresher) (auth.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens != stale {
		// Someone else already rotated the slot
		return s.tokens, nil
	}

	if s.tokens.RefreshToken == "" {
		return auth.TokenPair{}, errors.NewAuthExpired("no refresh token available; run the QR login again")
	}

	fresh, err := r.Refresh(ctx, s.tokens.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}

	s.tokens = fresh
	return fresh, nil
}
