package jike

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jikecli/pkg/auth"
	"jikecli/pkg/errors"
)

func TestSessionTokensSnapshot(t *testing.T) {
	pair := auth.TokenPair{AccessToken: "a", RefreshToken: "r"}
	session := NewSession(pair)

	snapshot := session.Tokens()
	assert.Equal(t, pair, snapshot)

	// Replacing the slot never mutates a previously taken snapshot
	session.Set(auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"})
	assert.Equal(t, "a", snapshot.AccessToken)
	assert.Equal(t, "a2", session.Tokens().AccessToken)
}

func TestSessionRotate(t *testing.T) {
	stale := auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}
	fresh := auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}

	t.Run("rotates when slot holds the stale pair", func(t *testing.T) {
		session := NewSession(stale)
		refresher := &mockRefresher{pair: fresh}

		got, err := session.Rotate(context.Background(), stale, refresher)
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
		assert.Equal(t, fresh, session.Tokens())
		assert.Equal(t, 1, refresher.callCount())
	})

	t.Run("reuses the winner's pair when slot already rotated", func(t *testing.T) {
		session := NewSession(fresh)
		refresher := &mockRefresher{pair: auth.TokenPair{AccessToken: "a3"}}

		got, err := session.Rotate(context.Background(), stale, refresher)
		require.NoError(t, err)
		assert.Equal(t, fresh, got)
		assert.Equal(t, 0, refresher.callCount(), "no refresh when the slot moved on")
	})

	t.Run("fails without a refresh token", func(t *testing.T) {
		empty := auth.TokenPair{AccessToken: "a1"}
		session := NewSession(empty)

		_, err := session.Rotate(context.Background(), empty, &mockRefresher{})
		require.Error(t, err)
		assert.True(t, errors.IsAuthExpired(err))
	})
}

func TestSessionRotateSingleFlight(t *testing.T) {
	stale := auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}
	fresh := auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}

	session := NewSession(stale)
	refresher := &mockRefresher{pair: fresh}

	const concurrency = 16
	var wg sync.WaitGroup
	results := make([]auth.TokenPair, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := session.Rotate(context.Background(), stale, refresher)
			require.NoError(t, err)
			results[i] = pair
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, refresher.callCount(), "concurrent 401 observers share one refresh")
	for _, pair := range results {
		assert.Equal(t, fresh, pair)
	}
}
