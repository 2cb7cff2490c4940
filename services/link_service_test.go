package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"minibackends/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLinkService(t *testing.T) *LinkService {
	return NewLinkService(setupTestDB(t), testLogger(), DefaultShortIDLength, DefaultMaxAttempts)
}

func countLinks(t *testing.T, s *LinkService, where string, args ...interface{}) int64 {
	var n int64
	require.NoError(t, s.db.Model(&models.ShortLink{}).Where(where, args...).Count(&n).Error)
	return n
}

func TestShorten(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a six character id", func(t *testing.T) {
		s := newTestLinkService(t)

		link, err := s.Shorten(ctx, "https://example.com", "")
		require.NoError(t, err)
		assert.Len(t, link.ShortID, 6)
		assert.Equal(t, "https://example.com", link.FullURL)
		assert.NotZero(t, link.ID)
	})

	t.Run("idempotent for the same target", func(t *testing.T) {
		s := newTestLinkService(t)

		first, err := s.Shorten(ctx, "https://example.com", "")
		require.NoError(t, err)
		second, err := s.Shorten(ctx, "https://example.com", "")
		require.NoError(t, err)

		assert.Equal(t, first.ShortID, second.ShortID)
		assert.Equal(t, int64(1), countLinks(t, s, "full_url = ?", "https://example.com"))
	})

	t.Run("existing target ignores prefix", func(t *testing.T) {
		s := newTestLinkService(t)

		first, err := s.Shorten(ctx, "https://example.com", "")
		require.NoError(t, err)
		second, err := s.Shorten(ctx, "https://example.com", "ab")
		require.NoError(t, err)
		assert.Equal(t, first.ShortID, second.ShortID)
	})

	t.Run("prefix is prepended", func(t *testing.T) {
		s := newTestLinkService(t)

		link, err := s.Shorten(ctx, "https://prefixed.example", "ab")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(link.ShortID, "ab"))
		assert.Len(t, link.ShortID, 8)
	})

	t.Run("ids are pairwise distinct", func(t *testing.T) {
		s := newTestLinkService(t)

		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			link, err := s.Shorten(ctx, fmt.Sprintf("https://example.com/%d", i), "")
			require.NoError(t, err)
			assert.False(t, seen[link.ShortID], "duplicate %s", link.ShortID)
			seen[link.ShortID] = true
		}
	})

	t.Run("collision retry", func(t *testing.T) {
		s := newTestLinkService(t)
		require.NoError(t, s.db.Create(&models.ShortLink{ShortID: "a1b2c3", FullURL: "https://a.example"}).Error)

		calls := 0
		s.idGenerator = func(int) string {
			calls++
			if calls < 3 {
				return "a1b2c3"
			}
			return "d4e5f6"
		}

		link, err := s.Shorten(ctx, "https://b.example", "")
		require.NoError(t, err)
		assert.Equal(t, "d4e5f6", link.ShortID)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted after max attempts", func(t *testing.T) {
		s := newTestLinkService(t)
		require.NoError(t, s.db.Create(&models.ShortLink{ShortID: "a1b2c3", FullURL: "https://a.example"}).Error)

		calls := 0
		s.idGenerator = func(int) string {
			calls++
			return "a1b2c3"
		}

		_, err := s.Shorten(ctx, "https://b.example", "")
		assert.ErrorIs(t, err, ErrGenerationExhausted)
		assert.Equal(t, DefaultMaxAttempts, calls)
		assert.Equal(t, int64(0), countLinks(t, s, "full_url = ?", "https://b.example"))
	})

	t.Run("same target inserted concurrently", func(t *testing.T) {
		s := newTestLinkService(t)

		calls := 0
		s.idGenerator = func(int) string {
			calls++
			if calls == 1 {
				// Another request stores the same target before our insert.
				require.NoError(t, s.db.Create(&models.ShortLink{ShortID: "winner", FullURL: "https://race.example"}).Error)
			}
			return fmt.Sprintf("loser%d", calls)
		}

		link, err := s.Shorten(ctx, "https://race.example", "")
		require.NoError(t, err)
		assert.Equal(t, "winner", link.ShortID)
		assert.Equal(t, 1, calls)
		assert.Equal(t, int64(1), countLinks(t, s, "full_url = ?", "https://race.example"))
	})

	t.Run("configurable bound", func(t *testing.T) {
		s := NewLinkService(setupTestDB(t), testLogger(), 6, 3)
		require.NoError(t, s.db.Create(&models.ShortLink{ShortID: "a1b2c3", FullURL: "https://a.example"}).Error)

		calls := 0
		s.idGenerator = func(int) string {
			calls++
			return "a1b2c3"
		}

		_, err := s.Shorten(ctx, "https://b.example", "")
		assert.ErrorIs(t, err, ErrGenerationExhausted)
		assert.Equal(t, 3, calls)
	})

	t.Run("generator receives configured length", func(t *testing.T) {
		s := NewLinkService(setupTestDB(t), testLogger(), 9, 10)

		link, err := s.Shorten(ctx, "https://long.example", "")
		require.NoError(t, err)
		assert.Len(t, link.ShortID, 9)
	})

	t.Run("store error is returned", func(t *testing.T) {
		s := newTestLinkService(t)
		require.NoError(t, s.db.Migrator().DropTable(&models.AccessEvent{}, &models.ShortLink{}))

		_, err := s.Shorten(ctx, "https://example.com", "")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrGenerationExhausted)
	})
}

func TestShorten_ConcurrentCollisions(t *testing.T) {
	s := newTestLinkService(t)

	// The first eight draws are identical, so all but one caller must retry.
	var mu sync.Mutex
	calls := 0
	s.idGenerator = func(int) string {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= 8 {
			return "same00"
		}
		return fmt.Sprintf("id%04d", calls)
	}

	const n = 8
	results := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link, err := s.Shorten(context.Background(), fmt.Sprintf("https://concurrent.example/%d", i), "")
			errs[i] = err
			if err == nil {
				results[i] = link.ShortID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[results[i]], "duplicate %s", results[i])
		seen[results[i]] = true
	}
	assert.Equal(t, int64(n), countLinks(t, s, "full_url LIKE ?", "https://concurrent.example/%"))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestLinkService(t)
	s.idGenerator = func(int) string { return "a1b2c3" }

	link, err := s.Shorten(ctx, "https://example.com", "")
	require.NoError(t, err)
	require.Equal(t, "a1b2c3", link.ShortID)

	again, err := s.Shorten(ctx, "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3", again.ShortID)

	resolved, err := s.Resolve(ctx, "a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", resolved.FullURL)

	_, err = s.Resolve(ctx, "zzzzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestLinkService(t)
	stats := NewStatsService(s.db, testLogger(), 10)

	link, err := s.Shorten(ctx, "https://example.com", "")
	require.NoError(t, err)
	other, err := s.Shorten(ctx, "https://other.example", "")
	require.NoError(t, err)

	require.NoError(t, stats.Record(ctx, models.AccessEvent{LinkID: link.ID, UserAgent: "curl/8.0", UserIP: "10.0.0.1"}))
	require.NoError(t, stats.Record(ctx, models.AccessEvent{LinkID: link.ID, UserAgent: "curl/8.1", UserIP: "10.0.0.2"}))
	require.NoError(t, stats.Record(ctx, models.AccessEvent{LinkID: other.ID, UserAgent: "curl/8.2", UserIP: "10.0.0.3"}))

	got, events, err := s.Stats(ctx, link.ShortID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	require.Len(t, events, 2)
	assert.Equal(t, link.ID, events[0].LinkID)
	assert.Equal(t, "10.0.0.1", events[0].UserIP)
	assert.Equal(t, "10.0.0.2", events[1].UserIP)

	t.Run("no events", func(t *testing.T) {
		fresh, err := s.Shorten(ctx, "https://fresh.example", "")
		require.NoError(t, err)
		_, events, err := s.Stats(ctx, fresh.ShortID)
		require.NoError(t, err)
		assert.NotNil(t, events)
		assert.Empty(t, events)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := s.Stats(ctx, "zzzzzz")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
