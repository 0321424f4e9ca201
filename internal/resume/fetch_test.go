package resume

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type fakeFetcher struct {
	mu      sync.Mutex
	delay   map[string]time.Duration
	fail    map[string]error
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeFetcher) GetTemplate(ctx context.Context, slug, username string) (*Document, error) {
	n := f.active.Inc()
	defer f.active.Dec()
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	d, err := f.delay[username], f.fail[username]
	f.mu.Unlock()

	select {
	case <-time.After(d):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &Document{Dashboard: Dashboard{Username: username}, Template: Template{Slug: slug}}, nil
}

func TestFetchAllKeepsOrder(t *testing.T) {
	f := &fakeFetcher{delay: map[string]time.Duration{
		"a": 30 * time.Millisecond,
		"b": 1 * time.Millisecond,
		"c": 10 * time.Millisecond,
	}}
	docs, err := FetchAll(context.Background(), f, "classic", []string{"a", "b", "c"}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, docs[i].Dashboard.Username)
		assert.Equal(t, "classic", docs[i].Template.Slug)
	}
}

func TestFetchAllRespectsLimit(t *testing.T) {
	f := &fakeFetcher{delay: map[string]time.Duration{}}
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	for _, u := range users {
		f.delay[u] = 20 * time.Millisecond
	}
	_, err := FetchAll(context.Background(), f, "classic", users, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(2))
}

func TestFetchAllFirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{
		delay: map[string]time.Duration{"slow": time.Second},
		fail:  map[string]error{"bad": boom},
	}
	start := time.Now()
	_, err := FetchAll(context.Background(), f, "classic", []string{"slow", "bad"}, 2)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "classic/bad")
	assert.Less(t, time.Since(start), 900*time.Millisecond, "remaining fetches are cancelled")
}
