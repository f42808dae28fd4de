package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"yatube/internal/model"
	"yatube/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	repotest.Run(t, New().Set())
}

func TestConcurrentFollowCreatesOneEdge(t *testing.T) {
	s := New().Set()
	ctx := context.Background()
	author := &model.User{Username: "leo"}
	fan := &model.User{Username: "ann"}
	require.NoError(t, s.Users.Create(ctx, author))
	require.NoError(t, s.Users.Create(ctx, fan))

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := s.Follows.Follow(ctx, fan.ID, author.ID)
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	n, err := s.Follows.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPageCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewPageCacheWithClock(func() time.Time { return now })
	ctx := context.Background()

	body := []byte("<html>v1</html>")
	require.NoError(t, c.Set(ctx, "index", body, 20*time.Second))
	body[0] = 'X' // 缓存保存的是副本

	got, ok, err := c.Get(ctx, "index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<html>v1</html>", string(got))

	now = now.Add(19 * time.Second)
	_, ok, _ = c.Get(ctx, "index")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx, "index")
	assert.False(t, ok)
	assert.Zero(t, c.Len())

	require.NoError(t, c.Set(ctx, "a", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("b"), time.Minute))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestSessionRepository(t *testing.T) {
	r := NewSessionRepository()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, 1, "tok", time.Minute))
	tok, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	now = now.Add(50 * time.Second)
	require.NoError(t, r.Extend(ctx, 1, time.Minute))
	now = now.Add(50 * time.Second)
	_, err = r.Get(ctx, 1)
	assert.NoError(t, err, "extended")

	now = now.Add(time.Minute)
	_, err = r.Get(ctx, 1)
	assert.Error(t, err)

	require.NoError(t, r.Save(ctx, 2, "tok2", time.Minute))
	require.NoError(t, r.Delete(ctx, 2))
	_, err = r.Get(ctx, 2)
	assert.Error(t, err)
}
