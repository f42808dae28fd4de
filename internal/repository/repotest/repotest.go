// Package repotest is a behavioural suite every repository.Set implementation
// must pass. Entities get unique names so the suite can share one database.
package repotest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"yatube/internal/model"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seq atomic.Uint64

func unique(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano()%1e6, seq.Add(1))
}

func newUser(t *testing.T, s repository.Set) *model.User {
	t.Helper()
	u := &model.User{Username: unique("user"), Password: "hash"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func newGroup(t *testing.T, s repository.Set) *model.Group {
	t.Helper()
	g := &model.Group{Title: unique("Group"), Slug: unique("slug")}
	require.NoError(t, s.Groups.Create(context.Background(), g))
	require.NotZero(t, g.ID)
	return g
}

// newPosts 时间逐条递增，返回值按创建顺序（最旧在前）
func newPosts(t *testing.T, s repository.Set, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		p := &model.Post{
			Text:      fmt.Sprintf("post %d", i),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			id := group.ID
			p.GroupID = &id
		}
		require.NoError(t, s.Posts.Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}

// Run 对 stores 执行全部用例
func Run(t *testing.T, s repository.Set) {
	t.Run("users", func(t *testing.T) { testUsers(t, s) })
	t.Run("groups", func(t *testing.T) { testGroups(t, s) })
	t.Run("posts", func(t *testing.T) { testPosts(t, s) })
	t.Run("comments", func(t *testing.T) { testComments(t, s) })
	t.Run("follows", func(t *testing.T) { testFollows(t, s) })
}

func testUsers(t *testing.T, s repository.Set) {
	ctx := context.Background()
	u := newUser(t, s)

	err := s.Users.Create(ctx, &model.User{Username: u.Username, Password: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.Users.FindByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users.FindByID(ctx, 1<<40)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Users.FindByUsername(ctx, unique("ghost"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Users.UpdateRole(ctx, u.ID, model.RoleAdmin))
	got, err = s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	// 相同值再写一次也不报错
	require.NoError(t, s.Users.UpdateRole(ctx, u.ID, model.RoleAdmin))
	assert.ErrorIs(t, s.Users.UpdateRole(ctx, 1<<40, model.RoleAdmin), repository.ErrNotFound)
}

func testGroups(t *testing.T, s repository.Set) {
	ctx := context.Background()
	g := newGroup(t, s)

	err := s.Groups.Create(ctx, &model.Group{Title: "dup", Slug: g.Slug})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.Groups.FindBySlug(ctx, g.Slug)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	got, err = s.Groups.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Slug, got.Slug)
	_, err = s.Groups.FindBySlug(ctx, unique("none"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := s.Groups.List(ctx)
	require.NoError(t, err)
	found := false
	for _, item := range list {
		found = found || item.ID == g.ID
	}
	assert.True(t, found)

	// 删除分组后帖子保留，group 置空
	author := newUser(t, s)
	posts := newPosts(t, s, author, g, 2)
	require.NoError(t, s.Groups.Delete(ctx, g.ID))
	p, err := s.Posts.FindByID(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Nil(t, p.GroupID)
	assert.Nil(t, p.Group)
	assert.ErrorIs(t, s.Groups.Delete(ctx, g.ID), repository.ErrNotFound)
}

func testPosts(t *testing.T, s repository.Set) {
	ctx := context.Background()
	author := newUser(t, s)
	g := newGroup(t, s)
	posts := newPosts(t, s, author, g, 14)
	q := repository.PostQuery{GroupID: g.ID}

	n, err := s.Posts.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)

	first, err := s.Posts.List(ctx, q, 0, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, posts[13].ID, first[0].ID, "newest first")
	assert.Equal(t, author.Username, first[0].Author.Username, "author preloaded")
	require.NotNil(t, first[0].Group)
	assert.Equal(t, g.Slug, first[0].Group.Slug, "group preloaded")

	second, err := s.Posts.List(ctx, q, 10, 10)
	require.NoError(t, err)
	require.Len(t, second, 4)
	assert.Equal(t, posts[0].ID, second[3].ID)

	byAuthor, err := s.Posts.Count(ctx, repository.PostQuery{AuthorID: author.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(14), byAuthor)

	// 更新不改变 created_at 和作者
	target := posts[5]
	before, err := s.Posts.FindByID(ctx, target.ID)
	require.NoError(t, err)
	edit := *before
	edit.Text = "edited"
	edit.GroupID = nil
	edit.AuthorID = 1 << 40
	edit.CreatedAt = time.Now()
	require.NoError(t, s.Posts.Update(ctx, &edit))
	require.NoError(t, s.Posts.Update(ctx, &edit), "identical update")
	after, err := s.Posts.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", after.Text)
	assert.Nil(t, after.GroupID)
	assert.Equal(t, author.ID, after.AuthorID)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	missing := model.Post{ID: 1 << 40, Text: "x"}
	assert.ErrorIs(t, s.Posts.Update(ctx, &missing), repository.ErrNotFound)
	_, err = s.Posts.FindByID(ctx, 1<<40)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// 删除帖子级联删除评论
	c := &model.Comment{PostID: target.ID, AuthorID: author.ID, Text: "bye"}
	require.NoError(t, s.Comments.Create(ctx, c))
	require.NoError(t, s.Posts.Delete(ctx, target.ID))
	comments, err := s.Comments.ListByPost(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.ErrorIs(t, s.Posts.Delete(ctx, target.ID), repository.ErrNotFound)
}

func testComments(t *testing.T, s repository.Set) {
	ctx := context.Background()
	author := newUser(t, s)
	reader := newUser(t, s)
	posts := newPosts(t, s, author, nil, 2)
	base := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	for i, text := range []string{"one", "two", "three"} {
		c := &model.Comment{
			PostID:    posts[0].ID,
			AuthorID:  reader.ID,
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.Comments.Create(ctx, c))
	}
	require.NoError(t, s.Comments.Create(ctx, &model.Comment{PostID: posts[1].ID, AuthorID: reader.ID, Text: "other"}))

	list, err := s.Comments.ListByPost(ctx, posts[0].ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "one", list[0].Text)
	assert.Equal(t, "three", list[2].Text)
	assert.Equal(t, reader.Username, list[0].Author.Username)

	err = s.Comments.Create(ctx, &model.Comment{PostID: 1 << 40, AuthorID: reader.ID, Text: "lost"})
	assert.Error(t, err)
}

func testFollows(t *testing.T, s repository.Set) {
	ctx := context.Background()
	author := newUser(t, s)
	fan := newUser(t, s)
	stranger := newUser(t, s)
	newPosts(t, s, author, nil, 3)
	newPosts(t, s, stranger, nil, 1)

	changed, err := s.Follows.Follow(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Follows.Follow(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, changed, "duplicate follow is a no-op")

	ok, err := s.Follows.IsFollowing(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Follows.IsFollowing(ctx, author.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	followers, err := s.Follows.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	followings, err := s.Follows.CountFollowings(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followings)

	feedQ := repository.PostQuery{FollowerID: fan.ID}
	n, err := s.Posts.Count(ctx, feedQ)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	feed, err := s.Posts.List(ctx, feedQ, 0, 10)
	require.NoError(t, err)
	for _, p := range feed {
		assert.Equal(t, author.ID, p.AuthorID)
	}

	changed, err = s.Follows.Unfollow(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Follows.Unfollow(ctx, fan.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	n, err = s.Posts.Count(ctx, feedQ)
	require.NoError(t, err)
	assert.Zero(t, n)
}
