package service

import (
	"context"
	"testing"
	"time"

	"yatube/internal/model"
	"yatube/internal/repository"
	"yatube/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

func newStores() repository.Set {
	return memory.New().Set()
}

func mustUser(t *testing.T, stores repository.Set, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Password: "x"}
	require.NoError(t, stores.Users.Create(context.Background(), u))
	return u
}

func mustGroup(t *testing.T, stores repository.Set, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, stores.Groups.Create(context.Background(), g))
	return g
}

// mustPosts 依次创建 n 条帖子，时间递增，最后一条最新
func mustPosts(t *testing.T, stores repository.Set, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		p := &model.Post{
			Text:      "post text",
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			id := group.ID
			p.GroupID = &id
		}
		require.NoError(t, stores.Posts.Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}
