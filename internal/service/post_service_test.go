package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yatube/internal/media"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tinyGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02,
	0x44, 0x01, 0x00, 0x3b,
}

func TestIndexPagination(t *testing.T) {
	stores := newStores()
	author := mustUser(t, stores, "leo")
	posts := mustPosts(t, stores, author, nil, 13)
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()

	first, err := svc.Index(ctx, "")
	require.NoError(t, err)
	assert.Len(t, first.Posts, 10)
	assert.Equal(t, 2, first.Page.NumPages)
	assert.Equal(t, posts[12].ID, first.Posts[0].ID, "newest first")

	second, err := svc.Index(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, second.Posts, 3)

	// 越界与非法页码
	last, err := svc.Index(ctx, "99")
	require.NoError(t, err)
	assert.Equal(t, 2, last.Page.Number)
	bad, err := svc.Index(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, bad.Page.Number)

	// 两页拼起来恰好是全部帖子，无重复
	seen := map[uint64]bool{}
	for _, p := range append(first.Posts, second.Posts...) {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
	assert.Len(t, seen, 13)
}

func TestIndexEmpty(t *testing.T) {
	svc := NewPostService(newStores(), nil, 10)
	list, err := svc.Index(context.Background(), "5")
	require.NoError(t, err)
	assert.Empty(t, list.Posts)
	assert.Equal(t, 1, list.Page.NumPages)
	assert.Equal(t, 1, list.Page.Number)
}

func TestGroupPostsFilter(t *testing.T) {
	stores := newStores()
	author := mustUser(t, stores, "leo")
	cats := mustGroup(t, stores, "cats")
	dogs := mustGroup(t, stores, "dogs")
	mustPosts(t, stores, author, cats, 14)
	mustPosts(t, stores, author, dogs, 2)
	mustPosts(t, stores, author, nil, 1)
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()

	page1, err := svc.GroupPosts(ctx, "cats", "")
	require.NoError(t, err)
	assert.Equal(t, "cats", page1.Group.Slug)
	assert.Len(t, page1.Posts, 10)
	page2, err := svc.GroupPosts(ctx, "cats", "2")
	require.NoError(t, err)
	assert.Len(t, page2.Posts, 4)
	for _, p := range append(page1.Posts, page2.Posts...) {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, cats.ID, *p.GroupID)
	}

	_, err = svc.GroupPosts(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfile(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	ann := mustUser(t, stores, "ann")
	mustPosts(t, stores, leo, nil, 3)
	mustPosts(t, stores, ann, nil, 2)
	ctx := context.Background()
	_, err := stores.Follows.Follow(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	svc := NewPostService(stores, nil, 10)

	p, err := svc.Profile(ctx, ann, "leo", "")
	require.NoError(t, err)
	assert.Len(t, p.Posts, 3)
	assert.Equal(t, int64(3), p.Page.Total)
	assert.Equal(t, int64(1), p.Followers)
	assert.Equal(t, int64(0), p.Followings)
	assert.True(t, p.Following)
	assert.False(t, p.IsSelf)
	for _, post := range p.Posts {
		assert.Equal(t, leo.ID, post.AuthorID)
	}

	anon, err := svc.Profile(ctx, nil, "leo", "")
	require.NoError(t, err)
	assert.False(t, anon.Following)

	self, err := svc.Profile(ctx, leo, "leo", "")
	require.NoError(t, err)
	assert.True(t, self.IsSelf)

	_, err = svc.Profile(ctx, nil, "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDetailShowsOnlyOwnComments(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	posts := mustPosts(t, stores, leo, nil, 2)
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, leo, posts[0].ID, CommentForm{Text: "first"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, leo, posts[0].ID, CommentForm{Text: "second"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, leo, posts[1].ID, CommentForm{Text: "other"})
	require.NoError(t, err)

	d, err := svc.Detail(ctx, nil, posts[0].ID)
	require.NoError(t, err)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, "first", d.Comments[0].Text)
	assert.Equal(t, "second", d.Comments[1].Text)
	assert.Equal(t, int64(2), d.AuthorPostCount)
	assert.False(t, d.CanEdit)

	own, err := svc.Detail(ctx, leo, posts[0].ID)
	require.NoError(t, err)
	assert.True(t, own.CanEdit)

	_, err = svc.Detail(ctx, nil, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePost(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	cats := mustGroup(t, stores, "cats")
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()

	post, err := svc.Create(ctx, leo, PostForm{Text: "  hello  ", GroupID: cats.ID})
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, leo.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, cats.ID, *post.GroupID)

	tests := []struct {
		name  string
		form  PostForm
		field string
	}{
		{"blank text", PostForm{Text: "   "}, "text"},
		{"unknown group", PostForm{Text: "ok", GroupID: 999}, "group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, leo, tt.form)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err = svc.Create(ctx, nil, PostForm{Text: "x"})
	assert.ErrorIs(t, err, ErrAuthRequired)

	n, err := stores.Posts.Count(ctx, repository.PostQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreatePostWithImage(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	root := t.TempDir()
	svc := NewPostService(stores, media.NewLocalStorage(root, "/media/", 1<<20), 10)
	ctx := context.Background()

	post, err := svc.Create(ctx, leo, PostForm{
		Text:  "with image",
		Image: &media.Upload{Name: "a.gif", Body: bytes.NewReader(tinyGIF)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, post.Image)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(post.Image)))
	require.NoError(t, err)

	// 不是图片：校验失败且帖子不保留
	_, err = svc.Create(ctx, leo, PostForm{
		Text:  "bad image",
		Image: &media.Upload{Name: "a.gif", Body: strings.NewReader("not an image")},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "image", verr.Field)
	n, err := stores.Posts.Count(ctx, repository.PostQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 删除帖子同时删除图片
	require.NoError(t, svc.Delete(ctx, leo, post.ID))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(post.Image)))
	assert.True(t, os.IsNotExist(err))
}

func TestEditOwnership(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	ann := mustUser(t, stores, "ann")
	posts := mustPosts(t, stores, leo, nil, 1)
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()
	before, err := stores.Posts.FindByID(ctx, posts[0].ID)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, ann, posts[0].ID, PostForm{Text: "hijacked"})
	assert.ErrorIs(t, err, ErrNotOwner)
	err = svc.Delete(ctx, ann, posts[0].ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	after, err := stores.Posts.FindByID(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, before.Text, after.Text)

	edited, err := svc.Edit(ctx, leo, posts[0].ID, PostForm{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Text)
	assert.True(t, before.CreatedAt.Equal(edited.CreatedAt), "created_at is immutable")

	// 相同内容再次提交只是覆盖
	again, err := svc.Edit(ctx, leo, posts[0].ID, PostForm{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, edited.ID, again.ID)
	n, err := stores.Posts.Count(ctx, repository.PostQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.Edit(ctx, nil, posts[0].ID, PostForm{Text: "x"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = svc.Edit(ctx, leo, 999, PostForm{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesComments(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	posts := mustPosts(t, stores, leo, nil, 1)
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()
	_, err := svc.AddComment(ctx, leo, posts[0].ID, CommentForm{Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, leo, posts[0].ID))
	_, err = svc.Detail(ctx, nil, posts[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	comments, err := stores.Comments.ListByPost(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddComment(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	ann := mustUser(t, stores, "ann")
	posts := mustPosts(t, stores, leo, nil, 1)
	svc := NewPostService(stores, nil, 10)
	ctx := context.Background()

	c, err := svc.AddComment(ctx, ann, posts[0].ID, CommentForm{Text: "nice"})
	require.NoError(t, err)
	assert.Equal(t, ann.ID, c.AuthorID)
	assert.Equal(t, "ann", c.Author.Username)

	_, err = svc.AddComment(ctx, ann, posts[0].ID, CommentForm{Text: " "})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.AddComment(ctx, nil, posts[0].ID, CommentForm{Text: "anon"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = svc.AddComment(ctx, ann, 404, CommentForm{Text: "lost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletedGroupKeepsPosts(t *testing.T) {
	stores := newStores()
	leo := mustUser(t, stores, "leo")
	cats := mustGroup(t, stores, "cats")
	posts := mustPosts(t, stores, leo, cats, 2)
	groups := NewGroupService(stores.Groups)
	ctx := context.Background()

	require.NoError(t, groups.DeleteGroup(ctx, "cats"))
	p, err := stores.Posts.FindByID(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Nil(t, p.GroupID)
	assert.Nil(t, p.Group)
}
