package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"yatube/internal/media"
	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository"
)

// PostForm 创建/编辑帖子表单，GroupID 为 0 表示不选分组
type PostForm struct {
	Text    string        `form:"text" validate:"notblank"`
	GroupID uint64        `form:"group"`
	Image   *media.Upload `form:"-" validate:"-"`
}

type CommentForm struct {
	Text string `form:"text" validate:"notblank"`
}

// PostList 一页帖子
type PostList struct {
	Posts []model.Post
	Page  pkg.Page
}

type GroupPage struct {
	Group *model.Group
	PostList
}

type ProfilePage struct {
	Author     *model.User
	Followers  int64
	Followings int64
	Following  bool // 当前用户是否已关注
	IsSelf     bool
	PostList
}

type PostDetail struct {
	Post            *model.Post
	Comments        []model.Comment
	AuthorPostCount int64
	CanEdit         bool
}

type PostService struct {
	posts    repository.PostStore
	groups   repository.GroupStore
	users    repository.UserStore
	comments repository.CommentStore
	follows  repository.FollowStore
	media    media.Storage
	pageSize int
}

func NewPostService(stores repository.Set, storage media.Storage, pageSize int) *PostService {
	if pageSize <= 0 {
		pageSize = pkg.DefaultPageSize
	}
	return &PostService{
		posts:    stores.Posts,
		groups:   stores.Groups,
		users:    stores.Users,
		comments: stores.Comments,
		follows:  stores.Follows,
		media:    storage,
		pageSize: pageSize,
	}
}

// listPosts 先计数再按页取，页码规则见 pkg.NewPage
func listPosts(ctx context.Context, store repository.PostStore, q repository.PostQuery, rawPage string, size int) (PostList, error) {
	total, err := store.Count(ctx, q)
	if err != nil {
		return PostList{}, err
	}
	page := pkg.NewPage(rawPage, total, size)
	posts, err := store.List(ctx, q, page.Offset(), page.Limit())
	if err != nil {
		return PostList{}, err
	}
	return PostList{Posts: posts, Page: page}, nil
}

// Index 首页，全部帖子
func (s *PostService) Index(ctx context.Context, rawPage string) (*PostList, error) {
	list, err := listPosts(ctx, s.posts, repository.PostQuery{}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *PostService) GroupPosts(ctx context.Context, slug, rawPage string) (*GroupPage, error) {
	group, err := s.groups.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "group")
	}
	list, err := listPosts(ctx, s.posts, repository.PostQuery{GroupID: group.ID}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: group, PostList: list}, nil
}

// Profile 作者主页；viewer 为 nil 表示匿名
func (s *PostService) Profile(ctx context.Context, viewer *model.User, username, rawPage string) (*ProfilePage, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "author")
	}
	list, err := listPosts(ctx, s.posts, repository.PostQuery{AuthorID: author.ID}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	p := &ProfilePage{Author: author, PostList: list}
	if p.Followers, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if p.Followings, err = s.follows.CountFollowings(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewer != nil {
		p.IsSelf = viewer.ID == author.ID
		if !p.IsSelf {
			if p.Following, err = s.follows.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (s *PostService) Detail(ctx context.Context, viewer *model.User, id uint64) (*PostDetail, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post")
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostQuery{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:            post,
		Comments:        comments,
		AuthorPostCount: count,
		CanEdit:         viewer != nil && viewer.ID == post.AuthorID,
	}, nil
}

// resolveGroup 表单里的分组必须存在
func (s *PostService) resolveGroup(ctx context.Context, id uint64) (*uint64, error) {
	if id == 0 {
		return nil, nil
	}
	g, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("group", "Select an existing group.")
	}
	if err != nil {
		return nil, err
	}
	return &g.ID, nil
}

func (s *PostService) saveImage(ctx context.Context, postID uint64, up *media.Upload) (string, error) {
	ref, err := s.media.Save(ctx, postID, *up)
	switch {
	case errors.Is(err, media.ErrNotImage):
		return "", invalid("image", "Upload a valid image.")
	case errors.Is(err, media.ErrTooLarge):
		return "", invalid("image", "Image is too large.")
	}
	return ref, err
}

func (s *PostService) dropImage(ctx context.Context, ref string) {
	if ref == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, ref); err != nil {
		log.Printf("media delete %s err: %v", ref, err)
	}
}

// Create 新帖，作者为当前用户
func (s *PostService) Create(ctx context.Context, author *model.User, form PostForm) (*model.Post, error) {
	if author == nil {
		return nil, ErrAuthRequired
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}
	groupID, err := s.resolveGroup(ctx, form.GroupID)
	if err != nil {
		return nil, err
	}
	post := &model.Post{
		Text:     strings.TrimSpace(form.Text),
		AuthorID: author.ID,
		GroupID:  groupID,
	}
	if err = s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	if form.Image != nil && s.media != nil {
		ref, err := s.saveImage(ctx, post.ID, form.Image)
		if err != nil {
			// 图片不合法时整条帖子作废
			if derr := s.posts.Delete(ctx, post.ID); derr != nil {
				log.Printf("rollback post %d err: %v", post.ID, derr)
			}
			return nil, err
		}
		post.Image = ref
		if err = s.posts.Update(ctx, post); err != nil {
			return nil, err
		}
	}
	post.Author = *author
	return post, nil
}

// ForEdit 读取待编辑帖子，仅作者可编辑
func (s *PostService) ForEdit(ctx context.Context, viewer *model.User, id uint64) (*model.Post, error) {
	if viewer == nil {
		return nil, ErrAuthRequired
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post")
	}
	if post.AuthorID != viewer.ID {
		return nil, ErrNotOwner
	}
	return post, nil
}

// Edit 覆盖 text/group/image，created_at 与作者不变
func (s *PostService) Edit(ctx context.Context, viewer *model.User, id uint64, form PostForm) (*model.Post, error) {
	post, err := s.ForEdit(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err = validateForm(form); err != nil {
		return nil, err
	}
	groupID, err := s.resolveGroup(ctx, form.GroupID)
	if err != nil {
		return nil, err
	}

	oldImage := post.Image
	if form.Image != nil && s.media != nil {
		ref, err := s.saveImage(ctx, post.ID, form.Image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}
	post.Text = strings.TrimSpace(form.Text)
	post.GroupID = groupID
	if err = s.posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.dropImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.dropImage(ctx, oldImage)
	}
	return s.posts.FindByID(ctx, post.ID)
}

// Delete 删除帖子及其评论和图片
func (s *PostService) Delete(ctx context.Context, viewer *model.User, id uint64) error {
	post, err := s.ForEdit(ctx, viewer, id)
	if err != nil {
		return err
	}
	if err = s.posts.Delete(ctx, post.ID); err != nil {
		return notFound(err, "post")
	}
	s.dropImage(ctx, post.Image)
	return nil
}

// AddComment 评论作者总是当前用户
func (s *PostService) AddComment(ctx context.Context, viewer *model.User, postID uint64, form CommentForm) (*model.Comment, error) {
	if viewer == nil {
		return nil, ErrAuthRequired
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post")
	}
	if err = validateForm(form); err != nil {
		return nil, err
	}
	c := &model.Comment{
		PostID:   post.ID,
		AuthorID: viewer.ID,
		Text:     strings.TrimSpace(form.Text),
	}
	if err = s.comments.Create(ctx, c); err != nil {
		return nil, notFound(err, "post")
	}
	c.Author = *viewer
	return c, nil
}

// Groups 发帖表单的分组下拉
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}
