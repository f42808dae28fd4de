package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/model"
	"yatube/internal/repository"
)

type GroupForm struct {
	Title       string `form:"title" validate:"notblank,max=200"`
	Slug        string `form:"slug" validate:"required,max=50,slug"`
	Description string `form:"description"`
}

// GroupService 分组管理，仅管理员路由使用写操作
type GroupService struct {
	repo repository.GroupStore
}

func NewGroupService(repo repository.GroupStore) *GroupService {
	return &GroupService{repo: repo}
}

func (s *GroupService) CreateGroup(ctx context.Context, form GroupForm) (*model.Group, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	if err := validateForm(form); err != nil {
		return nil, err
	}
	group := &model.Group{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: strings.TrimSpace(form.Description),
	}
	if err := s.repo.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("slug", "A group with this slug already exists.")
		}
		return nil, err
	}
	return group, nil
}

func (s *GroupService) ListGroups(ctx context.Context) ([]model.Group, error) {
	return s.repo.List(ctx)
}

// DeleteGroup 分组下的帖子保留，group 置空
func (s *GroupService) DeleteGroup(ctx context.Context, slug string) error {
	group, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return notFound(err, "group")
	}
	return notFound(s.repo.Delete(ctx, group.ID), "group")
}
