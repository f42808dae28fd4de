package memory

import (
	"context"
	"sort"

	"yatube/internal/model"
	"yatube/internal/repository"
)

type CommentRepository struct {
	s *Store
}

func (r *CommentRepository) Create(_ context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[c.PostID]; !ok {
		return repository.ErrNotFound
	}
	c.ID = r.s.nextID("comments")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	r.s.comments[c.ID] = &model.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	return nil
}

func (r *CommentRepository) ListByPost(_ context.Context, postID uint64) ([]model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []model.Comment{}
	for _, c := range r.s.comments {
		if c.PostID != postID {
			continue
		}
		cp := *c
		if u, ok := r.s.users[c.AuthorID]; ok {
			cp.Author = *u
		}
		list = append(list, cp)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

var _ repository.CommentStore = (*CommentRepository)(nil)
