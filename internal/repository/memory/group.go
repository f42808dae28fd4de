package memory

import (
	"context"
	"sort"

	"yatube/internal/model"
	"yatube/internal/repository"
)

type GroupRepository struct {
	s *Store
}

func (r *GroupRepository) Create(_ context.Context, g *model.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.groups {
		if existing.Slug == g.Slug {
			return repository.ErrDuplicate
		}
	}
	g.ID = r.s.nextID("groups")
	cp := *g
	r.s.groups[g.ID] = &cp
	return nil
}

func (r *GroupRepository) FindByID(_ context.Context, id uint64) (*model.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *GroupRepository) FindBySlug(_ context.Context, slug string) (*model.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.groups {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *GroupRepository) List(_ context.Context) ([]model.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]model.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		list = append(list, *g)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Title != list[j].Title {
			return list[i].Title < list[j].Title
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *GroupRepository) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
		}
	}
	delete(r.s.groups, id)
	return nil
}

var _ repository.GroupStore = (*GroupRepository)(nil)
