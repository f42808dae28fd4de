package memory

import (
	"context"
	"sort"

	"yatube/internal/model"
	"yatube/internal/repository"
)

type PostRepository struct {
	s *Store
}

func copyGroupID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func (r *PostRepository) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[post.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	post.ID = r.s.nextID("posts")
	if post.CreatedAt.IsZero() {
		post.CreatedAt = r.s.now()
	}
	r.s.posts[post.ID] = &model.Post{
		ID:        post.ID,
		Text:      post.Text,
		CreatedAt: post.CreatedAt,
		AuthorID:  post.AuthorID,
		GroupID:   copyGroupID(post.GroupID),
		Image:     post.Image,
	}
	return nil
}

func (r *PostRepository) FindByID(_ context.Context, id uint64) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := r.s.withRelations(*p)
	cp.GroupID = copyGroupID(p.GroupID)
	return &cp, nil
}

func (r *PostRepository) Update(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Text = post.Text
	p.GroupID = copyGroupID(post.GroupID)
	p.Image = post.Image
	return nil
}

func (r *PostRepository) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range r.s.comments {
		if c.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	delete(r.s.posts, id)
	return nil
}

func (r *PostRepository) Count(_ context.Context, q repository.PostQuery) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return int64(len(r.match(q))), nil
}

func (r *PostRepository) List(_ context.Context, q repository.PostQuery, offset, limit int) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.match(q)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if offset >= len(matched) {
		return []model.Post{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	list := make([]model.Post, 0, end-offset)
	for _, p := range matched[offset:end] {
		list = append(list, r.s.withRelations(p))
	}
	return list, nil
}

// match must be called with mu held.
func (r *PostRepository) match(q repository.PostQuery) []model.Post {
	var out []model.Post
	for _, p := range r.s.posts {
		if q.GroupID != 0 && (p.GroupID == nil || *p.GroupID != q.GroupID) {
			continue
		}
		if q.AuthorID != 0 && p.AuthorID != q.AuthorID {
			continue
		}
		if q.FollowerID != 0 {
			if _, ok := r.s.follows[followKey{follower: q.FollowerID, author: p.AuthorID}]; !ok {
				continue
			}
		}
		cp := *p
		cp.GroupID = copyGroupID(p.GroupID)
		out = append(out, cp)
	}
	return out
}

var _ repository.PostStore = (*PostRepository)(nil)
