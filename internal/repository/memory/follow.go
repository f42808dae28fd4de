package memory

import (
	"context"

	"yatube/internal/model"
	"yatube/internal/repository"
)

type FollowRepository struct {
	s *Store
}

func (r *FollowRepository) Follow(_ context.Context, followerID, authorID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := followKey{follower: followerID, author: authorID}
	if _, ok := r.s.follows[key]; ok {
		return false, nil
	}
	r.s.follows[key] = model.Follow{
		ID:         r.s.nextID("follow"),
		FollowerID: followerID,
		AuthorID:   authorID,
		CreatedAt:  r.s.now(),
	}
	return true, nil
}

func (r *FollowRepository) Unfollow(_ context.Context, followerID, authorID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := followKey{follower: followerID, author: authorID}
	if _, ok := r.s.follows[key]; !ok {
		return false, nil
	}
	delete(r.s.follows, key)
	return true, nil
}

func (r *FollowRepository) IsFollowing(_ context.Context, followerID, authorID uint64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.follows[followKey{follower: followerID, author: authorID}]
	return ok, nil
}

func (r *FollowRepository) CountFollowers(_ context.Context, authorID uint64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for k := range r.s.follows {
		if k.author == authorID {
			n++
		}
	}
	return n, nil
}

func (r *FollowRepository) CountFollowings(_ context.Context, followerID uint64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for k := range r.s.follows {
		if k.follower == followerID {
			n++
		}
	}
	return n, nil
}

var _ repository.FollowStore = (*FollowRepository)(nil)
