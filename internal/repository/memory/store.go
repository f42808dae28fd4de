// Package memory is an in-process implementation of the repository contracts,
// used by the `-storage memory` mode and by tests.
package memory

import (
	"sync"
	"time"

	"yatube/internal/model"
	"yatube/internal/repository"
)

type followKey struct {
	follower uint64
	author   uint64
}

type Store struct {
	mu       sync.RWMutex
	users    map[uint64]*model.User
	groups   map[uint64]*model.Group
	posts    map[uint64]*model.Post
	comments map[uint64]*model.Comment
	follows  map[followKey]model.Follow
	lastID   map[string]uint64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[uint64]*model.User),
		groups:   make(map[uint64]*model.Group),
		posts:    make(map[uint64]*model.Post),
		comments: make(map[uint64]*model.Comment),
		follows:  make(map[followKey]model.Follow),
		lastID:   make(map[string]uint64),
		now:      time.Now,
	}
}

// Set returns the store's repositories as a repository.Set.
func (s *Store) Set() repository.Set {
	return repository.Set{
		Users:    &UserRepository{s: s},
		Groups:   &GroupRepository{s: s},
		Posts:    &PostRepository{s: s},
		Comments: &CommentRepository{s: s},
		Follows:  &FollowRepository{s: s},
	}
}

// nextID must be called with mu held.
func (s *Store) nextID(table string) uint64 {
	s.lastID[table]++
	return s.lastID[table]
}

// withRelations must be called with mu held (read or write).
func (s *Store) withRelations(p model.Post) model.Post {
	if u, ok := s.users[p.AuthorID]; ok {
		p.Author = *u
	}
	p.Group = nil
	if p.GroupID != nil {
		if g, ok := s.groups[*p.GroupID]; ok {
			cp := *g
			p.Group = &cp
		}
	}
	return p
}
