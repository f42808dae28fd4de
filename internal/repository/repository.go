// Package repository holds the store contracts shared by the SQL and in-memory
// implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"yatube/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// PostQuery filters post listings. Zero fields are not applied.
// FollowerID keeps only posts whose author is followed by that user.
type PostQuery struct {
	GroupID    uint64
	AuthorID   uint64
	FollowerID uint64
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateRole(ctx context.Context, id uint64, role int) error
}

type GroupStore interface {
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id uint64) (*model.Group, error)
	FindBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	// Delete removes the group and detaches its posts (group_id = NULL).
	Delete(ctx context.Context, id uint64) error
}

// PostStore lists posts newest first (created_at DESC, id DESC) with Author and
// Group loaded.
type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uint64) (*model.Post, error)
	// Update overwrites text, group and image. CreatedAt and AuthorID never change.
	Update(ctx context.Context, post *model.Post) error
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context, q PostQuery) (int64, error)
	List(ctx context.Context, q PostQuery, offset, limit int) ([]model.Post, error)
}

// CommentStore lists comments oldest first with Author loaded.
type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID uint64) ([]model.Comment, error)
}

type FollowStore interface {
	// Follow creates the edge if absent; changed reports whether a row was written.
	Follow(ctx context.Context, followerID, authorID uint64) (changed bool, err error)
	// Unfollow removes the edge if present.
	Unfollow(ctx context.Context, followerID, authorID uint64) (changed bool, err error)
	IsFollowing(ctx context.Context, followerID, authorID uint64) (bool, error)
	CountFollowers(ctx context.Context, authorID uint64) (int64, error)
	CountFollowings(ctx context.Context, followerID uint64) (int64, error)
}

// SessionStore keeps the single active access token per user.
type SessionStore interface {
	Save(ctx context.Context, userID uint64, token string, ttl time.Duration) error
	Get(ctx context.Context, userID uint64) (string, error)
	Extend(ctx context.Context, userID uint64, ttl time.Duration) error
	Delete(ctx context.Context, userID uint64) error
}

// PageCache stores rendered page bodies for a bounded time.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// OutboxStore is implemented by SQL stores that record follow events.
type OutboxStore interface {
	ListPending(ctx context.Context, batchSize, maxRetry int) ([]model.SocialOutbox, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64) error
}

// Set groups the entity stores one backend provides.
type Set struct {
	Users    UserStore
	Groups   GroupStore
	Posts    PostStore
	Comments CommentStore
	Follows  FollowStore
}
