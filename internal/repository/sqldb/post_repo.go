package sqldb

import (
	"context"

	"yatube/internal/model"
	"yatube/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// Update 只覆盖可编辑字段，created_at 与 author_id 保持不变
func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	res := r.DB.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return res.Error
	}
	// mysql 内容未变化时 RowsAffected 也是 0
	if res.RowsAffected == 0 {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", post.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
	}
	return nil
}

// Delete 在同一事务里删除评论和帖子
func (r *PostRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *PostRepository) Count(ctx context.Context, q repository.PostQuery) (int64, error) {
	var n int64
	err := r.filter(r.DB.WithContext(ctx).Model(&model.Post{}), q).Count(&n).Error
	return n, err
}

// List 按 created_at DESC, id DESC 分页，作者和分组一次性预加载
func (r *PostRepository) List(ctx context.Context, q repository.PostQuery, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.filter(r.DB.WithContext(ctx).Model(&model.Post{}), q).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) filter(db *gorm.DB, q repository.PostQuery) *gorm.DB {
	if q.GroupID != 0 {
		db = db.Where("group_id = ?", q.GroupID)
	}
	if q.AuthorID != 0 {
		db = db.Where("author_id = ?", q.AuthorID)
	}
	if q.FollowerID != 0 {
		followed := r.DB.Model(&model.Follow{}).Select("author_id").Where("follower_id = ?", q.FollowerID)
		db = db.Where("author_id IN (?)", followed)
	}
	return db
}

var _ repository.PostStore = (*PostRepository)(nil)
