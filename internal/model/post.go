package model

import "time"

type Post struct {
	ID        uint64    `gorm:"primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_posts_created;autoCreateTime"`
	AuthorID  uint64    `gorm:"not null;index:idx_posts_author"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint64   `gorm:"index:idx_posts_group"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	Image     string    `gorm:"size:255"` // media reference, empty when no image
}

// Excerpt 列表和标题中使用的前 15 个字符
func (p Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) <= 15 {
		return p.Text
	}
	return string(r[:15])
}
