package model

import "time"

const (
	RoleUser  = 0
	RoleAdmin = 1
)

type User struct {
	ID        uint64 `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;size:150;not null"`
	Password  string `gorm:"size:255;not null" json:"-"`
	Role      int    `gorm:"not null;default:0"` // 0=user, 1=admin
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role >= RoleAdmin
}
