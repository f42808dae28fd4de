package model

// Group is a themed feed posts can optionally belong to. Slug is the URL key.
type Group struct {
	ID          uint64 `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Slug        string `gorm:"uniqueIndex;size:50;not null"`
	Description string `gorm:"type:text"`
}

func (g Group) String() string {
	return g.Title
}
