package models

import (
	"time"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID *uint      `gorm:"index" json:"category_id"`
	Category   *Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category"`
	Tags       []Tag      `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE;" json:"tags"`
	Title      string     `gorm:"size:100;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     string     `gorm:"size:10;default:'draft';not null;index" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	// Non-null exactly while the post is published.
	PublishedAt   *time.Time `gorm:"index" json:"published_at"`
	AverageRating float64    `gorm:"default:0" json:"average_rating"`

	// 非数据库字段，用于查询时填充
	LikeCount    int `gorm:"-" json:"like_count"`
	CommentCount int `gorm:"-" json:"comment_count"`
}

// Published reports whether the post is visible to everyone.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}
