package models

import (
	"time"
)

// Rating is one user's score for one post. The composite unique index gives
// the upsert key: at most one row per (post, user).
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_post_user_rating" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_post_user_rating" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Value     int       `gorm:"not null" json:"value"` // 1 to 5
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
