package models

import (
	"time"
)

// Like 点赞模型 - one row per user per post, toggled on and off
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_like" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_like" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
