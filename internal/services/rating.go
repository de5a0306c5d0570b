package services

import (
	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rate upserts the caller's rating for a post and recomputes the post's
// denormalized average. The upsert keys on the (post_id, user_id) unique
// index, so re-rating overwrites in place and never duplicates.
//
// The post row is locked FOR UPDATE before the write, which serializes
// raters of the same post: a competitor blocks on the lock and only starts
// its AVG after this transaction commits, so the recompute always sees
// every committed rating. Without the lock, a blocked correlated UPDATE on
// postgres would resume on its pre-commit snapshot and drop the competing
// row from the average. sqlite ignores the locking clause and serializes
// writers on its own. This is the only code path that writes
// average_rating.
func Rate(postID uint, user *models.User, value int) (float64, error) {
	if value < 1 || value > 5 {
		return 0, apperr.Validation("value", "Rating must be an integer between 1 and 5.")
	}

	var average float64
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, postID).Error; err != nil {
			return apperr.NotFound("post")
		}

		rating := models.Rating{
			PostID: post.ID,
			UserID: user.ID,
			Value:  value,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rating).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("average_rating", gorm.Expr(
				"(SELECT COALESCE(AVG(value), 0) FROM ratings WHERE post_id = ?)", post.ID,
			)).Error; err != nil {
			return err
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			Pluck("average_rating", &average).Error
	})
	if err != nil {
		return 0, err
	}
	return average, nil
}
