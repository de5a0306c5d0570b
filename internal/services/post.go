package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"

	"gorm.io/gorm"
)

// PostInput carries the writable post fields. Pointers distinguish
// "not supplied" from zero values so partial updates work.
type PostInput struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
	Status   *string
}

const maxTagsPerPost = 5

// Length limits count characters, not bytes, so multibyte titles and
// content measure the same as their visible length.
func validateTitle(title string, fields map[string]string) string {
	if utf8.RuneCountInString(title) > 100 {
		fields["title"] = "Title cannot exceed 100 characters."
		return ""
	}
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		fields["title"] = "Title cannot be empty or whitespace."
		return ""
	}
	return title
}

func validateContent(content string, fields map[string]string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		fields["content"] = "Content cannot be empty or whitespace."
		return ""
	}
	if utf8.RuneCountInString(trimmed) < 10 {
		fields["content"] = "Content must be at least 10 characters long."
		return ""
	}
	return content
}

// resolveCategory maps a category name to its row. Unknown names are a
// validation failure, matching how tags behave.
func resolveCategory(name string, fields map[string]string) *models.Category {
	var category models.Category
	if err := db.DB.Where("name = ?", name).First(&category).Error; err != nil {
		fields["category"] = fmt.Sprintf("Category with name=%s does not exist.", name)
		return nil
	}
	return &category
}

func resolveTags(names []string, fields map[string]string) []models.Tag {
	if len(names) > maxTagsPerPost {
		fields["tags"] = "You cannot assign more than 5 tags to a post."
		return nil
	}
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		if err := db.DB.Where("name = ?", name).First(&tag).Error; err != nil {
			fields["tags"] = fmt.Sprintf("Tag with name=%s does not exist.", name)
			return nil
		}
		tags = append(tags, tag)
	}
	return tags
}

// CreatePost validates the input and stores a new draft owned by author.
// The client cannot create a post directly in the published state; publish
// is its own transition.
func CreatePost(author *models.User, in PostInput) (*models.Post, error) {
	fields := map[string]string{}

	var title, content string
	if in.Title == nil {
		fields["title"] = "This field is required."
	} else {
		title = validateTitle(*in.Title, fields)
	}
	if in.Content == nil {
		fields["content"] = "This field is required."
	} else {
		content = validateContent(*in.Content, fields)
	}

	var category *models.Category
	if in.Category == nil {
		fields["category"] = "Category is required."
	} else {
		category = resolveCategory(*in.Category, fields)
	}

	var tags []models.Tag
	if in.Tags != nil {
		tags = resolveTags(*in.Tags, fields)
	}

	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Fields: fields}
	}

	post := models.Post{
		UserID:  author.ID,
		Title:   title,
		Content: content,
		Status:  models.StatusDraft,
		Tags:    tags,
	}
	if category != nil {
		post.CategoryID = &category.ID
	}

	if err := db.DB.Create(&post).Error; err != nil {
		return nil, err
	}

	return GetPost(post.ID, author)
}

// UpdatePost applies the input to an existing post. Only the author may
// update. Changed fields are re-validated exactly as in create; a full
// (non-partial) update requires title, content and category to be present.
// Status transitions maintain the published_at invariant.
func UpdatePost(postID uint, actor *models.User, in PostInput, partial bool) (*models.Post, error) {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		return nil, apperr.NotFound("post")
	}
	if post.UserID != actor.ID {
		return nil, apperr.Permission("you do not have permission to modify this post")
	}

	fields := map[string]string{}

	if in.Title != nil {
		post.Title = validateTitle(*in.Title, fields)
	} else if !partial {
		fields["title"] = "This field is required."
	}
	if in.Content != nil {
		post.Content = validateContent(*in.Content, fields)
	} else if !partial {
		fields["content"] = "This field is required."
	}

	if in.Category != nil {
		if category := resolveCategory(*in.Category, fields); category != nil {
			post.CategoryID = &category.ID
		}
	} else if !partial {
		fields["category"] = "Category is required."
	}

	var tags []models.Tag
	tagsChanged := false
	if in.Tags != nil {
		tags = resolveTags(*in.Tags, fields)
		tagsChanged = true
	}

	if in.Status != nil {
		switch *in.Status {
		case models.StatusPublished:
			if post.Status != models.StatusPublished {
				now := time.Now()
				post.PublishedAt = &now
			}
			post.Status = models.StatusPublished
		case models.StatusDraft:
			if post.Status != models.StatusDraft {
				post.PublishedAt = nil
			}
			post.Status = models.StatusDraft
		default:
			fields["status"] = fmt.Sprintf("%q is not a valid choice.", *in.Status)
		}
	}

	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Fields: fields}
	}

	// Save with Select so a cleared published_at is written out too.
	if err := db.DB.Model(&post).
		Select("title", "content", "category_id", "status", "published_at", "updated_at").
		Updates(map[string]interface{}{
			"title":        post.Title,
			"content":      post.Content,
			"category_id":  post.CategoryID,
			"status":       post.Status,
			"published_at": post.PublishedAt,
		}).Error; err != nil {
		return nil, err
	}
	if tagsChanged {
		if err := db.DB.Model(&post).Association("Tags").Replace(tags); err != nil {
			return nil, err
		}
	}

	return GetPost(post.ID, actor)
}

// PublishPost transitions draft -> published and stamps published_at.
func PublishPost(postID uint, actor *models.User) (*models.Post, error) {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		return nil, apperr.NotFound("post")
	}
	if post.UserID != actor.ID {
		return nil, apperr.Permission("you do not have permission to publish this post")
	}
	if post.Status == models.StatusPublished {
		return nil, apperr.Conflict("post is already published")
	}

	now := time.Now()
	post.Status = models.StatusPublished
	post.PublishedAt = &now
	if err := db.DB.Model(&post).Updates(map[string]interface{}{
		"status":       post.Status,
		"published_at": post.PublishedAt,
	}).Error; err != nil {
		return nil, err
	}

	return GetPost(post.ID, actor)
}

// DeletePost removes the post together with its comments, ratings and likes.
func DeletePost(postID uint, actor *models.User) error {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		return apperr.NotFound("post")
	}
	if post.UserID != actor.ID {
		return apperr.Permission("you do not have permission to delete this post")
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	return err
}

// ToggleLike flips the caller's like on a post and returns the new
// membership state plus the fresh count. Any authenticated user may like
// any post; toggling twice is a no-op pair.
func ToggleLike(postID uint, user *models.User) (liked bool, count int64, err error) {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		return false, 0, apperr.NotFound("post")
	}

	var existing models.Like
	if err := db.DB.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error; err == nil {
		if err := db.DB.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		liked = false
	} else {
		like := models.Like{UserID: user.ID, PostID: post.ID}
		if err := db.DB.Create(&like).Error; err != nil {
			return false, 0, err
		}
		liked = true
	}

	if err := db.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

// GetPost loads one post with its relations. Drafts are only visible to
// their author; everyone else gets a permission error, not a 404.
func GetPost(postID uint, actor *models.User) (*models.Post, error) {
	var post models.Post
	if err := db.DB.Preload("User").Preload("Category").Preload("Tags").First(&post, postID).Error; err != nil {
		return nil, apperr.NotFound("post")
	}
	if !post.Published() && (actor == nil || actor.ID != post.UserID) {
		return nil, apperr.Permission("you do not have permission to view this draft")
	}
	posts := []models.Post{post}
	fillCounts(posts)
	return &posts[0], nil
}

// ListPosts returns one page plus the total count. An authenticated caller
// sees exactly their own posts in every status; an anonymous caller sees
// only published ones.
func ListPosts(actor *models.User, page, pageSize int) ([]models.Post, int64, error) {
	query := db.DB.Model(&models.Post{})
	if actor != nil {
		query = query.Where("user_id = ?", actor.ID)
	} else {
		query = query.Where("status = ?", models.StatusPublished)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := query.
		Preload("User").Preload("Category").Preload("Tags").
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	fillCounts(posts)
	return posts, total, nil
}

// fillCounts batch-fills the like and comment counts for a page of posts.
func fillCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}

	likeMap := make(map[uint]int)
	var likeCounts []countResult
	db.DB.Model(&models.Like{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeCounts)
	for _, r := range likeCounts {
		likeMap[r.PostID] = r.Count
	}

	commentMap := make(map[uint]int)
	var commentCounts []countResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentCounts)
	for _, r := range commentCounts {
		commentMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].LikeCount = likeMap[posts[i].ID]
		posts[i].CommentCount = commentMap[posts[i].ID]
	}
}
