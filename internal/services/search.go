package services

import (
	"strings"
	"time"

	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"

	"gorm.io/gorm"
)

// SearchParams are the optional search axes. An empty field contributes no
// predicate at all; supplied fields combine with AND. Search only ever sees
// published posts.
type SearchParams struct {
	Query         string // substring across title, content, author username
	Author        string // exact username
	Category      string // exact category name
	Tag           string // exact tag name
	PublishedDate string // YYYY-MM-DD, matched against published_at's date
	Sort          string // published_at (default), title, category
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters in user input so a query for
// "100%" matches the literal string instead of the prefix.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SearchPosts composes one query from the supplied predicates. All text
// matching is case-insensitive; LOWER/LIKE keeps the SQL portable between
// postgres and the sqlite test driver.
func SearchPosts(p SearchParams) ([]models.Post, error) {
	query := db.DB.Model(&models.Post{}).Where("posts.status = ?", models.StatusPublished)

	joinedUsers := false
	joinUsers := func() {
		if !joinedUsers {
			query = query.Joins("JOIN users ON users.id = posts.user_id")
			joinedUsers = true
		}
	}
	joinedCategories := false

	if p.Query != "" {
		joinUsers()
		pattern := "%" + escapeLike(strings.ToLower(p.Query)) + "%"
		query = query.Where(
			`LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\' OR LOWER(users.username) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	if p.Author != "" {
		joinUsers()
		query = query.Where("LOWER(users.username) = LOWER(?)", p.Author)
	}

	if p.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = posts.category_id").
			Where("LOWER(categories.name) = LOWER(?)", p.Category)
		joinedCategories = true
	}

	if p.Tag != "" {
		query = query.
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("LOWER(tags.name) = LOWER(?)", p.Tag)
	}

	if p.PublishedDate != "" {
		day, err := time.Parse("2006-01-02", p.PublishedDate)
		if err != nil {
			return nil, apperr.Validation("published_date", "Date has wrong format. Use YYYY-MM-DD.")
		}
		query = query.Where(
			"posts.published_at >= ? AND posts.published_at < ?",
			day, day.AddDate(0, 0, 1),
		)
	}

	switch p.Sort {
	case "", "published_at":
		query = query.Order("posts.published_at ASC")
	case "title":
		query = query.Order("posts.title ASC")
	case "category":
		if !joinedCategories {
			query = query.Joins("LEFT JOIN categories ON categories.id = posts.category_id")
		}
		query = query.Order("categories.name ASC")
	default:
		return nil, apperr.Validation("sort", "Sort must be one of: published_at, title, category.")
	}

	var posts []models.Post
	if err := query.
		Preload("User").Preload("Category").Preload("Tags").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	fillCounts(posts)
	return posts, nil
}

// PostsByCategoryID lists the published posts of one category. An id that
// does not resolve is NotFound; a category with no published posts is a
// valid empty result.
func PostsByCategoryID(categoryID uint) ([]models.Post, error) {
	var category models.Category
	if err := db.DB.First(&category, categoryID).Error; err != nil {
		return nil, apperr.NotFound("category")
	}
	return publishedPosts(db.DB.Where("category_id = ?", category.ID))
}

// PostsByCategoryName is the exact-name variant of PostsByCategoryID.
func PostsByCategoryName(name string) ([]models.Post, error) {
	var category models.Category
	if err := db.DB.Where("LOWER(name) = LOWER(?)", name).First(&category).Error; err != nil {
		return nil, apperr.NotFound("category")
	}
	return publishedPosts(db.DB.Where("category_id = ?", category.ID))
}

// PostsByTagName matches tags by case-insensitive substring and returns the
// published posts carrying any of them. No tag matching at all is NotFound.
func PostsByTagName(fragment string) ([]models.Post, error) {
	var tagIDs []uint
	pattern := "%" + escapeLike(strings.ToLower(fragment)) + "%"
	if err := db.DB.Model(&models.Tag{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Pluck("id", &tagIDs).Error; err != nil {
		return nil, err
	}
	if len(tagIDs) == 0 {
		return nil, apperr.NotFound("tag")
	}

	var postIDs []uint
	if err := db.DB.Table("post_tags").
		Where("tag_id IN ?", tagIDs).
		Distinct("post_id").
		Pluck("post_id", &postIDs).Error; err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return []models.Post{}, nil
	}
	return publishedPosts(db.DB.Where("id IN ?", postIDs))
}

// PostsByAuthor lists an author's published posts by exact username.
func PostsByAuthor(username string) ([]models.Post, error) {
	var user models.User
	if err := db.DB.Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, apperr.NotFound("user")
	}
	return publishedPosts(db.DB.Where("user_id = ?", user.ID))
}

func publishedPosts(query *gorm.DB) ([]models.Post, error) {
	var posts []models.Post
	if err := query.
		Where("status = ?", models.StatusPublished).
		Preload("User").Preload("Category").Preload("Tags").
		Order("published_at ASC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	fillCounts(posts)
	return posts, nil
}
