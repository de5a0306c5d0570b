package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"quill/internal/db"
	"quill/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// setupTestDB points the global connection at a fresh in-memory database.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:quilltest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb
}

func createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

func createCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	category := models.Category{Name: name}
	if err := db.DB.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category %s: %v", name, err)
	}
	return &category
}

func createTag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name}
	if err := db.DB.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return &tag
}

// createDraft stores a valid draft for author in the given category.
func createDraft(t *testing.T, author *models.User, category *models.Category, title string) *models.Post {
	t.Helper()
	post, err := CreatePost(author, PostInput{
		Title:    strPtr(title),
		Content:  strPtr("some content long enough to pass validation"),
		Category: strPtr(category.Name),
	})
	if err != nil {
		t.Fatalf("failed to create draft %q: %v", title, err)
	}
	return post
}

// createPublished stores a draft and publishes it.
func createPublished(t *testing.T, author *models.User, category *models.Category, title string) *models.Post {
	t.Helper()
	post := createDraft(t, author, category, title)
	published, err := PublishPost(post.ID, author)
	if err != nil {
		t.Fatalf("failed to publish %q: %v", title, err)
	}
	return published
}

// publishAt backdates a published post for date-filter tests.
func publishAt(t *testing.T, post *models.Post, at time.Time) {
	t.Helper()
	if err := db.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("published_at", at).Error; err != nil {
		t.Fatalf("failed to backdate post %d: %v", post.ID, err)
	}
}

func strPtr(s string) *string { return &s }

func tagsPtr(names ...string) *[]string { return &names }
