package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"quill/internal/db"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// setupTestServer wires a fresh in-memory database and a router with the
// real middleware and route table.
func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:quillhandlers%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
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

	// The detail cache is process-global; drop anything left by other tests.
	utils.GetCache().Purge()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerTestRoutes(r)
	return r
}

// registerTestRoutes mirrors the production route table without importing
// the router package (which would create an import cycle from this test).
func registerTestRoutes(r *gin.Engine) {
	authHandler := NewAuthHandler()
	postHandler := NewPostHandler()
	commentHandler := NewCommentHandler()
	ratingHandler := NewRatingHandler()
	categoryHandler := NewCategoryHandler()
	tagHandler := NewTagHandler()
	searchHandler := NewSearchHandler()

	api := r.Group("/api")
	api.Use(middleware.LoadUser())

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Detail)
	api.GET("/posts/:id/comments", commentHandler.List)
	api.GET("/search", searchHandler.Search)
	api.GET("/categories", categoryHandler.List)
	api.GET("/categories/:id/posts", categoryHandler.Posts)
	api.GET("/tags", tagHandler.List)
	api.GET("/tags/:name/posts", tagHandler.Posts)
	api.GET("/authors/:username/posts", searchHandler.AuthorPosts)

	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.PATCH("/posts/:id", postHandler.PartialUpdate)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/publish", postHandler.Publish)
		authorized.POST("/posts/:id/like", postHandler.ToggleLike)
		authorized.POST("/posts/:id/rate", ratingHandler.Rate)
		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.POST("/categories", categoryHandler.Create)
		authorized.DELETE("/categories/:id", categoryHandler.Delete)
		authorized.POST("/tags", tagHandler.Create)
	}
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// registerAndLogin creates an account and returns its bearer token.
func registerAndLogin(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed with %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"username": username,
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", w.Code, w.Body.String())
	}
	token, _ := decodeJSON(t, w)["token"].(string)
	if token == "" {
		t.Fatal("login response carried no token")
	}
	return token
}

func seedCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	category := models.Category{Name: name}
	if err := db.DB.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return &category
}

// createTestPost creates a draft over the API and returns its id.
func createTestPost(t *testing.T, r *gin.Engine, token, title string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/posts", token, gin.H{
		"title":    title,
		"content":  "content long enough for validation",
		"category": "Technology",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post failed with %d: %s", w.Code, w.Body.String())
	}
	id, _ := decodeJSON(t, w)["id"].(float64)
	return uint(id)
}
