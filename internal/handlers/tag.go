package handlers

import (
	"net/http"
	"strings"

	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/services"

	"github.com/gin-gonic/gin"
)

type TagHandler struct{}

func NewTagHandler() *TagHandler {
	return &TagHandler{}
}

type tagRequest struct {
	Name string `json:"name"`
}

// List returns every tag.
func (h *TagHandler) List(c *gin.Context) {
	var tags []models.Tag
	db.DB.Order("name ASC").Find(&tags)
	c.JSON(http.StatusOK, tags)
}

// Create adds a new tag. Names are unique.
func (h *TagHandler) Create(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondError(c, apperr.Validation("name", "This field is required."))
		return
	}

	var count int64
	db.DB.Model(&models.Tag{}).Where("LOWER(name) = LOWER(?)", req.Name).Count(&count)
	if count > 0 {
		RespondError(c, apperr.Validation("name", "A tag with that name already exists."))
		return
	}

	tag := models.Tag{Name: req.Name}
	if err := db.DB.Create(&tag).Error; err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// Posts lists published posts carrying any tag whose name contains the
// fragment. No matching tag at all is 404.
func (h *TagHandler) Posts(c *gin.Context) {
	posts, err := services.PostsByTagName(c.Param("name"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
