package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"quill/internal/apperr"
	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/services"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns every category.
func (h *CategoryHandler) List(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)
	c.JSON(http.StatusOK, categories)
}

// Create adds a new category. Names are unique.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("body", "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondError(c, apperr.Validation("name", "This field is required."))
		return
	}

	var count int64
	db.DB.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", req.Name).Count(&count)
	if count > 0 {
		RespondError(c, apperr.Validation("name", "A category with that name already exists."))
		return
	}

	category := models.Category{Name: req.Name, Description: req.Description}
	if err := db.DB.Create(&category).Error; err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// Delete removes a category; posts referencing it keep existing with their
// category cleared.
func (h *CategoryHandler) Delete(c *gin.Context) {
	categoryID := uint(utils.StringToInt(c.Param("id")))

	var category models.Category
	if err := db.DB.First(&category, categoryID).Error; err != nil {
		RespondError(c, apperr.NotFound("category"))
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Posts lists the published posts of one category, addressed by numeric id
// or by name. An id or name that does not resolve is 404; a known category
// with no published posts is an empty 200.
func (h *CategoryHandler) Posts(c *gin.Context) {
	param := c.Param("id")

	var posts []models.Post
	var err error
	if id, convErr := strconv.Atoi(param); convErr == nil {
		posts, err = services.PostsByCategoryID(uint(id))
	} else {
		posts, err = services.PostsByCategoryName(param)
	}
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
